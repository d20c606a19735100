package filter

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/utils"
)

// BlacklistStore 是黑名单存储接口，StoreAdapter 为其默认实现。
type BlacklistStore interface {
	GetBlacklist(ctx context.Context, key string) ([]string, error)
}

// BlacklistFilter 过滤运营下架或屏蔽的商品。
//
// 命中规则（任一即过滤）：
//   - 商品 ID 在 ItemIDs 中，或在 Store 的 Key 下的黑名单中
//   - 商品带有 Tags 中的任一标签（大小写不敏感），如 "Discontinued"
//
// Store 黑名单在同一次请求内只读一次；Refresh > 0 时跨请求复用，直到过期。
// 被过滤的商品写入 filtered label，Value 为命中的规则：
// "blacklist:id"、"blacklist:store" 或 "blacklist:tag:<tag>"。
type BlacklistFilter struct {
	ItemIDs []string
	Tags    []string

	Store   BlacklistStore
	Key     string
	Refresh time.Duration

	now func() time.Time

	mu        sync.Mutex
	ids       map[string]struct{}
	tags      map[string]struct{}
	stored    map[string]struct{}
	loadedAt  time.Time
	loadedFor *core.RecommendContext
}

// NewBlacklistFilter 创建一个黑名单过滤器；storeAdapter 为 nil 时只使用静态规则。
func NewBlacklistFilter(itemIDs []string, storeAdapter *StoreAdapter, key string) *BlacklistFilter {
	f := &BlacklistFilter{ItemIDs: itemIDs, Key: key}
	if storeAdapter != nil {
		f.Store = storeAdapter
	}
	return f
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	rule, err := f.match(ctx, rctx, item)
	if err != nil || rule == "" {
		return false, err
	}
	item.PutLabel(utils.LabelFiltered, utils.Label{Value: rule, Source: f.Name()})
	return true, nil
}

// match 返回命中的规则，未命中时返回空串。
func (f *BlacklistFilter) match(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (string, error) {
	ids, tags := f.static()
	if _, ok := ids[item.ID]; ok {
		return "blacklist:id", nil
	}
	if item.Product != nil && len(tags) > 0 {
		for _, t := range item.Product.Tags {
			if _, ok := tags[strings.ToLower(t)]; ok {
				return "blacklist:tag:" + t, nil
			}
		}
	}

	stored, err := f.storeIDs(ctx, rctx)
	if err != nil {
		return "", err
	}
	if _, ok := stored[item.ID]; ok {
		return "blacklist:store", nil
	}
	return "", nil
}

func (f *BlacklistFilter) static() (map[string]struct{}, map[string]struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ids == nil {
		f.ids = toSet(f.ItemIDs, nil)
		f.tags = toSet(f.Tags, strings.ToLower)
	}
	return f.ids, f.tags
}

func (f *BlacklistFilter) storeIDs(ctx context.Context, rctx *core.RecommendContext) (map[string]struct{}, error) {
	if f.Store == nil || f.Key == "" {
		return nil, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.clock()
	if f.stored != nil {
		if rctx != nil && rctx == f.loadedFor {
			return f.stored, nil
		}
		if f.Refresh > 0 && now.Sub(f.loadedAt) < f.Refresh {
			return f.stored, nil
		}
	}

	list, err := f.Store.GetBlacklist(ctx, f.Key)
	if err != nil {
		return nil, err
	}
	f.stored = toSet(list, nil)
	f.loadedAt = now
	f.loadedFor = rctx
	return f.stored, nil
}

func (f *BlacklistFilter) clock() time.Time {
	if f.now != nil {
		return f.now()
	}
	return time.Now()
}

func toSet(values []string, norm func(string) string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		if norm != nil {
			v = norm(v)
		}
		if v != "" {
			m[v] = struct{}{}
		}
	}
	return m
}
