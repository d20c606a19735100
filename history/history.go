// Package history 维护访客的最近浏览记录。
//
// 每个访客一个 key（{KeyPrefix}:{visitor}），值为 JSON 编码的商品 ID 列表：
// 最近浏览在前、去重、最多 Cap 条。
package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/rushteam/shoprec/core"
)

const (
	// DefaultCap 是浏览历史保留的最大条数
	DefaultCap = 10

	// DefaultKeyPrefix 是浏览历史在 Store 中的 key 前缀
	DefaultKeyPrefix = "shoprec:viewed"

	// AnonymousVisitor 是未携带访客标识时使用的固定槽位
	AnonymousVisitor = "anonymous"
)

// Tracker 读写访客浏览历史。并发安全：同一进程内对同一访客的读改写串行执行。
// 多实例共享 Redis 时，同一访客的并发写以最后一次为准。
type Tracker struct {
	store     core.Store
	keyPrefix string
	cap       int
	log       zerolog.Logger

	mu sync.Mutex
}

// Option 配置 Tracker。
type Option func(*Tracker)

func WithCap(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.cap = n
		}
	}
}

func WithKeyPrefix(prefix string) Option {
	return func(t *Tracker) {
		if prefix != "" {
			t.keyPrefix = prefix
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(t *Tracker) { t.log = l.With().Str("component", "history").Logger() }
}

// NewTracker 创建浏览历史 Tracker。
func NewTracker(store core.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:     store,
		keyPrefix: DefaultKeyPrefix,
		cap:       DefaultCap,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Cap 返回保留的最大条数。
func (t *Tracker) Cap() int { return t.cap }

// Key 返回访客对应的存储 key。
func (t *Tracker) Key(visitor string) string {
	if visitor == "" {
		visitor = AnonymousVisitor
	}
	return t.keyPrefix + ":" + visitor
}

// Recent 返回访客最近浏览的商品 ID（最近在前）。
// 没有记录时返回空；存储中的数据损坏时记录 warn 日志并视为空历史。
func (t *Tracker) Recent(ctx context.Context, visitor string) ([]string, error) {
	ids, err := t.load(ctx, visitor)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Track 记录一次浏览：移除已有的同一商品，插到最前，截断到 Cap 条后写回。
// 对同一商品重复调用是幂等的：结果中该商品只出现一次且位于最前。
func (t *Tracker) Track(ctx context.Context, visitor, productID string) ([]string, error) {
	if productID == "" {
		return nil, core.NewDomainError(core.ModuleHistory, core.ErrorCodeInvalidInput, "history: empty product id")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	ids, err := t.load(ctx, visitor)
	if err != nil {
		return nil, err
	}

	next := make([]string, 0, t.cap)
	next = append(next, productID)
	for _, id := range ids {
		if id == productID {
			continue
		}
		if len(next) >= t.cap {
			break
		}
		next = append(next, id)
	}

	data, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("history: encode: %w", err)
	}
	if err := t.store.Set(ctx, t.Key(visitor), data); err != nil {
		return nil, core.NewDomainError(core.ModuleHistory, core.ErrorCodeUnavailable, "history: save").Wrap(err)
	}
	return next, nil
}

// Clear 删除访客的浏览历史。
func (t *Tracker) Clear(ctx context.Context, visitor string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.Delete(ctx, t.Key(visitor))
}

func (t *Tracker) load(ctx context.Context, visitor string) ([]string, error) {
	key := t.Key(visitor)
	data, err := t.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return []string{}, nil
		}
		return nil, core.NewDomainError(core.ModuleHistory, core.ErrorCodeUnavailable, "history: load").Wrap(err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		t.log.Warn().Err(err).Str("key", key).Msg("corrupt view history, treating as empty")
		return []string{}, nil
	}
	if len(ids) > t.cap {
		ids = ids[:t.cap]
	}
	return ids, nil
}
