package recall

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/model"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// 个性化打分权重。
const (
	// PurchaseWeight 已购商品对候选的贡献倍数
	PurchaseWeight = 2.0
)

// PersonalizedRecommendations 基于浏览与购买历史做个性化推荐。
//
// 打分原理：
//  1. 两种历史都为空时，退化为 TrendingProductRecommendations
//  2. 候选集为目录中未浏览、未购买的商品，初始分为 0
//  3. 每个已购商品：候选分 += 2 * sim(已购, 候选)
//  4. 第 index 个浏览商品：候选分 += sim(浏览, 候选) * (1 + (n-index)/n)，
//     viewHistory 须按最近浏览在前提供，越靠前权重越高
//
// 历史中不在目录里的 ID 会被静默跳过。
// userID 只用于标识请求，历史由调用方显式传入。
func PersonalizedRecommendations(
	userID string,
	viewHistory, purchaseHistory []string,
	catalog []*core.Product,
	limit int,
	rnd core.RandSource,
) []*core.Product {
	if len(viewHistory) == 0 && len(purchaseHistory) == 0 {
		return TrendingProductRecommendations(catalog, limit, rnd)
	}
	return rankProducts(personalizedItems(model.DefaultContentModel(), viewHistory, purchaseHistory, catalog), limit)
}

func personalizedItems(m model.PairModel, viewHistory, purchaseHistory []string, catalog []*core.Product) []*core.Item {
	seen := excludeIDs(append(append([]string{}, viewHistory...), purchaseHistory...)...)
	index := core.IndexProducts(catalog)

	purchased := resolve(index, purchaseHistory)
	viewed := resolve(index, viewHistory)
	n := float64(len(viewHistory))

	return scoreCatalog(catalog, seen, "personalized", m.Name(), func(c *core.Product) float64 {
		var score float64
		for _, p := range purchased {
			score += PurchaseWeight * m.Score(p.product, c)
		}
		for _, v := range viewed {
			score += m.Score(v.product, c) * (1 + (n-float64(v.index))/n)
		}
		return score
	})
}

type positioned struct {
	index   int
	product *core.Product
}

// resolve 把 ID 列表映射为商品，保留原始位置以计算时间衰减权重。
func resolve(index map[string]*core.Product, ids []string) []positioned {
	out := make([]positioned, 0, len(ids))
	for i, id := range ids {
		if p, ok := index[id]; ok {
			out = append(out, positioned{index: i, product: p})
		}
	}
	return out
}

// RecentlyViewed 把浏览历史映射为商品，保持最近浏览在前的顺序，
// 丢弃目录中不存在的 ID，至多返回 limit 个。
func RecentlyViewed(viewHistory []string, catalog []*core.Product, limit int) []*core.Product {
	return rankProducts(recentlyViewedItems(viewHistory, catalog), limit)
}

func recentlyViewedItems(viewHistory []string, catalog []*core.Product) []*core.Item {
	index := core.IndexProducts(catalog)
	n := len(viewHistory)
	out := make([]*core.Item, 0, n)
	seen := make(map[string]struct{}, n)
	for i, id := range viewHistory {
		p, ok := index[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		it := core.NewItem(p)
		// 越靠前分数越高，排序后仍保持历史顺序
		it.Score = float64(n - i)
		out = append(out, it)
	}
	return out
}

// UserHistory 是基于访客浏览历史的召回源，历史取自 rctx.ViewHistory。
//
// Mode:
//   - "recent"（默认）：直接返回最近浏览过的商品
//   - "personalized"：按浏览/购买历史做内容相似度加权，历史为空时退化为 trending
type UserHistory struct {
	Mode  string
	Model model.PairModel
}

const (
	HistoryModeRecent       = "recent"
	HistoryModePersonalized = "personalized"
)

func (r *UserHistory) Name() string {
	if r.Mode == HistoryModePersonalized {
		return "recall.personalized"
	}
	return "recall.recently_viewed"
}

func (r *UserHistory) Kind() pipeline.Kind {
	return pipeline.KindRecall
}

func (r *UserHistory) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *UserHistory) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if rctx == nil {
		return nil, nil
	}

	if r.Mode != HistoryModePersonalized {
		if rctx.UserID == "" {
			return nil, nil
		}
		items := recentlyViewedItems(rctx.ViewHistory, rctx.Catalog)
		for _, it := range items {
			it.PutLabel(utils.LabelRecallSource, labelRecall("recently-viewed"))
		}
		return items, nil
	}

	if len(rctx.ViewHistory) == 0 && len(rctx.PurchaseHistory) == 0 {
		return trendingItems(rctx.Catalog, nil, rctx.RandOrDefault()), nil
	}
	m := r.Model
	if m == nil {
		m = model.DefaultContentModel()
	}
	return personalizedItems(m, rctx.ViewHistory, rctx.PurchaseHistory, rctx.Catalog), nil
}
