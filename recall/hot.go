package recall

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// TrendingVariance 是 trending 扰动项的幅度：score = popularity * (1 + rnd*TrendingVariance)。
const TrendingVariance = 0.3

// PopularProducts 按 rating*reviews 降序返回至多 limit 个商品。
func PopularProducts(catalog []*core.Product, limit int) []*core.Product {
	return rankProducts(popularItems(catalog, nil), limit)
}

func popularItems(catalog []*core.Product, exclude map[string]struct{}) []*core.Item {
	return scoreCatalog(catalog, exclude, "popular", "popularity", func(c *core.Product) float64 {
		return c.Popularity()
	})
}

// TrendingProductRecommendations 在热度上叠加随机扰动后排序：
//
//	score = rating * reviews * (1 + rnd.Float64()*0.3)
//
// 扰动是“发现新品”的有意设计，同样的目录多次调用顺序可能不同；
// 测试注入固定种子的 rnd 即可复现。rnd 为空时使用默认随机源。
func TrendingProductRecommendations(catalog []*core.Product, limit int, rnd core.RandSource) []*core.Product {
	if rnd == nil {
		rnd = core.DefaultRand()
	}
	return rankProducts(trendingItems(catalog, nil, rnd), limit)
}

func trendingItems(catalog []*core.Product, exclude map[string]struct{}, rnd core.RandSource) []*core.Item {
	return scoreCatalog(catalog, exclude, "trending", "popularity_variance", func(c *core.Product) float64 {
		return c.Popularity() * (1 + rnd.Float64()*TrendingVariance)
	})
}

// Popular 是热门召回源，按 rating*reviews 打分。
type Popular struct{}

func (r *Popular) Name() string        { return "recall.popular" }
func (r *Popular) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Popular) Process(ctx context.Context, rctx *core.RecommendContext, _ []*core.Item) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Popular) Recall(_ context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	return popularItems(rctx.Catalog, nil), nil
}

// Trending 是趋势召回源：热度乘以 [1, 1.3) 的随机系数，随机源取自 rctx.Rand。
type Trending struct{}

func (r *Trending) Name() string        { return "recall.trending" }
func (r *Trending) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Trending) Process(ctx context.Context, rctx *core.RecommendContext, _ []*core.Item) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Trending) Recall(_ context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	return trendingItems(rctx.Catalog, nil, rctx.RandOrDefault()), nil
}
