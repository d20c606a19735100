package recall

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// CollaborativeFilteringRecommendations 是协同过滤的确定性占位实现：
//
//	score = (seed(productID)*19 + seed(candidateID)*17) mod 97 / 97
//
// 不读取任何用户行为数据，仅保证同样的输入得到同样的排序。
// productID 不在目录中时返回空结果。
func CollaborativeFilteringRecommendations(productID string, catalog []*core.Product, limit int) []*core.Product {
	if _, ok := core.FindProduct(catalog, productID); !ok {
		return []*core.Product{}
	}
	return rankProducts(collaborativeItems(productID, catalog), limit)
}

func collaborativeItems(productID string, catalog []*core.Product) []*core.Item {
	s := seed(productID)
	return scoreCatalog(catalog, excludeIDs(productID), "collaborative", "seeded", func(c *core.Product) float64 {
		return float64((s*19+seed(c.ID)*17)%97) / 97
	})
}

// CollaborativeFiltering 是协同过滤召回源（当前为确定性占位打分）。
type CollaborativeFiltering struct{}

func (r *CollaborativeFiltering) Name() string        { return "recall.collaborative" }
func (r *CollaborativeFiltering) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *CollaborativeFiltering) Process(ctx context.Context, rctx *core.RecommendContext, _ []*core.Item) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *CollaborativeFiltering) Recall(_ context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if _, ok := rctx.Subject(); !ok {
		return nil, nil
	}
	return collaborativeItems(rctx.ProductID, rctx.Catalog), nil
}

// FrequentlyBoughtTogether 返回与 productID 经常一起购买的商品（确定性伪打分）：
//
//	score = (seed(candidateID) * seed(productID)) % 100
//
// productID 不在目录中时返回空结果。
func FrequentlyBoughtTogether(productID string, catalog []*core.Product, limit int) []*core.Product {
	if _, ok := core.FindProduct(catalog, productID); !ok {
		return []*core.Product{}
	}
	return rankProducts(boughtTogetherItems(productID, catalog), limit)
}

func boughtTogetherItems(productID string, catalog []*core.Product) []*core.Item {
	s := seed(productID)
	return scoreCatalog(catalog, excludeIDs(productID), "frequently-bought-together", "seeded", func(c *core.Product) float64 {
		return float64((seed(c.ID) * s) % 100)
	})
}

// BoughtTogether 是“经常一起购买”召回源。
type BoughtTogether struct{}

func (r *BoughtTogether) Name() string        { return "recall.bought_together" }
func (r *BoughtTogether) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *BoughtTogether) Process(ctx context.Context, rctx *core.RecommendContext, _ []*core.Item) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *BoughtTogether) Recall(_ context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if _, ok := rctx.Subject(); !ok {
		return nil, nil
	}
	return boughtTogetherItems(rctx.ProductID, rctx.Catalog), nil
}
