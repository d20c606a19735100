package recall

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/model"
	"github.com/rushteam/shoprec/pipeline"
)

// FindSimilarProducts 返回与 target 内容最相似的至多 limit 个商品（不含 target 自身），
// 按相似度降序排列，同分保持目录顺序。
func FindSimilarProducts(target *core.Product, catalog []*core.Product, limit int) []*core.Product {
	if target == nil {
		return nil
	}
	return rankProducts(similarItems(model.DefaultContentModel(), target, catalog), limit)
}

func similarItems(m model.PairModel, target *core.Product, catalog []*core.Product) []*core.Item {
	return scoreCatalog(catalog, excludeIDs(target.ID), "similar", m.Name(), func(c *core.Product) float64 {
		return m.Score(target, c)
	})
}

// Similar 是基于内容相似度的召回源：以请求的主体商品为中心，对目录中其余商品打分。
// 主体商品为空或不在目录中时返回空结果。
type Similar struct {
	// Model 为空时使用默认内容相似度（tags 0.5 / price 0.3 / name 0.1 / description 0.1）
	Model model.PairModel
}

func (r *Similar) Name() string        { return "recall.similar" }
func (r *Similar) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Similar) Process(ctx context.Context, rctx *core.RecommendContext, _ []*core.Item) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Similar) Recall(_ context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	target, ok := rctx.Subject()
	if !ok {
		return nil, nil
	}
	m := r.Model
	if m == nil {
		m = model.DefaultContentModel()
	}
	return similarItems(m, target, rctx.Catalog), nil
}
