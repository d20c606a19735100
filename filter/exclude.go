package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// ExcludeSubjectFilter 过滤掉请求的主体商品（similar 等策略不推荐自身）。
type ExcludeSubjectFilter struct{}

func (f *ExcludeSubjectFilter) Name() string { return "filter.exclude_subject" }

func (f *ExcludeSubjectFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if item == nil {
		return true, nil
	}
	return rctx != nil && rctx.ProductID != "" && item.ID == rctx.ProductID, nil
}

// InStockFilter 过滤掉缺货商品。
type InStockFilter struct{}

func (f *InStockFilter) Name() string { return "filter.in_stock" }

func (f *InStockFilter) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	if item == nil || item.Product == nil {
		return true, nil
	}
	return !item.Product.InStock, nil
}
