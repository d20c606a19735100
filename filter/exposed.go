package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// ExposedFilter 是已看过过滤器，过滤掉访客已经浏览或购买过的商品。
// 数据源为请求上下文中的 ViewHistory / PurchaseHistory，由引擎在请求开始时装载。
type ExposedFilter struct {
	// IncludeViews 是否过滤已浏览商品
	IncludeViews bool

	// IncludePurchases 是否过滤已购买商品
	IncludePurchases bool
}

// NewExposedFilter 创建一个同时过滤已浏览与已购买商品的过滤器。
func NewExposedFilter() *ExposedFilter {
	return &ExposedFilter{IncludeViews: true, IncludePurchases: true}
}

func (f *ExposedFilter) Name() string {
	return "filter.exposed"
}

func (f *ExposedFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if rctx == nil {
		return false, nil
	}
	if f.IncludeViews && contains(rctx.ViewHistory, item.ID) {
		return true, nil
	}
	if f.IncludePurchases && contains(rctx.PurchaseHistory, item.ID) {
		return true, nil
	}
	return false, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
