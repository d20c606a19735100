package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/dsl"
)

// ExprFilter 用 CEL 表达式声明保留条件：表达式为 true 的商品保留，false 的被过滤。
//
// 例如只推荐 50 元以下且有货的商品：
//
//	product.price < 50.0 && product.in_stock
type ExprFilter struct {
	program *dsl.Program
}

// NewExprFilter 编译表达式并创建过滤器。
func NewExprFilter(expr string) (*ExprFilter, error) {
	p, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{program: p}, nil
}

func (f *ExprFilter) Name() string { return "filter.expr" }

// Expr 返回表达式原文。
func (f *ExprFilter) Expr() string { return f.program.String() }

func (f *ExprFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	keep, err := f.program.Eval(item, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
