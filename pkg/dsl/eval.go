// Package dsl 提供基于 CEL (Common Expression Language) 的推荐表达式，
// 用于在配置中声明商品过滤条件。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/shoprec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("product", cel.DynType),
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译好的布尔表达式，编译一次、多次执行，可并发使用。
//
// 表达式语法（CEL 标准语法）：
//   - 商品字段：product.price < 50.0 / product.in_stock / product.rating >= 4.5
//   - 标签集合："Vegan" in product.tags
//   - 打分：item.score > 0.3
//   - 链路标签：label.recall_source == "similar"
//   - 请求：rctx.strategy == "popular" / rctx.user_id != ""
//
// 注意：访问不存在的 label 会报错，可用 "key" in label 先判断。
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式，语法错误或返回值非 bool 时返回错误。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, fmt.Errorf("compile %q: expression must return bool, got %v", expr, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// MustCompile 同 Compile，出错时 panic，用于包级变量与测试。
func MustCompile(expr string) *Program {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Program) String() string { return p.expr }

// Eval 对单个候选执行表达式。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", p.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("eval %q: expression must return bool, got %T", p.expr, out.Value())
	}
	return result, nil
}

// Evaluate 编译并执行一次表达式，空表达式视为 true。
// 需要反复执行的场景请使用 Compile。
func Evaluate(expr string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if expr == "" {
		return true, nil
	}
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Eval(item, rctx)
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	product := map[string]any{}
	itemVars := map[string]any{}
	labels := map[string]any{}

	if item != nil {
		itemVars["id"] = item.ID
		itemVars["score"] = item.Score
		for k, v := range item.Labels {
			labels[k] = v.Value
		}
		if p := item.Product; p != nil {
			product = map[string]any{
				"id":          p.ID,
				"name":        p.Name,
				"price":       p.Price,
				"rating":      p.Rating,
				"reviews":     int64(p.Reviews),
				"description": p.Description,
				"tags":        stringsOrEmpty(p.Tags),
				"features":    stringsOrEmpty(p.Features),
				"in_stock":    p.InStock,
				"popularity":  p.Popularity(),
			}
		}
	}

	ctxVars := map[string]any{}
	if rctx != nil {
		ctxVars["strategy"] = rctx.Strategy
		ctxVars["product_id"] = rctx.ProductID
		ctxVars["user_id"] = rctx.UserID
		ctxVars["limit"] = int64(rctx.Limit)
		ctxVars["params"] = paramsOrEmpty(rctx.Params)
	}

	return map[string]any{
		"product": product,
		"item":    itemVars,
		"label":   labels,
		"rctx":    ctxVars,
	}
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func paramsOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
