package engine

import (
	"github.com/rushteam/shoprec/core"
)

// 推荐策略名，同时也是默认 Pipeline 的名称。
const (
	StrategySimilar        = "similar"
	StrategyPopular        = "popular"
	StrategyTrending       = "trending"
	StrategyBoughtTogether = "frequently-bought-together"
	StrategyRecentlyViewed = "recently-viewed"
	StrategyPersonalized   = "personalized"
	StrategyCollaborative  = "collaborative"
	StrategyBlended        = "blended"
)

// Strategies 返回全部内置策略。
func Strategies() []string {
	return []string{
		StrategySimilar,
		StrategyPopular,
		StrategyTrending,
		StrategyBoughtTogether,
		StrategyRecentlyViewed,
		StrategyPersonalized,
		StrategyCollaborative,
		StrategyBlended,
	}
}

// 各策略必需的请求参数。
const (
	needProduct = 1 << iota
	needUser
)

var strategyNeeds = map[string]int{
	StrategySimilar:        needProduct,
	StrategyBoughtTogether: needProduct,
	StrategyCollaborative:  needProduct,
	StrategyRecentlyViewed: needUser,
	StrategyPersonalized:   needUser,
}

// usesHistory 表示策略需要在请求开始时装载浏览/购买历史。
var usesHistory = map[string]bool{
	StrategyRecentlyViewed: true,
	StrategyPersonalized:   true,
	StrategyBlended:        true,
}

// ValidateStrategy 检查策略名是否已知。空字符串视为 popular。
func ValidateStrategy(name string) error {
	if name == "" {
		return nil
	}
	for _, s := range Strategies() {
		if s == name {
			return nil
		}
	}
	return core.ErrInvalidStrategy
}

// resolve 返回实际执行的 Pipeline 名称：
// 缺少必需参数或未知的策略一律退回 popular。
func (e *Engine) resolve(req Request) string {
	name := req.Strategy
	if _, ok := e.pipelines[name]; !ok {
		return StrategyPopular
	}
	needs := strategyNeeds[name]
	if needs&needProduct != 0 && req.ProductID == "" {
		return StrategyPopular
	}
	if needs&needUser != 0 && req.UserID == "" {
		return StrategyPopular
	}
	return name
}
