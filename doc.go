// Package shoprec 是店面商品推荐服务。
//
// 设计要点：
// - Pipeline-first: 每个推荐策略是一条 Node 链（Recall → Filter → Rank → ReRank）
// - Labels-first: recall_source / rank_position 等 label 全链路透传，便于解释与观测
// - 引擎显式构造：缓存、浏览历史、目录来源都通过 Option 注入，无进程级单例
//
// 最小用法：
//
//	e, _ := shoprec.NewEngine(catalog.NewDemo())
//	products := e.GetRecommendations(ctx, shoprec.Request{Strategy: "similar", ProductID: "1"})
package shoprec

import (
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/engine"
	"github.com/rushteam/shoprec/pipeline"
)

// 轻量 facade：便于直接 import "shoprec" 使用核心抽象。
type (
	Engine   = engine.Engine
	Request  = engine.Request
	Option   = engine.Option
	Product  = core.Product
	Pipeline = pipeline.Pipeline
	Node     = pipeline.Node
	Kind     = pipeline.Kind
)

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindRank   = pipeline.KindRank
	KindReRank = pipeline.KindReRank
)

// NewEngine 等同于 engine.New。
func NewEngine(catalog core.CatalogProvider, opts ...Option) (*Engine, error) {
	return engine.New(catalog, opts...)
}
