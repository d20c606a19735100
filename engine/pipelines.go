package engine

import (
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/rank"
	"github.com/rushteam/shoprec/recall"
	"github.com/rushteam/shoprec/rerank"
)

// DefaultPipelines 返回内置策略的 Pipeline：recall -> filter -> rank.sort -> rerank.topn。
// 只有以某个商品为主体的策略（similar、frequently-bought-together、collaborative）排除主体商品；
// popular、trending、recently-viewed 等与请求里的 ProductID 无关，主体商品照常出现。
// inStockOnly 为 true 时额外过滤缺货商品。
func DefaultPipelines(inStockOnly bool) map[string]*pipeline.Pipeline {
	filters := func(fs ...filter.Filter) pipeline.Node {
		if inStockOnly {
			fs = append(fs, &filter.InStockFilter{})
		}
		return filter.NewNode(fs...)
	}
	ranked := func(name string, src pipeline.Node, fs ...filter.Filter) *pipeline.Pipeline {
		return pipeline.New(name, src, filters(fs...), &rank.SortNode{}, &rerank.TopNNode{})
	}
	subject := &filter.ExcludeSubjectFilter{}

	return map[string]*pipeline.Pipeline{
		StrategySimilar:        ranked(StrategySimilar, &recall.Similar{}, subject),
		StrategyBoughtTogether: ranked(StrategyBoughtTogether, &recall.BoughtTogether{}, subject),
		StrategyCollaborative:  ranked(StrategyCollaborative, &recall.CollaborativeFiltering{}, subject),
		StrategyPopular:        ranked(StrategyPopular, &recall.Popular{}),
		StrategyTrending:       ranked(StrategyTrending, &recall.Trending{}),
		StrategyRecentlyViewed: ranked(StrategyRecentlyViewed, &recall.UserHistory{Mode: recall.HistoryModeRecent}),
		StrategyPersonalized:   ranked(StrategyPersonalized, &recall.UserHistory{Mode: recall.HistoryModePersonalized}),

		// blended：个性化、热门、趋势并发召回，按优先级去重合并，不再重排
		StrategyBlended: pipeline.New(StrategyBlended,
			&recall.Fanout{
				Sources: []recall.Source{
					&recall.UserHistory{Mode: recall.HistoryModePersonalized},
					&recall.Popular{},
					&recall.Trending{},
				},
				Dedup:         true,
				MergeStrategy: recall.MergePriority,
			},
			filters(filter.NewExposedFilter()),
			&rerank.TopNNode{},
		),
	}
}
