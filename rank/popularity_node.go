package rank

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// PopularityBoostNode 在召回分上叠加热度加权：score += Weight * rating * reviews / MaxPopularity。
// 热度按本批候选中的最大值归一化到 [0, Weight]，只改分不排序，需接 SortNode。
type PopularityBoostNode struct {
	Weight float64
}

func (n *PopularityBoostNode) Name() string        { return "rank.popularity_boost" }
func (n *PopularityBoostNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *PopularityBoostNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Weight == 0 || len(items) == 0 {
		return items, nil
	}

	var maxPop float64
	for _, it := range items {
		if it != nil && it.Product.Popularity() > maxPop {
			maxPop = it.Product.Popularity()
		}
	}
	if maxPop == 0 {
		return items, nil
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		it.Score += n.Weight * it.Product.Popularity() / maxPop
		it.PutLabel("rank_model", utils.Label{Value: "popularity_boost", Source: "rank"})
	}
	return items, nil
}
