package rank

import (
	"context"
	"strconv"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// SortNode 按召回打分降序稳定排序，同分保持召回（目录）顺序。
// 写入 labels：rank_position（从 1 开始）
type SortNode struct {
	// Ascending 为 true 时按分数升序
	Ascending bool
}

func (n *SortNode) Name() string        { return "rank.sort" }
func (n *SortNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *SortNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}

	core.SortByScore(out)
	if n.Ascending {
		reverseStable(out)
	}
	for i, it := range out {
		it.PutLabel(utils.LabelRankPosition, utils.Label{Value: strconv.Itoa(i + 1), Source: "rank"})
	}
	return out, nil
}

// reverseStable 把降序结果翻转为升序，同分段内保持原有顺序。
func reverseStable(items []*core.Item) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	for start := 0; start < len(items); {
		end := start + 1
		for end < len(items) && items[end].Score == items[start].Score {
			end++
		}
		for i, j := start, end-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
		start = end
	}
}
