package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该商品就会被过滤掉。
type FilterNode struct {
	Filters []Filter

	// FailClosed 为 true 时，过滤器出错即过滤该商品；默认忽略出错的过滤器
	FailClosed bool
}

// NewNode 用给定过滤器创建 FilterNode。
func NewNode(filters ...Filter) *FilterNode {
	return &FilterNode{Filters: filters}
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		reason := ""
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				if n.FailClosed {
					reason = f.Name()
					break
				}
				// 过滤器错误时不中断流程
				continue
			}
			if ok {
				reason = f.Name()
				break
			}
		}

		if reason != "" {
			// 记录过滤原因，用于调试/观测；过滤器已写入具体规则时不再覆盖
			if _, tagged := item.Labels[utils.LabelFiltered]; !tagged {
				item.PutLabel(utils.LabelFiltered, utils.Label{Value: "true", Source: reason})
			}
			continue
		}
		out = append(out, item)
	}

	return out, nil
}
