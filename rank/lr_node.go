package rank

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/model"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// LRNode 用逻辑回归模型重新打分：召回分作为 recall_score 特征输入。
// - 写入 labels：rank_model
// - 只改分不排序，需接 SortNode
type LRNode struct {
	Model *model.LRModel
}

func (n *LRNode) Name() string        { return "rank.lr" }
func (n *LRNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *LRNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Model == nil || len(items) == 0 {
		return items, nil
	}
	for _, it := range items {
		if it == nil {
			continue
		}
		it.Score = n.Model.Predict(model.ProductFeatures(it.Product, it.Score))
		it.PutLabel("rank_model", utils.Label{Value: n.Model.Name(), Source: "rank"})
	}
	return items, nil
}
