package rerank

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// CategoryPrimaryTag 表示以商品的第一个 tag 作为类别。
const CategoryPrimaryTag = "primary_tag"

// Diversity 是一个简单的多样性 ReRank：同一类别最多保留 MaxPerCategory 个（按输入顺序）。
// 类别来源优先级：
// - label[LabelKey].Value
// - LabelKey 为 "primary_tag" 时取 Product.Tags[0]
//
// 没有类别的商品总是保留。
type Diversity struct {
	LabelKey       string // 默认 "primary_tag"
	MaxPerCategory int    // 默认 1
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	key := n.LabelKey
	if key == "" {
		key = CategoryPrimaryTag
	}
	maxPer := n.MaxPerCategory
	if maxPer <= 0 {
		maxPer = 1
	}

	seen := make(map[string]int, 32)
	out := make([]*core.Item, 0, len(items))

	for _, it := range items {
		if it == nil {
			continue
		}

		cate := category(it, key)
		if cate == "" {
			out = append(out, it)
			continue
		}
		if seen[cate] >= maxPer {
			continue
		}
		seen[cate]++
		out = append(out, it)
	}

	return out, nil
}

func category(it *core.Item, key string) string {
	if lbl, ok := it.Labels[key]; ok && lbl.Value != "" {
		return lbl.Value
	}
	if key == CategoryPrimaryTag && it.Product != nil && len(it.Product.Tags) > 0 {
		return it.Product.Tags[0]
	}
	return ""
}
