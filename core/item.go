package core

import (
	"sort"

	"github.com/rushteam/shoprec/pkg/utils"
)

// Item 是推荐链路中的统一承载结构：商品、分数、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
type Item struct {
	ID      string
	Score   float64
	Product *Product
	Labels  map[string]utils.Label
}

func NewItem(p *Product) *Item {
	it := &Item{
		Product: p,
		Labels:  make(map[string]utils.Label),
	}
	if p != nil {
		it.ID = p.ID
	}
	return it
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Products 把 items 还原成商品列表，跳过空值。
func Products(items []*Item) []*Product {
	out := make([]*Product, 0, len(items))
	for _, it := range items {
		if it == nil || it.Product == nil {
			continue
		}
		out = append(out, it.Product)
	}
	return out
}

// SortByScore 按 Score 降序稳定排序，同分时保持原有（目录）顺序。
func SortByScore(items []*Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}

// TopN 截取前 n 个；n <= 0 时返回空切片。
func TopN(items []*Item, n int) []*Item {
	if n <= 0 {
		return items[:0]
	}
	if len(items) > n {
		return items[:n]
	}
	return items
}
