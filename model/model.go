package model

import "github.com/rushteam/shoprec/core"

// PairModel 是商品两两打分的最小抽象：输入两个商品，输出一个可比较的分数。
// 具体实现可以是内容相似度、共现统计，或远程服务。
type PairModel interface {
	Name() string
	Score(a, b *core.Product) float64
}
