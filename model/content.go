package model

import (
	"math"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/similarity"
)

// ContentWeights 是内容相似度四个分量的权重，默认之和为 1。
type ContentWeights struct {
	Tags        float64 `json:"tags" yaml:"tags"`
	Price       float64 `json:"price" yaml:"price"`
	Name        float64 `json:"name" yaml:"name"`
	Description float64 `json:"description" yaml:"description"`
}

// ContentModel 实现基于商品内容的相似度。
//
// 打分原理（加权求和）：
//  1. tags:        Jaccard(tags1, tags2)
//  2. price:       max(0, 1 - |p1-p2| / avg(p1,p2))
//  3. name:        Jaccard(tokens(name1), tokens(name2))
//  4. description: Jaccard(tokens(desc1), tokens(desc2))
//
// 每个分量都在 [0,1] 且对称，权重之和为 1 时总分也在 [0,1]，且 Score(a,b) == Score(b,a)。
type ContentModel struct {
	Weights ContentWeights
}

// DefaultContentWeights 返回默认权重：tags 0.5 / price 0.3 / name 0.1 / description 0.1。
func DefaultContentWeights() ContentWeights {
	return ContentWeights{Tags: 0.5, Price: 0.3, Name: 0.1, Description: 0.1}
}

func DefaultContentModel() *ContentModel {
	return &ContentModel{Weights: DefaultContentWeights()}
}

func (m *ContentModel) Name() string { return "content" }

func (m *ContentModel) Score(a, b *core.Product) float64 {
	if a == nil || b == nil {
		return 0
	}
	w := m.Weights
	return w.Tags*similarity.Jaccard(a.Tags, b.Tags) +
		w.Price*PriceSimilarity(a.Price, b.Price) +
		w.Name*similarity.Jaccard(similarity.Tokenize(a.Name), similarity.Tokenize(b.Name)) +
		w.Description*similarity.Jaccard(similarity.Tokenize(a.Description), similarity.Tokenize(b.Description))
}

// PriceSimilarity 按相对价差计算价格接近度，价格相等（含都为 0）时为 1，下限为 0。
func PriceSimilarity(p1, p2 float64) float64 {
	diff := math.Abs(p1 - p2)
	if diff == 0 {
		return 1
	}
	avg := (p1 + p2) / 2
	if avg <= 0 {
		return 0
	}
	return math.Max(0, 1-diff/avg)
}

var defaultContent = DefaultContentModel()

// ProductSimilarity 使用默认权重计算两个商品的内容相似度。
func ProductSimilarity(a, b *core.Product) float64 {
	return defaultContent.Score(a, b)
}

var _ PairModel = (*ContentModel)(nil)
