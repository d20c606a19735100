package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rushteam/shoprec/core"
)

func testProducts() []*core.Product {
	return []*core.Product{
		{ID: "1", Name: "Organic Facial Serum", Price: 29.99, Description: "A lightweight serum for daily glow.",
			Tags: []string{"Plant-Based", "Dermatologist-Tested", "Cruelty-Free", "Vegan", "Eco-Friendly"}},
		{ID: "2", Name: "Hydrating Face Cream", Price: 34.99, Description: "Rich cream for daily hydration.",
			Tags: []string{"Vegan", "Cruelty-Free", "Hydrating"}},
		{ID: "3", Name: "Bamboo Scrub", Price: 0, Description: "",
			Tags: nil},
		{ID: "4", Name: "Free Sample", Price: 0, Description: "Free sample",
			Tags: []string{"Sample"}},
	}
}

func TestProductSimilarity_Self(t *testing.T) {
	for _, p := range testProducts() {
		if len(p.Tags) == 0 || p.Description == "" {
			// 空集合的 Jaccard 为 0，自相似度不满分
			continue
		}
		assert.InDelta(t, 1.0, ProductSimilarity(p, p), 1e-12, "product %s", p.ID)
	}
}

func TestProductSimilarity_Symmetric(t *testing.T) {
	ps := testProducts()
	for _, a := range ps {
		for _, b := range ps {
			assert.InDelta(t, ProductSimilarity(a, b), ProductSimilarity(b, a), 1e-12, "%s vs %s", a.ID, b.ID)
		}
	}
}

func TestProductSimilarity_Bounds(t *testing.T) {
	ps := testProducts()
	for _, a := range ps {
		for _, b := range ps {
			s := ProductSimilarity(a, b)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0+1e-12)
		}
	}
}

func TestProductSimilarity_Components(t *testing.T) {
	ps := testProducts()
	// tags: {Vegan, Cruelty-Free} / 6 个并集
	tags := 2.0 / 6.0
	price := 1 - 5.0/32.49
	// name: 无共同 token；description: {for, daily} / 9 个并集
	desc := 2.0 / 9.0
	want := 0.5*tags + 0.3*price + 0.1*0 + 0.1*desc
	assert.InDelta(t, want, ProductSimilarity(ps[0], ps[1]), 1e-9)
}

func TestPriceSimilarity(t *testing.T) {
	tests := []struct {
		name   string
		p1, p2 float64
		want   float64
	}{
		{name: "equal", p1: 10, p2: 10, want: 1},
		{name: "both zero", p1: 0, p2: 0, want: 1},
		{name: "one zero floors at 0", p1: 0, p2: 10, want: 0},
		{name: "double price", p1: 10, p2: 20, want: 1 - 10.0/15.0},
		{name: "far apart floors at 0", p1: 1, p2: 100, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PriceSimilarity(tt.p1, tt.p2), 1e-12)
			assert.InDelta(t, tt.want, PriceSimilarity(tt.p2, tt.p1), 1e-12)
		})
	}
}

func TestContentModel_CustomWeights(t *testing.T) {
	ps := testProducts()
	m := &ContentModel{Weights: ContentWeights{Tags: 1}}
	assert.Equal(t, "content", m.Name())
	assert.InDelta(t, 2.0/6.0, m.Score(ps[0], ps[1]), 1e-12)
	assert.Equal(t, 0.0, m.Score(nil, ps[1]))
}
