package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/utils"
)

func testItem() *core.Item {
	it := core.NewItem(&core.Product{
		ID:      "1",
		Name:    "Organic Facial Serum",
		Price:   29.99,
		Rating:  4.8,
		Reviews: 124,
		Tags:    []string{"Vegan", "Cruelty-Free"},
		InStock: true,
	})
	it.Score = 0.75
	it.PutLabel(utils.LabelRecallSource, utils.Label{Value: "similar", Source: "recall"})
	return it
}

func TestProgram_Eval(t *testing.T) {
	rctx := &core.RecommendContext{Strategy: "similar", UserID: "u1", Limit: 3}

	tests := []struct {
		expr string
		want bool
	}{
		{expr: "product.price < 50.0", want: true},
		{expr: "product.price < 20.0", want: false},
		{expr: "product.in_stock && product.rating >= 4.5", want: true},
		{expr: `"Vegan" in product.tags`, want: true},
		{expr: `"Organic" in product.tags`, want: false},
		{expr: "product.reviews > 100", want: true},
		{expr: "item.score > 0.7", want: true},
		{expr: `label.recall_source == "similar"`, want: true},
		{expr: `"rank_position" in label`, want: false},
		{expr: `rctx.strategy == "similar" && rctx.limit == 3`, want: true},
		{expr: `rctx.user_id != ""`, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := Compile(tt.expr)
			require.NoError(t, err)
			got, err := p.Eval(testItem(), rctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	_, err := Compile("product.price <")
	assert.Error(t, err)

	_, err = Compile(`"not a bool"`)
	assert.Error(t, err)

	assert.Panics(t, func() { MustCompile("((") })
}

func TestEvaluate(t *testing.T) {
	ok, err := Evaluate("", nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Evaluate("product.price > 10.0", testItem(), nil)
	require.NoError(t, err)
	assert.True(t, ok)

	// 缺失的 label 访问在执行期报错
	_, err = Evaluate(`label.missing == "x"`, testItem(), nil)
	assert.Error(t, err)
}
