package builders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/config"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/engine"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/rank"
	"github.com/rushteam/shoprec/recall"
	"github.com/rushteam/shoprec/store"
)

func TestRegisteredTypes(t *testing.T) {
	types := config.SupportedTypes()
	for _, want := range []string{
		"recall.similar", "recall.popular", "recall.trending", "recall.collaborative",
		"recall.bought_together", "recall.recently_viewed", "recall.personalized",
		"recall.fanout", "filter", "rank.sort", "rank.popularity_boost", "rank.lr",
		"rerank.topn", "rerank.diversity",
	} {
		assert.Contains(t, types, want)
	}
}

func TestValidatePipelineConfig(t *testing.T) {
	cfg, err := pipeline.ParseYAML([]byte(`
pipelines:
  - name: x
    nodes:
      - type: recall.popular
      - type: rank.dnn
`))
	require.NoError(t, err)
	err = config.ValidatePipelineConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rank.dnn")
}

func TestLoadPipelines_ExampleFile(t *testing.T) {
	pipelines, err := config.LoadPipelines("../../configs/pipelines.yaml")
	require.NoError(t, err)
	require.Contains(t, pipelines, "similar-in-stock")
	require.Contains(t, pipelines, "budget")
	require.Contains(t, pipelines, "blended-fast")

	ctx := context.Background()
	products := catalog.DemoProducts()

	items, err := pipelines["similar-in-stock"].Run(ctx, &core.RecommendContext{ProductID: "1", Limit: 3, Catalog: products}, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(items), 3)
	for _, it := range items {
		assert.NotEqual(t, "1", it.ID)
		assert.True(t, it.Product.InStock)
	}

	items, err = pipelines["budget"].Run(ctx, &core.RecommendContext{Limit: 10, Catalog: products}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, items)
	for _, it := range items {
		assert.Less(t, it.Product.Price, 30.0)
		assert.True(t, it.Product.InStock)
	}

	fanout, ok := pipelines["blended-fast"].Nodes[0].(*recall.Fanout)
	require.True(t, ok)
	assert.Equal(t, 200*time.Millisecond, fanout.Timeout)
	assert.Len(t, fanout.Sources, 3)
}

// 示例文件只新增策略，内置策略的结果必须与纯函数实现一致。
func TestLoadPipelines_ExampleFileKeepsBuiltins(t *testing.T) {
	pipelines, err := config.LoadPipelines("../../configs/pipelines.yaml")
	require.NoError(t, err)
	for _, name := range engine.Strategies() {
		assert.NotContains(t, pipelines, name)
	}

	products := catalog.DemoProducts()
	e, err := engine.New(catalog.NewMemory(products), engine.WithPipelines(pipelines))
	require.NoError(t, err)

	ctx := context.Background()
	for _, target := range products {
		got := e.GetRecommendations(ctx, engine.Request{Strategy: engine.StrategySimilar, ProductID: target.ID, Limit: 5})
		want := recall.FindSimilarProducts(target, products, 5)
		assert.Equal(t, productIDs(want), productIDs(got), "target=%s", target.ID)
	}
}

func productIDs(ps []*core.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestBuildSource(t *testing.T) {
	src, err := BuildSource("similar", map[string]any{
		"content_weights": map[string]any{"tags": 1, "price": 0.0},
	})
	require.NoError(t, err)
	sim := src.(*recall.Similar)
	require.NotNil(t, sim.Model)

	_, err = BuildSource("ann", nil)
	assert.Error(t, err)

	// 每种召回源都能作为 Pipeline 节点构建
	factory := config.DefaultFactory()
	for _, typ := range sourceTypes {
		n, err := factory.Build("recall."+typ, map[string]any{})
		require.NoError(t, err, typ)
		assert.Equal(t, pipeline.KindRecall, n.Kind(), typ)
	}

	_, err = BuildSource("similar", map[string]any{"content_weights": "heavy"})
	assert.Error(t, err)
}

func TestBuildFanoutNode(t *testing.T) {
	tests := []struct {
		name    string
		cfg     map[string]any
		wantErr bool
	}{
		{name: "ok", cfg: map[string]any{"sources": []any{map[string]any{"type": "popular"}}, "timeout": 1}},
		{name: "no sources", cfg: map[string]any{}, wantErr: true},
		{name: "bad source", cfg: map[string]any{"sources": []any{map[string]any{"type": "nope"}}}, wantErr: true},
		{name: "bad merge", cfg: map[string]any{"sources": []any{map[string]any{"type": "popular"}}, "merge_strategy": "zip"}, wantErr: true},
		{name: "bad timeout", cfg: map[string]any{"sources": []any{map[string]any{"type": "popular"}}, "timeout": "soon"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := BuildFanoutNode(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			f := n.(*recall.Fanout)
			assert.Equal(t, time.Second, f.Timeout)
			assert.Equal(t, recall.MergePriority, f.MergeStrategy)
			assert.True(t, f.Dedup)
		})
	}
}

func TestFilterBuilder(t *testing.T) {
	_, err := FilterBuilder(nil)(map[string]any{})
	assert.Error(t, err)

	_, err = FilterBuilder(nil)(map[string]any{"filters": []any{map[string]any{"type": "user_block"}}})
	assert.Error(t, err)

	_, err = FilterBuilder(nil)(map[string]any{"filters": []any{map[string]any{"type": "expr", "expr": "product.price <"}}})
	assert.Error(t, err)

	_, err = FilterBuilder(nil)(map[string]any{"filters": []any{map[string]any{"type": "blacklist", "key": "bl"}}})
	assert.Error(t, err, "store-backed blacklist needs a store")

	_, err = FilterBuilder(nil)(map[string]any{"filters": []any{map[string]any{"type": "blacklist", "refresh": "later"}}})
	assert.Error(t, err)

	n, err := FilterBuilder(nil)(map[string]any{"filters": []any{
		map[string]any{"type": "blacklist", "tags": []any{"Discontinued"}, "refresh": "30s"},
	}})
	require.NoError(t, err)
	bl := n.(*filter.FilterNode).Filters[0].(*filter.BlacklistFilter)
	assert.Equal(t, []string{"Discontinued"}, bl.Tags)
	assert.Equal(t, 30*time.Second, bl.Refresh)
}

func TestFilterBuilder_StoreBlacklist(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(store.WithCleanupInterval(0))
	defer s.Close()
	adapter := filter.NewStoreAdapter(s)
	require.NoError(t, adapter.SetBlacklist(ctx, "shoprec:blacklist", []string{"2"}))

	node, err := FilterBuilder(adapter)(map[string]any{
		"filters": []any{
			map[string]any{"type": "blacklist", "item_ids": []any{"3"}, "key": "shoprec:blacklist"},
		},
	})
	require.NoError(t, err)

	items := make([]*core.Item, 0)
	for _, p := range catalog.DemoProducts() {
		items = append(items, core.NewItem(p))
	}
	out, err := node.Process(ctx, &core.RecommendContext{}, items)
	require.NoError(t, err)
	var ids []string
	for _, it := range out {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"1", "4", "5", "6"}, ids)
}

func TestBuildLRNode(t *testing.T) {
	n, err := BuildLRNode(map[string]any{"bias": -1, "weights": map[string]any{"rating": 0.5, "recall_score": 2}})
	require.NoError(t, err)
	lr := n.(*rank.LRNode)
	assert.Equal(t, -1.0, lr.Model.Bias)
	assert.Equal(t, 2.0, lr.Model.Weights["recall_score"])

	_, err = BuildLRNode(map[string]any{})
	assert.Error(t, err)
	_, err = BuildLRNode(map[string]any{"weights": map[string]any{"rating": "high"}})
	assert.Error(t, err)
	_, err = BuildLRNode(map[string]any{"model_file": "missing.json"})
	assert.Error(t, err)
}
