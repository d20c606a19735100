package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/model"
	"github.com/rushteam/shoprec/pipeline"
)

func ids(ps []*core.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

// countingCatalog 记录目录被拉取的次数，用于断言缓存命中。
type countingCatalog struct {
	calls atomic.Int32
	err   error
}

func (c *countingCatalog) Products(context.Context) ([]*core.Product, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return catalog.DemoProducts(), nil
}

type panicNode struct{}

func (panicNode) Name() string        { return "test.panic" }
func (panicNode) Kind() pipeline.Kind { return pipeline.KindRecall }
func (panicNode) Process(context.Context, *core.RecommendContext, []*core.Item) ([]*core.Item, error) {
	panic("boom")
}

type recordingObserver struct {
	mu     sync.Mutex
	events []core.ViewEvent
}

func (o *recordingObserver) ProductViewed(_ context.Context, ev core.ViewEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, ev)
}

func newEngine(t *testing.T, provider core.CatalogProvider, opts ...Option) *Engine {
	t.Helper()
	e, err := New(provider, opts...)
	require.NoError(t, err)
	return e
}

func TestNew_NilCatalog(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))
}

func TestGetRecommendations_Popular(t *testing.T) {
	e := newEngine(t, catalog.NewDemo())
	got := e.GetRecommendations(context.Background(), Request{Strategy: StrategyPopular})
	assert.Equal(t, []string{"1", "2", "3"}, ids(got))
}

func TestGetRecommendations_Similar(t *testing.T) {
	e := newEngine(t, catalog.NewDemo())
	got := e.GetRecommendations(context.Background(), Request{Strategy: StrategySimilar, ProductID: "1"})
	require.Len(t, got, 3)
	assert.NotContains(t, ids(got), "1")

	target, _ := core.FindProduct(catalog.DemoProducts(), "1")
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t,
			model.ProductSimilarity(target, got[i-1]),
			model.ProductSimilarity(target, got[i]))
	}
}

func TestGetRecommendations_Strategies(t *testing.T) {
	e := newEngine(t, catalog.NewDemo(), WithRand(core.FixedRand{Value: 0}))
	ctx := context.Background()

	tests := []struct {
		name string
		req  Request
		want []string
	}{
		{name: "collaborative", req: Request{Strategy: StrategyCollaborative, ProductID: "1"}, want: []string{"4", "3", "2"}},
		{name: "bought together", req: Request{Strategy: StrategyBoughtTogether, ProductID: "3"}, want: []string{"6", "5", "4"}},
		{name: "trending without noise", req: Request{Strategy: StrategyTrending, Limit: 4}, want: []string{"1", "2", "3", "4"}},
		{name: "unknown strategy falls back to popular", req: Request{Strategy: "nope"}, want: []string{"1", "2", "3"}},
		{name: "empty strategy", req: Request{}, want: []string{"1", "2", "3"}},
		{name: "similar without product", req: Request{Strategy: StrategySimilar}, want: []string{"1", "2", "3"}},
		{name: "recently viewed without user", req: Request{Strategy: StrategyRecentlyViewed}, want: []string{"1", "2", "3"}},
		{name: "similar unknown product", req: Request{Strategy: StrategySimilar, ProductID: "404"}, want: []string{}},
		{name: "limit capped", req: Request{Strategy: StrategyPopular, Limit: 500}, want: []string{"1", "2", "3", "4", "5", "6"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(e.GetRecommendations(ctx, tt.req)))
		})
	}
}

// 只有以商品为主体的策略排除主体商品；其余策略忽略请求里的 ProductID。
func TestGetRecommendations_SubjectExclusion(t *testing.T) {
	e := newEngine(t, catalog.NewDemo(), WithRand(core.FixedRand{Value: 0}))
	ctx := context.Background()
	require.NoError(t, e.TrackProductView(ctx, "u", "5"))
	require.NoError(t, e.TrackProductView(ctx, "u", "2"))

	tests := []struct {
		name string
		req  Request
		want []string
	}{
		{name: "popular keeps subject", req: Request{Strategy: StrategyPopular, ProductID: "1"}, want: []string{"1", "2", "3"}},
		{name: "trending keeps subject", req: Request{Strategy: StrategyTrending, ProductID: "2"}, want: []string{"1", "2", "3"}},
		{name: "recently viewed keeps subject", req: Request{Strategy: StrategyRecentlyViewed, ProductID: "2", UserID: "u"}, want: []string{"2", "5"}},
		{name: "collaborative excludes subject", req: Request{Strategy: StrategyCollaborative, ProductID: "1"}, want: []string{"4", "3", "2"}},
		{name: "bought together excludes subject", req: Request{Strategy: StrategyBoughtTogether, ProductID: "3"}, want: []string{"6", "5", "4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(e.GetRecommendations(ctx, tt.req)))
		})
	}

	got := e.GetRecommendations(ctx, Request{Strategy: StrategySimilar, ProductID: "1", Limit: 10})
	assert.NotContains(t, ids(got), "1")
}

func TestGetRecommendations_InStockOnly(t *testing.T) {
	e := newEngine(t, catalog.NewDemo(), WithInStockOnly(true))
	got := e.GetRecommendations(context.Background(), Request{Strategy: StrategyPopular, Limit: 10})
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(got))
}

func TestGetRecommendations_Cache(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }
	provider := &countingCatalog{}
	e := newEngine(t, provider, WithClock(clock))
	ctx := context.Background()
	req := Request{Strategy: StrategySimilar, ProductID: "2"}

	first := e.GetRecommendations(ctx, req)
	second := e.GetRecommendations(ctx, req)
	assert.Equal(t, ids(first), ids(second))
	assert.Equal(t, int32(1), provider.calls.Load(), "命中缓存时不应再拉取目录")

	// 修改返回的切片不影响缓存
	second[0] = nil
	assert.Equal(t, ids(first), ids(e.GetRecommendations(ctx, req)))

	// 不同 limit 是不同的 key
	e.GetRecommendations(ctx, Request{Strategy: StrategySimilar, ProductID: "2", Limit: 2})
	assert.Equal(t, int32(2), provider.calls.Load())

	now = now.Add(5 * time.Minute)
	e.GetRecommendations(ctx, req)
	assert.Equal(t, int32(3), provider.calls.Load(), "过期后应重新计算")
}

func TestGetRecommendations_CatalogErrorNotCached(t *testing.T) {
	provider := &countingCatalog{err: errors.New("db down")}
	e := newEngine(t, provider)
	ctx := context.Background()

	got := e.GetRecommendations(ctx, Request{Strategy: StrategyPopular})
	require.NotNil(t, got)
	assert.Empty(t, got)

	provider.err = nil
	got = e.GetRecommendations(ctx, Request{Strategy: StrategyPopular})
	assert.Equal(t, []string{"1", "2", "3"}, ids(got))
	assert.Equal(t, int32(2), provider.calls.Load())
}

func TestGetRecommendations_PanicRecovered(t *testing.T) {
	e := newEngine(t, catalog.NewDemo(), WithPipelines(map[string]*pipeline.Pipeline{
		StrategyPopular: pipeline.New(StrategyPopular, panicNode{}),
	}))
	var got []*core.Product
	require.NotPanics(t, func() {
		got = e.GetRecommendations(context.Background(), Request{Strategy: StrategyPopular})
	})
	assert.Empty(t, got)
	assert.Equal(t, 0, e.Cache().Len())
}

func TestNew_NilPipeline(t *testing.T) {
	_, err := New(catalog.NewDemo(), WithPipelines(map[string]*pipeline.Pipeline{"x": nil}))
	assert.Error(t, err)
}

func TestTrackProductView_RecentlyViewed(t *testing.T) {
	obs := &recordingObserver{}
	e := newEngine(t, catalog.NewDemo(), WithViewObserver(obs))
	ctx := context.Background()

	for _, id := range []string{"2", "5", "2", "4"} {
		require.NoError(t, e.TrackProductView(ctx, "visitor-1", id))
	}

	recent, err := e.RecentlyViewed(ctx, "visitor-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "2", "5"}, recent)

	got := e.GetRecommendations(ctx, Request{Strategy: StrategyRecentlyViewed, UserID: "visitor-1", Limit: 10})
	assert.Equal(t, []string{"4", "2", "5"}, ids(got))

	// 其他访客互不影响
	other := e.GetRecommendations(ctx, Request{Strategy: StrategyRecentlyViewed, UserID: "visitor-2"})
	assert.Empty(t, other)

	require.Len(t, obs.events, 4)
	assert.Equal(t, "visitor-1", obs.events[3].UserID)
	assert.Equal(t, "4", obs.events[3].ProductID)
}

func TestTrackProductView_InvalidProduct(t *testing.T) {
	obs := &recordingObserver{}
	e := newEngine(t, catalog.NewDemo(), WithViewObserver(obs))
	err := e.TrackProductView(context.Background(), "v", "")
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))
	assert.Empty(t, obs.events)
}

func TestGetRecommendations_Personalized(t *testing.T) {
	e := newEngine(t, catalog.NewDemo(), WithRand(core.FixedRand{Value: 0.5}))
	ctx := context.Background()
	require.NoError(t, e.TrackProductView(ctx, "u", "1"))

	got := e.GetRecommendations(ctx, Request{Strategy: StrategyPersonalized, UserID: "u", Limit: 5})
	require.Len(t, got, 5)
	assert.NotContains(t, ids(got), "1")
}

func TestGetRecommendations_Blended(t *testing.T) {
	e := newEngine(t, catalog.NewDemo(), WithRand(core.FixedRand{Value: 0}))
	ctx := context.Background()
	require.NoError(t, e.TrackProductView(ctx, "u", "1"))

	got := e.GetRecommendations(ctx, Request{Strategy: StrategyBlended, UserID: "u", Limit: 4})
	require.Len(t, got, 4)
	// 已浏览商品被曝光过滤剔除，结果不重复
	assert.NotContains(t, ids(got), "1")
	seen := map[string]bool{}
	for _, id := range ids(got) {
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
}

func TestValidateStrategy(t *testing.T) {
	for _, s := range Strategies() {
		assert.NoError(t, ValidateStrategy(s))
	}
	assert.NoError(t, ValidateStrategy(""))
	assert.ErrorIs(t, ValidateStrategy("bogus"), core.ErrInvalidStrategy)
}

func TestPurgeCache(t *testing.T) {
	e := newEngine(t, catalog.NewDemo())
	e.GetRecommendations(context.Background(), Request{})
	require.Equal(t, 1, e.Cache().Len())
	e.PurgeCache()
	assert.Equal(t, 0, e.Cache().Len())
	assert.ElementsMatch(t, Strategies(), e.Pipelines())
}
