// Package engine 是推荐服务的编排层：按策略分发到 Pipeline，缓存结果，记录浏览历史。
//
// Engine 是显式构造、可注入的服务对象，缓存是它的字段；
// 同一进程可以创建多个互不影响的 Engine（例如测试中每个用例一个）。
package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/shoprec/cache"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/history"
	"github.com/rushteam/shoprec/metrics"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/store"
)

// Request 是一次推荐请求。ProductID / UserID 按策略可选。
type Request struct {
	Strategy  string
	ProductID string
	UserID    string
	Limit     int
}

// Engine 是推荐引擎。并发安全。
type Engine struct {
	catalog   core.CatalogProvider
	history   *history.Tracker
	purchases core.PurchaseHistory
	pipelines map[string]*pipeline.Pipeline
	cache     *cache.LRU[[]*core.Product]
	observers []core.ViewObserver
	rand      core.RandSource
	log       zerolog.Logger

	defaultLimit int
	maxLimit     int
}

// Option 配置 Engine。
type Option func(*settings)

type settings struct {
	config      core.RecommendConfig
	history     *history.Tracker
	purchases   core.PurchaseHistory
	pipelines   map[string]*pipeline.Pipeline
	observers   []core.ViewObserver
	rand        core.RandSource
	log         zerolog.Logger
	clock       func() time.Time
	inStockOnly bool
}

// WithConfig 设置默认条数、上限与缓存参数。
func WithConfig(c core.RecommendConfig) Option {
	return func(s *settings) { s.config = c }
}

// WithHistory 设置浏览历史 Tracker；默认使用进程内存储，容量取 RecommendConfig.HistoryCap。
func WithHistory(t *history.Tracker) Option {
	return func(s *settings) { s.history = t }
}

// WithPurchaseHistory 设置已购商品来源，personalized 策略使用。
func WithPurchaseHistory(p core.PurchaseHistory) Option {
	return func(s *settings) { s.purchases = p }
}

// WithPipelines 覆盖或新增策略 Pipeline，key 为策略名。
func WithPipelines(p map[string]*pipeline.Pipeline) Option {
	return func(s *settings) { s.pipelines = p }
}

// WithViewObserver 注册浏览观察者。
func WithViewObserver(o core.ViewObserver) Option {
	return func(s *settings) { s.observers = append(s.observers, o) }
}

// WithRand 注入随机源，trending 使用；测试中传入固定种子以获得可复现结果。
func WithRand(r core.RandSource) Option {
	return func(s *settings) { s.rand = r }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithClock 注入缓存使用的时钟。
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.clock = now }
}

// WithInStockOnly 在内置 Pipeline 中过滤缺货商品（默认不过滤）。
func WithInStockOnly(on bool) Option {
	return func(s *settings) { s.inStockOnly = on }
}

// New 创建推荐引擎。
func New(catalog core.CatalogProvider, opts ...Option) (*Engine, error) {
	if catalog == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "engine: nil catalog provider")
	}
	s := settings{
		config: &core.DefaultRecommendConfig{},
		log:    zerolog.Nop(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}

	cfg := s.config
	if s.history == nil {
		// 历史记录没有 TTL，内存存储无需后台清理
		s.history = history.NewTracker(store.NewMemoryStore(store.WithCleanupInterval(0)),
			history.WithCap(cfg.HistoryCap()), history.WithLogger(s.log))
	}

	pipelines := DefaultPipelines(s.inStockOnly)
	for name, p := range s.pipelines {
		if p == nil {
			return nil, fmt.Errorf("engine: nil pipeline %q", name)
		}
		pipelines[name] = p
	}

	e := &Engine{
		catalog:      catalog,
		history:      s.history,
		purchases:    s.purchases,
		pipelines:    pipelines,
		cache:        cache.NewLRU[[]*core.Product](cfg.CacheSize(), cfg.CacheTTL(), cache.WithClock(s.clock)),
		observers:    s.observers,
		rand:         s.rand,
		log:          s.log.With().Str("component", "engine").Logger(),
		defaultLimit: cfg.DefaultLimit(),
		maxLimit:     cfg.MaxLimit(),
	}
	return e, nil
}

// GetRecommendations 返回推荐商品列表，从不返回错误：
// 目录不可用、历史读取失败、Pipeline 出错或 panic 都会被记录日志并转为空结果，且不写入缓存。
//
// 缓存 key 由 (strategy, productID, userID, limit) 组成，
// 有效期内的重复请求直接返回缓存结果，不再拉取目录。
func (e *Engine) GetRecommendations(ctx context.Context, req Request) []*core.Product {
	req.Limit = e.normalizeLimit(req.Limit)
	name := e.resolve(req)
	metrics.RecommendRequests.WithLabelValues(name).Inc()

	key := cacheKey(req)
	if cached, ok := e.cache.Get(key); ok {
		metrics.CacheHits.Inc()
		return append([]*core.Product(nil), cached...)
	}
	metrics.CacheMisses.Inc()

	start := time.Now()
	products, err := e.compute(ctx, name, req)
	metrics.RecommendDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RecommendErrors.WithLabelValues(name).Inc()
		e.log.Error().Err(err).
			Str("strategy", req.Strategy).
			Str("pipeline", name).
			Str("product_id", req.ProductID).
			Str("user_id", req.UserID).
			Msg("recommendation failed, returning empty result")
		return []*core.Product{}
	}

	e.cache.Set(key, products)
	metrics.CacheEntries.Set(float64(e.cache.Len()))
	return append([]*core.Product(nil), products...)
}

// compute 执行 Pipeline；panic 被转换为错误。
func (e *Engine) compute(ctx context.Context, name string, req Request) (out []*core.Product, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = core.NewDomainError(core.ModuleEngine, core.ErrorCodeInternalError, fmt.Sprintf("engine: panic in pipeline %s: %v", name, r))
		}
	}()

	catalog, err := e.catalog.Products(ctx)
	if err != nil {
		if core.IsDomainError(err) {
			return nil, err
		}
		return nil, core.ErrCatalogUnavailable.Wrap(err)
	}

	rctx := &core.RecommendContext{
		Strategy:  name,
		ProductID: req.ProductID,
		UserID:    req.UserID,
		Limit:     req.Limit,
		Catalog:   catalog,
		Rand:      e.rand,
	}
	if usesHistory[name] && req.UserID != "" {
		if rctx.ViewHistory, err = e.history.Recent(ctx, req.UserID); err != nil {
			return nil, err
		}
		if e.purchases != nil {
			if rctx.PurchaseHistory, err = e.purchases.Purchases(ctx, req.UserID); err != nil {
				return nil, fmt.Errorf("load purchases: %w", err)
			}
		}
	}

	items, err := e.pipelines[name].Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}
	return core.Products(core.TopN(items, req.Limit)), nil
}

// TrackProductView 记录访客浏览了某商品：移除旧记录、插到最前、截断后持久化，
// 成功后通知观察者。
func (e *Engine) TrackProductView(ctx context.Context, userID, productID string) error {
	ids, err := e.history.Track(ctx, userID, productID)
	if err != nil {
		e.log.Warn().Err(err).Str("user_id", userID).Str("product_id", productID).Msg("track product view failed")
		return err
	}
	metrics.ProductViews.Inc()
	e.log.Debug().Str("user_id", userID).Str("product_id", productID).Int("history_len", len(ids)).Msg("product view tracked")

	ev := core.ViewEvent{UserID: userID, ProductID: productID, At: time.Now()}
	for _, o := range e.observers {
		o.ProductViewed(ctx, ev)
	}
	return nil
}

// RecentlyViewed 返回访客的浏览历史（商品 ID，最近在前）。
func (e *Engine) RecentlyViewed(ctx context.Context, userID string) ([]string, error) {
	return e.history.Recent(ctx, userID)
}

// Cache 返回结果缓存，用于后台清理与观测。
func (e *Engine) Cache() *cache.LRU[[]*core.Product] { return e.cache }

// PurgeCache 清空结果缓存（例如目录整体替换后）。
func (e *Engine) PurgeCache() {
	e.cache.Purge()
	metrics.CacheEntries.Set(0)
}

// Pipelines 返回已注册的策略名。
func (e *Engine) Pipelines() []string {
	out := make([]string, 0, len(e.pipelines))
	for name := range e.pipelines {
		out = append(out, name)
	}
	return out
}

func (e *Engine) normalizeLimit(limit int) int {
	if limit <= 0 {
		limit = e.defaultLimit
	}
	if e.maxLimit > 0 && limit > e.maxLimit {
		limit = e.maxLimit
	}
	return limit
}

func cacheKey(req Request) string {
	return strings.Join([]string{req.Strategy, req.ProductID, req.UserID, strconv.Itoa(req.Limit)}, "|")
}
