package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/metrics"
)

// BreakerConfig 是目录熔断器配置。
type BreakerConfig struct {
	Name             string        `koanf:"name"`
	MaxRequests      uint32        `koanf:"max_requests"`      // half-open 状态允许的探测请求数
	Interval         time.Duration `koanf:"interval"`          // closed 状态下计数清零周期
	Timeout          time.Duration `koanf:"timeout"`           // open 持续多久后进入 half-open
	FailureThreshold uint32        `koanf:"failure_threshold"` // 连续失败多少次后熔断

	// ServeStale 为 true 时，拉取失败返回最近一次成功的快照
	ServeStale bool `koanf:"serve_stale"`
}

// Breaker 用熔断器包装一个目录来源（通常是 MySQL）。
// 熔断打开时直接返回 core.ErrCatalogUnavailable，不再打到下游。
type Breaker struct {
	next core.CatalogProvider
	cb   *gobreaker.CircuitBreaker[[]*core.Product]
	cfg  BreakerConfig
	log  zerolog.Logger

	mu        sync.RWMutex
	lastGood  []*core.Product
	lastGoodT time.Time
}

// NewBreaker 创建带熔断的目录来源。
func NewBreaker(next core.CatalogProvider, cfg BreakerConfig, log zerolog.Logger) *Breaker {
	if cfg.Name == "" {
		cfg.Name = "catalog"
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}

	b := &Breaker{
		next: next,
		cfg:  cfg,
		log:  log.With().Str("component", "catalog_breaker").Logger(),
	}
	metrics.CatalogBreakerState.WithLabelValues(cfg.Name).Set(0)

	b.cb = gobreaker.NewCircuitBreaker[[]*core.Product](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("catalog breaker state changed")
			metrics.CatalogBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return b
}

// Products 经熔断器拉取目录。
func (b *Breaker) Products(ctx context.Context) ([]*core.Product, error) {
	products, err := b.cb.Execute(func() ([]*core.Product, error) {
		return b.next.Products(ctx)
	})
	if err == nil {
		b.mu.Lock()
		b.lastGood = products
		b.lastGoodT = time.Now()
		b.mu.Unlock()
		return products, nil
	}

	if b.cfg.ServeStale {
		b.mu.RLock()
		stale, at := b.lastGood, b.lastGoodT
		b.mu.RUnlock()
		if stale != nil {
			b.log.Warn().Err(err).Time("snapshot_at", at).Msg("catalog unavailable, serving stale snapshot")
			return stale, nil
		}
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, core.ErrCatalogUnavailable.Wrap(err)
	}
	if core.IsUnavailable(err) {
		return nil, err
	}
	return nil, core.ErrCatalogUnavailable.Wrap(err)
}

// State 返回熔断器当前状态。
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

var _ core.CatalogProvider = (*Breaker)(nil)
