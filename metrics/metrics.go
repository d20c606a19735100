// Package metrics 定义推荐服务的 Prometheus 指标。
//
// 指标均通过 promauto 注册到默认 registry，由 /metrics 暴露。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 推荐请求
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoprec_recommend_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"strategy"},
	)

	RecommendErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoprec_recommend_errors_total",
			Help: "Total number of recommendation failures absorbed into empty results",
		},
		[]string{"strategy"},
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shoprec_recommend_duration_seconds",
			Help:    "Duration of recommendation computations (cache misses) in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	// 推荐结果缓存
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shoprec_recommend_cache_hits_total",
			Help: "Total number of recommendation cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shoprec_recommend_cache_misses_total",
			Help: "Total number of recommendation cache misses",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shoprec_cache_entries",
			Help: "Current number of cached recommendation results",
		},
	)

	// 浏览事件
	ProductViews = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shoprec_product_views_total",
			Help: "Total number of tracked product views",
		},
	)

	// 目录熔断器：0=closed 1=half-open 2=open
	CatalogBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shoprec_catalog_breaker_state",
			Help: "Catalog circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)
