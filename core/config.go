package core

import "time"

// RecommendConfig 是推荐相关的配置接口，用于提供默认值。
type RecommendConfig interface {
	// DefaultLimit 返回默认的推荐条数
	DefaultLimit() int

	// MaxLimit 返回单次请求允许的最大条数
	MaxLimit() int

	// CacheTTL 返回推荐结果缓存的有效期
	CacheTTL() time.Duration

	// CacheSize 返回推荐结果缓存的最大条目数
	CacheSize() int

	// HistoryCap 返回浏览历史保留的最大条数
	HistoryCap() int
}

// DefaultRecommendConfig 是默认的推荐配置实现。
type DefaultRecommendConfig struct{}

func (c *DefaultRecommendConfig) DefaultLimit() int {
	return 3
}

func (c *DefaultRecommendConfig) MaxLimit() int {
	return 50
}

func (c *DefaultRecommendConfig) CacheTTL() time.Duration {
	return 5 * time.Minute
}

func (c *DefaultRecommendConfig) CacheSize() int {
	return 1024
}

func (c *DefaultRecommendConfig) HistoryCap() int {
	return 10
}
