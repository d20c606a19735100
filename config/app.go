package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/logging"
	"github.com/rushteam/shoprec/store"
)

const (
	// EnvPrefix 是环境变量前缀：SHOPREC_STORE_BACKEND -> store.backend
	EnvPrefix = "SHOPREC_"

	// ConfigPathEnvVar 指定配置文件路径
	ConfigPathEnvVar = "SHOPREC_CONFIG"
)

// Config 是服务的完整配置。
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       logging.Config  `koanf:"log"`
	Recommend RecommendConfig `koanf:"recommend"`
	Store     store.Config    `koanf:"store"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Events    EventsConfig    `koanf:"events"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`

	// RateLimit 是每个 IP 每分钟允许的请求数，0 表示不限流
	RateLimit int `koanf:"rate_limit" validate:"gte=0"`
}

// RecommendConfig 是推荐引擎配置。
type RecommendConfig struct {
	DefaultLimit       int           `koanf:"default_limit" validate:"gte=1"`
	MaxLimit           int           `koanf:"max_limit" validate:"gtefield=DefaultLimit"`
	CacheTTL           time.Duration `koanf:"cache_ttl" validate:"gt=0"`
	CacheSize          int           `koanf:"cache_size" validate:"gte=1"`
	CacheSweepInterval time.Duration `koanf:"cache_sweep_interval"`
	HistoryCap         int           `koanf:"history_cap" validate:"gte=1"`
	InStockOnly        bool          `koanf:"in_stock_only"`

	// PipelinesFile 可选：用 YAML/JSON 文件覆盖内置策略的 Pipeline
	PipelinesFile string `koanf:"pipelines_file"`
}

// CatalogConfig 是商品目录来源配置。
type CatalogConfig struct {
	// Source: demo / file / mysql
	Source  string                `koanf:"source" validate:"oneof=demo file mysql"`
	File    string                `koanf:"file" validate:"required_if=Source file"`
	MySQL   catalog.MySQLConfig   `koanf:"mysql"`
	Breaker catalog.BreakerConfig `koanf:"breaker"`
}

// EventsConfig 是浏览事件配置。
type EventsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Topic   string `koanf:"topic" validate:"required_if=Enabled true"`

	// BufferSize 是 gochannel 每个订阅者的缓冲区大小
	BufferSize int64 `koanf:"buffer_size" validate:"gte=0"`
}

// Defaults 返回全部默认值，先于配置文件与环境变量加载。
func Defaults() *Config {
	def := &core.DefaultRecommendConfig{}
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimit:       600,
		},
		Log: logging.Config{
			Level:  "info",
			Format: "json",
		},
		Recommend: RecommendConfig{
			DefaultLimit:       def.DefaultLimit(),
			MaxLimit:           def.MaxLimit(),
			CacheTTL:           def.CacheTTL(),
			CacheSize:          def.CacheSize(),
			CacheSweepInterval: time.Minute,
			HistoryCap:         def.HistoryCap(),
			InStockOnly:        false,
		},
		Store: store.Config{
			Backend:   "memory",
			RedisAddr: "127.0.0.1:6379",
		},
		Catalog: CatalogConfig{
			Source: "demo",
			MySQL: catalog.MySQLConfig{
				Table:           "products",
				MaxOpenConns:    20,
				MaxIdleConns:    5,
				ConnMaxLifetime: 60,
			},
			Breaker: catalog.BreakerConfig{
				Name:             "catalog",
				MaxRequests:      1,
				Timeout:          30 * time.Second,
				FailureThreshold: 5,
				ServeStale:       true,
			},
		},
		Events: EventsConfig{
			Enabled:    true,
			Topic:      "product.viewed",
			BufferSize: 256,
		},
	}
}

// Load 按 默认值 -> 配置文件 -> 环境变量 的顺序加载配置，后者覆盖前者。
// path 为空时读取 SHOPREC_CONFIG；两者都为空则只使用默认值与环境变量。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(ConfigPathEnvVar)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	if err := splitSlices(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate 校验配置。
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Catalog.Source == "mysql" && c.Catalog.MySQL.DSN == "" {
		return fmt.Errorf("catalog.mysql.dsn is required when catalog.source is mysql")
	}
	if c.Store.Backend == "redis" && c.Store.RedisAddr == "" {
		return fmt.Errorf("store.redis_addr is required when store.backend is redis")
	}
	return nil
}

// 两层嵌套的配置段，环境变量中需要整体映射。
var nestedSections = []string{"catalog_mysql", "catalog_breaker"}

// envKey 把环境变量名转为 koanf 路径：
//
//	SHOPREC_SERVER_ADDR           -> server.addr
//	SHOPREC_RECOMMEND_CACHE_TTL   -> recommend.cache_ttl
//	SHOPREC_CATALOG_MYSQL_DSN     -> catalog.mysql.dsn
//
// 不含段名的变量（如 SHOPREC_CONFIG）被忽略。
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	for _, sec := range nestedSections {
		if rest, ok := strings.CutPrefix(key, sec+"_"); ok {
			return strings.Replace(sec, "_", ".", 1) + "." + rest
		}
	}
	section, rest, ok := strings.Cut(key, "_")
	if !ok || rest == "" {
		return ""
	}
	return section + "." + rest
}

// 环境变量只能给出字符串，这些路径按逗号拆成切片。
var sliceKeys = []string{"server.cors_origins"}

func splitSlices(k *koanf.Koanf) error {
	for _, path := range sliceKeys {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := make([]string, 0)
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// Engine 把推荐配置适配为 core.RecommendConfig。
func (c RecommendConfig) Engine() core.RecommendConfig { return recommendAdapter{c} }

type recommendAdapter struct{ c RecommendConfig }

func (a recommendAdapter) DefaultLimit() int       { return a.c.DefaultLimit }
func (a recommendAdapter) MaxLimit() int           { return a.c.MaxLimit }
func (a recommendAdapter) CacheTTL() time.Duration { return a.c.CacheTTL }
func (a recommendAdapter) CacheSize() int          { return a.c.CacheSize }
func (a recommendAdapter) HistoryCap() int         { return a.c.HistoryCap }
