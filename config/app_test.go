package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "demo", cfg.Catalog.Source)
	assert.Equal(t, 3, cfg.Recommend.DefaultLimit)
	assert.Equal(t, 5*time.Minute, cfg.Recommend.CacheTTL)
	assert.Equal(t, 10, cfg.Recommend.HistoryCap)
	assert.False(t, cfg.Recommend.InStockOnly)
	assert.Equal(t, "product.viewed", cfg.Events.Topic)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shoprec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
recommend:
  default_limit: 5
  cache_ttl: 30s
  in_stock_only: true
store:
  backend: badger
  badger_dir: /tmp/shoprec
catalog:
  breaker:
    failure_threshold: 2
`), 0o644))

	t.Setenv("SHOPREC_RECOMMEND_DEFAULT_LIMIT", "7")
	t.Setenv("SHOPREC_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SHOPREC_CATALOG_BREAKER_TIMEOUT", "1m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 7, cfg.Recommend.DefaultLimit, "环境变量优先于配置文件")
	assert.Equal(t, 30*time.Second, cfg.Recommend.CacheTTL)
	assert.True(t, cfg.Recommend.InStockOnly)
	assert.Equal(t, "badger", cfg.Store.Backend)
	assert.Equal(t, "/tmp/shoprec", cfg.Store.BadgerDir)
	assert.Equal(t, uint32(2), cfg.Catalog.Breaker.FailureThreshold)
	assert.Equal(t, time.Minute, cfg.Catalog.Breaker.Timeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "etcd" }, wantErr: true},
		{name: "unknown catalog source", mutate: func(c *Config) { c.Catalog.Source = "csv" }, wantErr: true},
		{name: "file source without path", mutate: func(c *Config) { c.Catalog.Source = "file" }, wantErr: true},
		{name: "file source", mutate: func(c *Config) { c.Catalog.Source = "file"; c.Catalog.File = "products.yaml" }},
		{name: "mysql without dsn", mutate: func(c *Config) { c.Catalog.Source = "mysql" }, wantErr: true},
		{name: "redis without addr", mutate: func(c *Config) { c.Store.Backend = "redis"; c.Store.RedisAddr = "" }, wantErr: true},
		{name: "max below default", mutate: func(c *Config) { c.Recommend.MaxLimit = 1 }, wantErr: true},
		{name: "zero ttl", mutate: func(c *Config) { c.Recommend.CacheTTL = 0 }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: true},
		{name: "empty addr", mutate: func(c *Config) { c.Server.Addr = "" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"SHOPREC_SERVER_ADDR":                 "server.addr",
		"SHOPREC_RECOMMEND_CACHE_TTL":         "recommend.cache_ttl",
		"SHOPREC_STORE_REDIS_ADDR":            "store.redis_addr",
		"SHOPREC_CATALOG_MYSQL_DSN":           "catalog.mysql.dsn",
		"SHOPREC_CATALOG_BREAKER_SERVE_STALE": "catalog.breaker.serve_stale",
		"SHOPREC_CONFIG":                      "",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestRecommendConfig_Engine(t *testing.T) {
	rc := Defaults().Recommend
	rc.DefaultLimit = 4
	rc.CacheSize = 16
	ec := rc.Engine()
	assert.Equal(t, 4, ec.DefaultLimit())
	assert.Equal(t, 50, ec.MaxLimit())
	assert.Equal(t, 16, ec.CacheSize())
	assert.Equal(t, 5*time.Minute, ec.CacheTTL())
	assert.Equal(t, 10, ec.HistoryCap())
}
