// Package store 提供 core.Store 的实现：内存、Redis、Badger。
//
// 注意：此包只包含实现，接口定义在 core 包。
//
// 示例：
//
//	var s core.Store = store.NewMemoryStore()
//	var c core.CounterStore = store.NewMemoryStore()
package store

import (
	"fmt"
	"time"

	"github.com/rushteam/shoprec/core"
)

// ErrNotFound 与 core.ErrStoreNotFound 相同，便于包内引用。
var ErrNotFound = core.ErrStoreNotFound

// Config 描述要打开的存储后端。
type Config struct {
	Backend string `koanf:"backend" validate:"oneof=memory redis badger"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db" validate:"gte=0"`

	// BadgerDir 为空时使用内存模式
	BadgerDir string `koanf:"badger_dir"`
}

// Open 按配置打开存储后端。
func Open(cfg Config) (core.CounterStore, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	case "badger":
		return NewBadgerStore(cfg.BadgerDir)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
}

func ttlDuration(ttl []int) time.Duration {
	if len(ttl) > 0 && ttl[0] > 0 {
		return time.Duration(ttl[0]) * time.Second
	}
	return 0
}
