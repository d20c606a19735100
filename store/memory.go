package store

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rushteam/shoprec/core"
)

// MemoryStore 是内存实现的 Store，用于测试/开发/单机部署。
// 支持 TTL（过期时间），但进程重启后数据丢失。
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*entry
	now  func() time.Time

	interval time.Duration
	clean    *time.Ticker
	done     chan struct{}
	once     sync.Once
}

type entry struct {
	value    []byte
	expireAt time.Time // 零值表示不过期
}

func (e *entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && !now.Before(e.expireAt)
}

// MemoryOption 配置 MemoryStore。
type MemoryOption func(*MemoryStore)

// WithClock 注入时钟，测试 TTL 时使用。
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) { m.now = now }
}

// WithCleanupInterval 设置过期清理周期，<=0 时不启动后台清理。
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(m *MemoryStore) { m.interval = d }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	ms := &MemoryStore{
		data:     make(map[string]*entry),
		now:      time.Now,
		interval: 10 * time.Second,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ms)
	}
	if ms.interval > 0 {
		ms.clean = time.NewTicker(ms.interval)
		go ms.cleanup()
	}
	return ms
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[key]
	if !ok || e.expired(m.now()) {
		return nil, ErrNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl ...int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := &entry{value: append([]byte(nil), value...)}
	if d := ttlDuration(ttl); d > 0 {
		e.expireAt = m.now().Add(d)
	}
	m.data[key] = e
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// IncrBy 原子计数，保留 key 原有的过期时间。
func (m *MemoryStore) IncrBy(_ context.Context, key string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var cur int64
	e, ok := m.data[key]
	if ok && !e.expired(m.now()) {
		n, err := strconv.ParseInt(string(e.value), 10, 64)
		if err != nil {
			return 0, core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "store: value is not an integer").Wrap(err)
		}
		cur = n
	} else {
		e = &entry{}
	}
	cur += delta
	e.value = []byte(strconv.FormatInt(cur, 10))
	m.data[key] = e
	return cur, nil
}

// Len 返回未过期的 key 数量。
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	n := 0
	for _, e := range m.data {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

func (m *MemoryStore) Close() error {
	m.once.Do(func() {
		if m.clean != nil {
			m.clean.Stop()
		}
		close(m.done)
	})
	return nil
}

// Sweep 删除所有已过期的 key，返回删除数量。
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for k, e := range m.data {
		if e.expired(now) {
			delete(m.data, k)
			removed++
		}
	}
	return removed
}

func (m *MemoryStore) cleanup() {
	for {
		select {
		case <-m.done:
			return
		case <-m.clean.C:
			m.Sweep()
		}
	}
}

var _ core.CounterStore = (*MemoryStore)(nil)
