// Package cache 提供带 TTL 的有界 LRU 缓存，用于缓存推荐结果。
package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	key      string
	value    V
	storedAt time.Time
	prev     *entry[V]
	next     *entry[V]
}

// LRU 是并发安全的有界 LRU 缓存，每个条目带写入时间戳。
//
// 条目在 now - storedAt >= ttl 时视为过期：读取时惰性删除，
// Sweep / Run 负责清理不再被访问的过期条目；超过容量时淘汰最久未使用的条目。
//
// 实现：哈希表 + 双向链表（head.next 为最近使用，tail.prev 为最久未使用），各操作 O(1)。
type LRU[V any] struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration
	now      func() time.Time

	items map[string]*entry[V]
	head  *entry[V]
	tail  *entry[V]

	hits      uint64
	misses    uint64
	evictions uint64
}

// Option 配置 LRU。
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock 注入时钟，测试过期逻辑时使用。
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewLRU 创建容量为 capacity、有效期为 ttl 的缓存。
// capacity <= 0 时取 1024，ttl <= 0 时取 5 分钟。
func NewLRU[V any](capacity int, ttl time.Duration, opts ...Option) *LRU[V] {
	if capacity <= 0 {
		capacity = 1024
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	c := &LRU[V]{
		capacity: capacity,
		ttl:      ttl,
		now:      o.now,
		items:    make(map[string]*entry[V], capacity),
		head:     &entry[V]{},
		tail:     &entry[V]{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get 返回未过期的值，并把条目移到最前。
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items[key]
	if !ok {
		c.misses++
		return zero, false
	}
	if c.expired(e, c.now()) {
		c.remove(e)
		c.misses++
		return zero, false
	}
	c.moveToFront(e)
	c.hits++
	return e.value, true
}

// Set 写入或覆盖条目，时间戳取当前时间；超出容量时淘汰最久未使用的条目。
func (c *LRU[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.items[key]; ok {
		e.value = value
		e.storedAt = now
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value, storedAt: now}
	c.addToFront(e)
	c.items[key] = e

	for len(c.items) > c.capacity {
		c.remove(c.tail.prev)
		c.evictions++
	}
}

// Delete 删除条目，返回是否存在。
func (c *LRU[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if ok {
		c.remove(e)
	}
	return ok
}

// Purge 清空缓存。
func (c *LRU[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*entry[V], c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// Len 返回当前条目数（含尚未清理的过期条目）。
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Sweep 删除所有过期条目，返回删除数量。
func (c *LRU[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for e := c.tail.prev; e != c.head; {
		prev := e.prev
		if c.expired(e, now) {
			c.remove(e)
			removed++
		}
		e = prev
	}
	return removed
}

// Run 每隔 interval 执行一次 Sweep，直到 ctx 结束。
// 签名满足 suture.Service，可直接交给 supervisor 管理。
func (c *LRU[V]) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = c.ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Stats 是缓存统计。
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Entries   int
}

func (c *LRU[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Evictions: c.evictions, Entries: len(c.items)}
}

// TTL 返回条目有效期。
func (c *LRU[V]) TTL() time.Duration { return c.ttl }

func (c *LRU[V]) expired(e *entry[V], now time.Time) bool {
	return now.Sub(e.storedAt) >= c.ttl
}

func (c *LRU[V]) addToFront(e *entry[V]) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *LRU[V]) moveToFront(e *entry[V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	c.addToFront(e)
}

func (c *LRU[V]) remove(e *entry[V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev, e.next = nil, nil
	delete(c.items, e.key)
}
