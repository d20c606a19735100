package cache

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(1700000000, 0)} }

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestLRU_GetSet(t *testing.T) {
	c := NewLRU[[]string](4, time.Minute)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", []string{"1", "2"})
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []string{"1", "2"}, got)

	c.Set("a", []string{"3"})
	got, _ = c.Get("a")
	assert.Equal(t, []string{"3"}, got)

	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"))

	st := c.Stats()
	assert.Equal(t, uint64(2), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)
}

func TestLRU_TTL(t *testing.T) {
	clock := newFakeClock()
	c := NewLRU[int](10, 5*time.Minute, WithClock(clock.Now))

	c.Set("k", 1)
	clock.Advance(5*time.Minute - time.Millisecond)
	v, ok := c.Get("k")
	require.True(t, ok, "有效期内应命中")
	assert.Equal(t, 1, v)

	// now - ts == ttl 时已过期
	clock.Advance(time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "过期条目在读取时删除")

	// 覆盖写入会刷新时间戳
	c.Set("k", 2)
	clock.Advance(4 * time.Minute)
	c.Set("k", 3)
	clock.Advance(4 * time.Minute)
	v, ok = c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU[int](3, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// 访问 a 后，b 成为最久未使用
	_, _ = c.Get("a")
	c.Set("d", 4)

	_, ok := c.Get("b")
	assert.False(t, ok)
	for _, k := range []string{"a", "c", "d"} {
		_, ok := c.Get(k)
		assert.True(t, ok, k)
	}
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestLRU_Sweep(t *testing.T) {
	clock := newFakeClock()
	c := NewLRU[int](100, time.Minute, WithClock(clock.Now))

	for i := 0; i < 10; i++ {
		c.Set("old"+strconv.Itoa(i), i)
	}
	clock.Advance(30 * time.Second)
	c.Set("fresh", 1)
	clock.Advance(30 * time.Second)

	assert.Equal(t, 10, c.Sweep())
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 0, c.Sweep())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestLRU_Run(t *testing.T) {
	clock := newFakeClock()
	c := NewLRU[int](10, time.Minute, WithClock(clock.Now))
	c.Set("k", 1)
	clock.Advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, 5*time.Millisecond) }()

	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestLRU_Defaults(t *testing.T) {
	c := NewLRU[int](0, 0)
	assert.Equal(t, 5*time.Minute, c.TTL())
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU[int](16, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := strconv.Itoa((g * i) % 32)
				c.Set(k, i)
				c.Get(k)
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 16)
}
