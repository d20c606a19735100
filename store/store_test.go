package store

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shoprec/core"
)

// exerciseStore 对任意 CounterStore 跑同一组行为断言。
func exerciseStore(t *testing.T, s core.CounterStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.True(t, core.IsStoreNotFound(err), "缺失 key 应返回 ErrStoreNotFound，得到 %v", err)

	require.NoError(t, s.Set(ctx, "k", []byte("v1")))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, s.Set(ctx, "k", []byte("v2"), 60))
	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.True(t, core.IsStoreNotFound(err))
	require.NoError(t, s.Delete(ctx, "k"), "删除不存在的 key 不报错")

	n, err := s.IncrBy(ctx, "views:1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = s.IncrBy(ctx, "views:1", 4)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	raw, err := s.Get(ctx, "views:1")
	require.NoError(t, err)
	assert.Equal(t, "5", string(raw))

	// 并发计数
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.IncrBy(ctx, "views:2", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	raw, err = s.Get(ctx, "views:2")
	require.NoError(t, err)
	assert.Equal(t, "20", string(raw))

	require.NoError(t, s.Set(ctx, "text", []byte("abc")))
	_, err = s.IncrBy(ctx, "text", 1)
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	assert.Equal(t, "memory", s.Name())
	exerciseStore(t, s)
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	s := NewMemoryStore(WithClock(func() time.Time { return now }), WithCleanupInterval(0))
	defer s.Close()

	require.NoError(t, s.Set(ctx, "short", []byte("x"), 10))
	require.NoError(t, s.Set(ctx, "forever", []byte("y")))
	assert.Equal(t, 2, s.Len())

	now = now.Add(9 * time.Second)
	_, err := s.Get(ctx, "short")
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = s.Get(ctx, "short")
	assert.True(t, core.IsStoreNotFound(err))
	assert.Equal(t, 1, s.Len())

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 0, s.Sweep())

	// 过期 key 上计数从 0 开始
	require.NoError(t, s.Set(ctx, "c", []byte("41"), 1))
	now = now.Add(2 * time.Second)
	n, err := s.IncrBy(ctx, "c", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	buf := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", buf))
	buf[0] = 'z'
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "重复 Close 不报错")
}

func TestBadgerStore_InMemory(t *testing.T) {
	s, err := NewBadgerStore("")
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "badger", s.Name())
	exerciseStore(t, s)
}

func TestBadgerStore_Persistent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewBadgerStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "history:u1", []byte(`["1","2"]`)))
	require.NoError(t, s.Close())

	s, err = NewBadgerStore(dir)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "history:u1")
	require.NoError(t, err)
	assert.Equal(t, `["1","2"]`, string(got))
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("SHOPREC_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("需要设置 SHOPREC_TEST_REDIS_ADDR 连接真实的 Redis 才能运行")
	}
	s, err := NewRedisStore(RedisOptions{Addr: addr, DB: 15})
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	for _, k := range []string{"k", "views:1", "views:2", "text"} {
		require.NoError(t, s.Delete(ctx, k))
	}
	exerciseStore(t, s)
}

func TestRedisStore_Unreachable(t *testing.T) {
	_, err := NewRedisStore(RedisOptions{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond})
	require.Error(t, err)
	assert.True(t, core.IsUnavailable(err))
}

func TestOpen(t *testing.T) {
	s, err := Open(Config{})
	require.NoError(t, err)
	assert.Equal(t, "memory", s.Name())
	require.NoError(t, s.Close())

	s, err = Open(Config{Backend: "badger"})
	require.NoError(t, err)
	assert.Equal(t, "badger", s.Name())
	require.NoError(t, s.Close())

	_, err = Open(Config{Backend: "etcd"})
	assert.Error(t, err)
}
