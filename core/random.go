package core

import (
	"math/rand"
	"sync"
	"time"
)

// RandSource 是 [0,1) 浮点随机源。
// trending 的扰动项依赖它；测试注入固定种子以获得可复现的结果。
type RandSource interface {
	Float64() float64
}

// LockedRand 是并发安全的 math/rand 封装。
type LockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewLockedRand 创建一个带种子的随机源；seed 为 0 时使用当前时间。
func NewLockedRand(seed int64) *LockedRand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &LockedRand{rnd: rand.New(rand.NewSource(seed))} //nolint:gosec // 推荐扰动不需要密码学随机
}

func (r *LockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Float64()
}

var (
	defaultRand     *LockedRand
	defaultRandOnce sync.Once
)

// DefaultRand 返回进程级默认随机源（时间种子）。
func DefaultRand() RandSource {
	defaultRandOnce.Do(func() {
		defaultRand = NewLockedRand(0)
	})
	return defaultRand
}

// FixedRand 每次返回同一个值，用于测试或关闭扰动（Value=0）。
type FixedRand struct {
	Value float64
}

func (r FixedRand) Float64() float64 { return r.Value }
