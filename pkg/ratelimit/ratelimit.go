package ratelimit

import (
	"context"
	"sync"
	"time"
)

// 撮合服务各端点的限流键
const (
	KeyPostOrder   = "clob:order:post"
	KeyCancelOrder = "clob:order:delete"
	KeyDataAPI     = "clob:data:get"
	KeyMarketData  = "clob:market:get"
	KeyAuth        = "clob:auth"
)

// Limiter 速率限制器接口
type Limiter interface {
	Wait(ctx context.Context) error
	Allow() bool
	Remaining() int
}

// TokenBucket 令牌桶限制器：容量内允许突发，按固定速率补充
type TokenBucket struct {
	capacity   int
	tokens     int
	refillRate int // 每秒补充的令牌数
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket 创建令牌桶
func NewTokenBucket(capacity, refillRate int) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (tb *TokenBucket) refill() {
	now := time.Now()
	added := int(now.Sub(tb.lastRefill).Seconds()) * tb.refillRate
	if added > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+added)
		tb.lastRefill = now
	}
}

// Allow 检查是否允许请求
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Wait 阻塞到允许请求或 ctx 取消
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		if tb.Allow() {
			return nil
		}
		wait := time.Second
		if tb.refillRate > 0 {
			wait = time.Second / time.Duration(tb.refillRate)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Remaining 剩余令牌数
func (tb *TokenBucket) Remaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	return tb.tokens
}

// SlidingWindow 滑动窗口限制器：窗口内最多 limit 次请求
type SlidingWindow struct {
	limit      int
	windowSize time.Duration
	requests   []time.Time
	mu         sync.Mutex
}

// NewSlidingWindow 创建滑动窗口限制器
func NewSlidingWindow(limit int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:      limit,
		windowSize: windowSize,
		requests:   make([]time.Time, 0, limit),
	}
}

// Allow 检查是否允许请求
func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-sw.windowSize)

	kept := sw.requests[:0]
	for _, req := range sw.requests {
		if req.After(cutoff) {
			kept = append(kept, req)
		}
	}
	sw.requests = kept

	if len(sw.requests) >= sw.limit {
		return false
	}
	sw.requests = append(sw.requests, now)
	return true
}

// Wait 阻塞到允许请求或 ctx 取消
func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for {
		if sw.Allow() {
			return nil
		}
		sw.mu.Lock()
		wait := 100 * time.Millisecond
		if len(sw.requests) > 0 {
			if w := sw.windowSize - time.Since(sw.requests[0]); w > wait {
				wait = w
			}
		}
		sw.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Remaining 窗口内剩余请求数
func (sw *SlidingWindow) Remaining() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	cutoff := time.Now().Add(-sw.windowSize)
	valid := 0
	for _, req := range sw.requests {
		if req.After(cutoff) {
			valid++
		}
	}
	return max(0, sw.limit-valid)
}

// Manager 按端点键管理一组限制器。
// 限额对齐撮合服务公开的配额：下单类走令牌桶（允许突发），
// 查询类走滑动窗口。
type Manager struct {
	limiters map[string]Limiter
	fallback Limiter
	mu       sync.RWMutex
}

// NewManager 创建带默认端点限额的管理器
func NewManager() *Manager {
	return &Manager{
		limiters: map[string]Limiter{
			KeyPostOrder:   NewTokenBucket(2400, 240),
			KeyCancelOrder: NewTokenBucket(2400, 240),
			KeyDataAPI:     NewSlidingWindow(150, 10*time.Second),
			KeyMarketData:  NewSlidingWindow(200, 10*time.Second),
			KeyAuth:        NewSlidingWindow(30, 10*time.Second),
		},
		fallback: NewSlidingWindow(500, 10*time.Second),
	}
}

// Get 获取指定键的限制器，未配置的键用兜底限制器
func (m *Manager) Get(key string) Limiter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limiter, ok := m.limiters[key]; ok {
		return limiter
	}
	return m.fallback
}

// Set 覆盖指定键的限制器
func (m *Manager) Set(key string, limiter Limiter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters[key] = limiter
}

// Wait 阻塞到指定键允许请求
func (m *Manager) Wait(ctx context.Context, key string) error {
	return m.Get(key).Wait(ctx)
}

// Allow 检查指定键是否允许请求
func (m *Manager) Allow(key string) bool {
	return m.Get(key).Allow()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
