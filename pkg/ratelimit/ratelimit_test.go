package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucket_AllowsBurstThenBlocks(t *testing.T) {
	tb := NewTokenBucket(5, 1)
	for i := 0; i < 5; i++ {
		if !tb.Allow() {
			t.Fatalf("第 %d 次请求被拒绝, 桶容量 5", i+1)
		}
	}
	if tb.Allow() {
		t.Fatal("桶耗尽后仍放行")
	}
	if tb.Remaining() != 0 {
		t.Fatalf("remaining = %d, want 0", tb.Remaining())
	}
}

func TestTokenBucket_WaitHonorsContext(t *testing.T) {
	tb := NewTokenBucket(1, 1)
	tb.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := tb.Wait(ctx); err == nil {
		t.Fatal("ctx 超时后 Wait 应返回错误")
	}
}

func TestSlidingWindow_LimitWithinWindow(t *testing.T) {
	sw := NewSlidingWindow(3, time.Second)
	for i := 0; i < 3; i++ {
		if !sw.Allow() {
			t.Fatalf("第 %d 次请求被拒绝, 窗口限额 3", i+1)
		}
	}
	if sw.Allow() {
		t.Fatal("超过窗口限额仍放行")
	}
	if sw.Remaining() != 0 {
		t.Fatalf("remaining = %d, want 0", sw.Remaining())
	}
}

func TestSlidingWindow_RecoversAfterWindow(t *testing.T) {
	sw := NewSlidingWindow(1, 50*time.Millisecond)
	if !sw.Allow() {
		t.Fatal("首次请求被拒绝")
	}
	if sw.Allow() {
		t.Fatal("窗口内超额放行")
	}
	time.Sleep(60 * time.Millisecond)
	if !sw.Allow() {
		t.Fatal("窗口滑过后仍拒绝")
	}
}

func TestManager_KnownKeysAndFallback(t *testing.T) {
	m := NewManager()

	for _, key := range []string{KeyPostOrder, KeyCancelOrder, KeyDataAPI, KeyMarketData, KeyAuth} {
		if m.Get(key) == m.fallback {
			t.Fatalf("键 %s 不应落到兜底限制器", key)
		}
		if !m.Allow(key) {
			t.Fatalf("键 %s 首次请求被拒绝", key)
		}
	}

	if m.Get("unknown:endpoint") != m.fallback {
		t.Fatal("未知键应使用兜底限制器")
	}
}

func TestManager_WaitPassesThrough(t *testing.T) {
	m := NewManager()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.Wait(ctx, KeyPostOrder); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestManager_SetOverride(t *testing.T) {
	m := NewManager()
	m.Set(KeyPostOrder, NewTokenBucket(1, 0))
	if !m.Allow(KeyPostOrder) {
		t.Fatal("首次请求被拒绝")
	}
	if m.Allow(KeyPostOrder) {
		t.Fatal("覆盖后的限制器未生效")
	}
}
