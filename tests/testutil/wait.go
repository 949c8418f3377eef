// Package testutil 提供测试辅助函数
package testutil

import (
	"context"
	"testing"
	"time"
)

// DefaultInterval 条件轮询间隔
const DefaultInterval = 10 * time.Millisecond

// WaitForCondition 轮询直到条件满足或超时
func WaitForCondition(ctx context.Context, cond func() bool, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if cond() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// WaitForConditionOrFail 等待条件满足，超时则标记测试失败
func WaitForConditionOrFail(t testing.TB, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := WaitForCondition(ctx, cond, DefaultInterval); err != nil {
		t.Fatalf("condition not met within %v: %s", timeout, msg)
	}
}

// Eventually 在默认 2 秒内等待条件满足
func Eventually(t testing.TB, cond func() bool, msg string) {
	t.Helper()
	WaitForConditionOrFail(t, 2*time.Second, cond, msg)
}

// Never 断言在 d 时间内条件始终不满足
func Never(t testing.TB, d time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			t.Fatalf("condition unexpectedly met: %s", msg)
		}
		time.Sleep(DefaultInterval)
	}
}
