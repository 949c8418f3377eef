// Package local 实现进程内的内容寻址传输
//
// 内容保存在 ContentStore（通常是 BadgerDB 上的 KVStore）中。每个请求在独立的
// goroutine 中完成，可选地施加模拟延迟与速率限制，结果通过回调异步送达。
// 被取消的请求不会产生回调。
package local

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dep2p/go-introducer/internal/core/storage/engine"
	"github.com/dep2p/go-introducer/pkg/interfaces"
	"github.com/dep2p/go-introducer/pkg/lib/log"
	"github.com/dep2p/go-introducer/pkg/types"
	"golang.org/x/time/rate"
)

var logger = log.Logger("transport/local")

// ErrCollision 地址上已存在不同的内容
var ErrCollision = errors.New("local: content collision")

// ContentStore 内容存储
type ContentStore interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
}

// Config 本地传输配置
type Config struct {
	// RateLimit 每秒完成的请求数（0 不限速）
	RateLimit float64

	// Burst 突发容量
	Burst int

	// Latency 每个请求的模拟延迟
	Latency time.Duration
}

// Transport 本地传输
type Transport struct {
	content ContentStore
	clock   clock.Clock
	limiter *rate.Limiter
	latency time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	nextID  types.RequestID
	pending map[types.RequestID]context.CancelFunc
	closed  bool
}

// New 创建本地传输
func New(content ContentStore, cfg Config, clk clock.Clock) *Transport {
	if clk == nil {
		clk = clock.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	t := &Transport{
		content: content,
		clock:   clk,
		latency: cfg.Latency,
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[types.RequestID]context.CancelFunc),
	}
	if cfg.RateLimit > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)
	}
	return t
}

// Publish 直接在 addr 处写入内容
func (t *Transport) Publish(addr types.Address, payload []byte) error {
	return t.content.Put([]byte(addr), payload)
}

// Fetch 异步下载 addr 处的内容
func (t *Transport) Fetch(addr types.Address, prio types.Priority, cb interfaces.TransportCallback) (types.RequestID, error) {
	return t.start(func(req types.RequestID) {
		data, err := t.content.Get([]byte(addr))
		if err != nil {
			if engine.IsNotFound(err) {
				err = types.ErrContentNotFound
			}
			if !t.finish(req) {
				return
			}
			logger.Debug("fetch 失败", "req", req, "addr", addr, "prio", prio, "error", err)
			cb.OnFetchFailure(req, err)
			return
		}
		if !t.finish(req) {
			return
		}
		cb.OnFetchSuccess(req, data)
	})
}

// Insert 异步在 addr 处上传 payload
//
// 内容寻址语义：重复上传相同内容成功，上传不同内容失败。
func (t *Transport) Insert(addr types.Address, payload []byte, prio types.Priority, cb interfaces.TransportCallback) (types.RequestID, error) {
	payload = bytes.Clone(payload)
	return t.start(func(req types.RequestID) {
		err := t.insert(addr, payload)
		if !t.finish(req) {
			return
		}
		if err != nil {
			logger.Debug("insert 失败", "req", req, "addr", addr, "prio", prio, "error", err)
			cb.OnInsertFailure(req, err)
			return
		}
		cb.OnInsertSuccess(req)
	})
}

func (t *Transport) insert(addr types.Address, payload []byte) error {
	existing, err := t.content.Get([]byte(addr))
	switch {
	case err == nil && bytes.Equal(existing, payload):
		return nil
	case err == nil:
		return ErrCollision
	case !engine.IsNotFound(err):
		return err
	}
	return t.content.Put([]byte(addr), payload)
}

// Cancel 取消请求；已完成或未知的句柄被忽略
func (t *Transport) Cancel(req types.RequestID) {
	t.mu.Lock()
	cancel, ok := t.pending[req]
	delete(t.pending, req)
	t.mu.Unlock()
	if ok {
		cancel()
	}
}

// Pending 未完成的请求数
func (t *Transport) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Close 取消所有请求并等待 goroutine 退出
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.pending = make(map[types.RequestID]context.CancelFunc)
	t.mu.Unlock()

	t.cancel()
	t.wg.Wait()
	return nil
}

// start 登记请求并在新的 goroutine 中执行 work
func (t *Transport) start(work func(req types.RequestID)) (types.RequestID, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, types.ErrTransportClosed
	}
	t.nextID++
	req := t.nextID
	ctx, cancel := context.WithCancel(t.ctx)
	t.pending[req] = cancel
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		defer cancel()
		if !t.wait(ctx) {
			return
		}
		work(req)
	}()
	return req, nil
}

// wait 施加模拟延迟与速率限制，请求被取消时返回 false
func (t *Transport) wait(ctx context.Context) bool {
	if t.latency > 0 {
		timer := t.clock.Timer(t.latency)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return false
		}
	}
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return false
		}
	}
	return ctx.Err() == nil
}

// finish 移除请求，已被取消时返回 false
func (t *Transport) finish(req types.RequestID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.pending[req]; !ok {
		return false
	}
	delete(t.pending, req)
	return true
}

var _ interfaces.Transport = (*Transport)(nil)
