package mocks

import (
	"errors"
	"sync"

	"github.com/dep2p/go-introducer/pkg/interfaces"
	"github.com/dep2p/go-introducer/pkg/types"
)

// ErrMockTransport MockTransport 默认的失败错误
var ErrMockTransport = errors.New("mock transport failure")

// Request 记录一次 Fetch 或 Insert 调用
type Request struct {
	Req      types.RequestID
	Addr     types.Address
	Payload  []byte
	Priority types.Priority
	Insert   bool
	cb       interfaces.TransportCallback
}

// MockTransport 模拟 Transport
//
// Fetch/Insert 只记录请求，不会自动完成；测试通过 CompleteFetch、
// FailFetch 等方法在自己的 goroutine 上投递回调。
type MockTransport struct {
	mu      sync.Mutex
	nextID  types.RequestID
	active  map[types.RequestID]*Request
	history []Request

	// 可覆盖的方法
	FetchFunc  func(addr types.Address, prio types.Priority) error
	InsertFunc func(addr types.Address, payload []byte, prio types.Priority) error

	// 调用记录
	CancelCalls []types.RequestID
}

// NewMockTransport 创建 MockTransport
func NewMockTransport() *MockTransport {
	return &MockTransport{active: make(map[types.RequestID]*Request)}
}

// Fetch 记录下载请求
func (m *MockTransport) Fetch(addr types.Address, prio types.Priority, cb interfaces.TransportCallback) (types.RequestID, error) {
	if m.FetchFunc != nil {
		if err := m.FetchFunc(addr, prio); err != nil {
			return 0, err
		}
	}
	return m.record(&Request{Addr: addr, Priority: prio, cb: cb}), nil
}

// Insert 记录上传请求
func (m *MockTransport) Insert(addr types.Address, payload []byte, prio types.Priority, cb interfaces.TransportCallback) (types.RequestID, error) {
	if m.InsertFunc != nil {
		if err := m.InsertFunc(addr, payload, prio); err != nil {
			return 0, err
		}
	}
	cp := append([]byte(nil), payload...)
	return m.record(&Request{Addr: addr, Payload: cp, Priority: prio, Insert: true, cb: cb}), nil
}

func (m *MockTransport) record(r *Request) types.RequestID {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.Req = m.nextID
	m.active[r.Req] = r
	m.history = append(m.history, *r)
	return r.Req
}

// Cancel 取消请求，之后不会再投递该请求的回调
func (m *MockTransport) Cancel(req types.RequestID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CancelCalls = append(m.CancelCalls, req)
	delete(m.active, req)
}

// ============================================================================
//                              测试驱动
// ============================================================================

// take 取出活跃请求；已取消或已完成时返回 nil
func (m *MockTransport) take(req types.RequestID) *Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.active[req]
	if !ok {
		return nil
	}
	delete(m.active, req)
	return r
}

// CompleteFetch 投递下载成功，返回是否投递
func (m *MockTransport) CompleteFetch(req types.RequestID, payload []byte) bool {
	r := m.take(req)
	if r == nil {
		return false
	}
	r.cb.OnFetchSuccess(req, payload)
	return true
}

// FailFetch 投递下载失败，err 为 nil 时使用 ErrMockTransport
func (m *MockTransport) FailFetch(req types.RequestID, err error) bool {
	r := m.take(req)
	if r == nil {
		return false
	}
	if err == nil {
		err = ErrMockTransport
	}
	r.cb.OnFetchFailure(req, err)
	return true
}

// CompleteInsert 投递上传成功
func (m *MockTransport) CompleteInsert(req types.RequestID) bool {
	r := m.take(req)
	if r == nil {
		return false
	}
	r.cb.OnInsertSuccess(req)
	return true
}

// FailInsert 投递上传失败
func (m *MockTransport) FailInsert(req types.RequestID, err error) bool {
	r := m.take(req)
	if r == nil {
		return false
	}
	if err == nil {
		err = ErrMockTransport
	}
	r.cb.OnInsertFailure(req, err)
	return true
}

// DeliverStale 向已取消的请求强行投递下载成功，用于模拟取消与完成的竞争
func (m *MockTransport) DeliverStale(r Request, payload []byte) {
	r.cb.OnFetchSuccess(r.Req, payload)
}

// ============================================================================
//                              查询
// ============================================================================

// ActiveFetches 当前未完成的下载请求，按发起顺序
func (m *MockTransport) ActiveFetches() []Request {
	return m.activeWhere(false)
}

// ActiveInserts 当前未完成的上传请求，按发起顺序
func (m *MockTransport) ActiveInserts() []Request {
	return m.activeWhere(true)
}

func (m *MockTransport) activeWhere(insert bool) []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Request
	for _, h := range m.history {
		if h.Insert != insert {
			continue
		}
		if r, ok := m.active[h.Req]; ok {
			out = append(out, *r)
		}
	}
	return out
}

// History 所有请求记录
func (m *MockTransport) History() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.history...)
}

// Cancelled 已取消的请求数量
func (m *MockTransport) Cancelled() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.CancelCalls)
}

var _ interfaces.Transport = (*MockTransport)(nil)
