package introduction

import (
	"time"

	"github.com/dep2p/go-introducer/pkg/types"
)

// ============================================================================
//                              在途请求
// ============================================================================

// fetchKey 在途下载的键
type fetchKey struct {
	identity types.IdentityID
	index    int
}

// PendingFetch 在途的谜题下载
type PendingFetch struct {
	Req      types.RequestID
	Identity types.IdentityID
	Index    int
	Addr     types.Address
	IssuedAt time.Time
}

// PendingInsert 在途的解答上传
type PendingInsert struct {
	Req      types.RequestID
	Addr     types.Address
	PuzzleID types.PuzzleID
	IssuedAt time.Time
}

// ============================================================================
//                              Tracker
// ============================================================================

// Tracker 在途请求簿记
//
// 下载按 (身份, 序号) 索引，上传按解答地址索引，两者都按传输层请求句柄反查。
// 每条记录恰好被移除一次：要么取消，要么完成。非并发安全，由 Client 的锁保护。
type Tracker struct {
	fetches     map[fetchKey]*PendingFetch
	fetchByReq  map[types.RequestID]fetchKey
	inserts     map[types.Address]*PendingInsert
	insertByReq map[types.RequestID]types.Address
}

// NewTracker 创建空的 Tracker
func NewTracker() *Tracker {
	return &Tracker{
		fetches:     make(map[fetchKey]*PendingFetch),
		fetchByReq:  make(map[types.RequestID]fetchKey),
		inserts:     make(map[types.Address]*PendingInsert),
		insertByReq: make(map[types.RequestID]types.Address),
	}
}

// HasFetch 检查 (身份, 序号) 是否已有在途下载
func (t *Tracker) HasFetch(id types.IdentityID, index int) bool {
	_, ok := t.fetches[fetchKey{id, index}]
	return ok
}

// HasInsert 检查地址是否已有在途上传
func (t *Tracker) HasInsert(addr types.Address) bool {
	_, ok := t.inserts[addr]
	return ok
}

// TrackFetch 登记下载；键或句柄已存在时拒绝并返回 false
func (t *Tracker) TrackFetch(pf PendingFetch) bool {
	key := fetchKey{pf.Identity, pf.Index}
	if _, ok := t.fetches[key]; ok {
		return false
	}
	if _, ok := t.fetchByReq[pf.Req]; ok {
		return false
	}
	t.fetches[key] = &pf
	t.fetchByReq[pf.Req] = key
	return true
}

// TrackInsert 登记上传；地址或句柄已存在时拒绝并返回 false
func (t *Tracker) TrackInsert(pi PendingInsert) bool {
	if _, ok := t.inserts[pi.Addr]; ok {
		return false
	}
	if _, ok := t.insertByReq[pi.Req]; ok {
		return false
	}
	t.inserts[pi.Addr] = &pi
	t.insertByReq[pi.Req] = pi.Addr
	return true
}

// UntrackFetch 按句柄移除下载；已移除时返回 false
func (t *Tracker) UntrackFetch(req types.RequestID) (PendingFetch, bool) {
	key, ok := t.fetchByReq[req]
	if !ok {
		return PendingFetch{}, false
	}
	pf := t.fetches[key]
	delete(t.fetchByReq, req)
	delete(t.fetches, key)
	return *pf, true
}

// UntrackInsert 按句柄移除上传；已移除时返回 false
func (t *Tracker) UntrackInsert(req types.RequestID) (PendingInsert, bool) {
	addr, ok := t.insertByReq[req]
	if !ok {
		return PendingInsert{}, false
	}
	pi := t.inserts[addr]
	delete(t.insertByReq, req)
	delete(t.inserts, addr)
	return *pi, true
}

// CancelAll 对每个在途请求调用 cancel 并清空记录
//
// 无论传输层是否确认，返回时记录都已清空。
func (t *Tracker) CancelAll(cancel func(types.RequestID)) (fetches, inserts int) {
	fetches, inserts = len(t.fetches), len(t.inserts)
	for req := range t.fetchByReq {
		cancel(req)
	}
	for req := range t.insertByReq {
		cancel(req)
	}
	t.fetches = make(map[fetchKey]*PendingFetch)
	t.fetchByReq = make(map[types.RequestID]fetchKey)
	t.inserts = make(map[types.Address]*PendingInsert)
	t.insertByReq = make(map[types.RequestID]types.Address)
	return fetches, inserts
}

// Fetches 在途下载数
func (t *Tracker) Fetches() int {
	return len(t.fetches)
}

// Inserts 在途上传数
func (t *Tracker) Inserts() int {
	return len(t.inserts)
}
