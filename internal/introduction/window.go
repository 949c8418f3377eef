package introduction

import (
	"github.com/dep2p/go-introducer/pkg/types"
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Window 最近请求过的身份集合
//
// 固定容量、按插入顺序排列，成员检查 O(1)，溢出时淘汰最旧的身份。
// 只用于避免同一身份被重复请求，不影响正确性。非并发安全，由 Client 的锁保护。
type Window struct {
	lru *simplelru.LRU[types.IdentityID, struct{}]
}

// NewWindow 创建容量为 capacity 的窗口
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = 1
	}
	lru, err := simplelru.NewLRU[types.IdentityID, struct{}](capacity, nil)
	if err != nil {
		// 仅在 capacity <= 0 时出错，上面已经排除
		panic(err)
	}
	return &Window{lru: lru}
}

// Remember 把身份放到最新位置，必要时淘汰最旧的身份
func (w *Window) Remember(id types.IdentityID) (evicted bool) {
	return w.lru.Add(id, struct{}{})
}

// Contains 检查身份是否在窗口中，不改变顺序
func (w *Window) Contains(id types.IdentityID) bool {
	return w.lru.Contains(id)
}

// Len 当前成员数
func (w *Window) Len() int {
	return w.lru.Len()
}

// Clear 清空窗口
func (w *Window) Clear() {
	w.lru.Purge()
}

// Members 返回成员，从旧到新
func (w *Window) Members() []types.IdentityID {
	return w.lru.Keys()
}

// snapshot 返回成员集合，供锁外的选择使用
func (w *Window) snapshot() map[types.IdentityID]struct{} {
	keys := w.lru.Keys()
	out := make(map[types.IdentityID]struct{}, len(keys))
	for _, k := range keys {
		out[k] = struct{}{}
	}
	return out
}
