package introduction

import "github.com/dep2p/go-introducer/pkg/types"

// chain 单个身份的链式发现状态：正在等待序号 awaiting 的结果
type chain struct {
	awaiting int
}

// chains 所有身份的链式发现状态
//
// 每个身份发布序号连续的一串谜题，每观察到一次成功才请求下一个序号，
// 直到 limit（含）。失败、取消或周期切换时链结束。非并发安全。
type chains struct {
	limit int
	m     map[types.IdentityID]*chain
}

func newChains(limit int) *chains {
	return &chains{limit: limit, m: make(map[types.IdentityID]*chain)}
}

// await 记录身份正在等待 index
func (c *chains) await(id types.IdentityID, index int) {
	if ch, ok := c.m[id]; ok {
		ch.awaiting = index
		return
	}
	c.m[id] = &chain{awaiting: index}
}

// advance 序号 completed 成功后返回下一个应请求的序号
//
// 仅当链仍在等待 completed 且 completed 低于上限时返回 true。
func (c *chains) advance(id types.IdentityID, completed int) (int, bool) {
	ch, ok := c.m[id]
	if !ok || ch.awaiting != completed {
		return 0, false
	}
	if completed >= c.limit {
		delete(c.m, id)
		return 0, false
	}
	return completed + 1, true
}

// end 结束身份的链；只有仍在等待 index 时才结束
func (c *chains) end(id types.IdentityID, index int) {
	if ch, ok := c.m[id]; ok && ch.awaiting == index {
		delete(c.m, id)
	}
}

// awaiting 返回身份正在等待的序号
func (c *chains) awaiting(id types.IdentityID) (int, bool) {
	ch, ok := c.m[id]
	if !ok {
		return 0, false
	}
	return ch.awaiting, true
}

// reset 结束所有链
func (c *chains) reset() {
	c.m = make(map[types.IdentityID]*chain)
}

// len 活跃链数
func (c *chains) len() int {
	return len(c.m)
}
