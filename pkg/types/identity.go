package types

import (
	"slices"
	"time"
)

// IntroductionContext 声明“提供介绍谜题”的能力标签
const IntroductionContext = "Introduction"

// Identity 信任网络中的一个节点
//
// 由信任存储拥有，调度器只读取快照。
type Identity struct {
	// ID 稳定标识
	ID IdentityID `json:"id"`

	// Nickname 昵称
	Nickname string `json:"nickname,omitempty"`

	// LastChange 最后一次观察到变更的时间（新鲜度）
	LastChange time.Time `json:"last_change"`

	// Contexts 声明的能力标签
	Contexts []string `json:"contexts,omitempty"`

	// Own 是否为本地控制的身份
	Own bool `json:"own,omitempty"`
}

// HasContext 检查是否声明了指定的能力标签
func (i *Identity) HasContext(tag string) bool {
	return slices.Contains(i.Contexts, tag)
}

// OffersIntroduction 是否提供介绍谜题
func (i *Identity) OffersIntroduction() bool {
	return i.HasContext(IntroductionContext)
}
