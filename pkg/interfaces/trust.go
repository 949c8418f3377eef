package interfaces

import (
	"context"
	"time"

	"github.com/dep2p/go-introducer/pkg/types"
)

// TrustStore 信任存储
//
// 调度器只读取快照，从不修改身份记录。所有方法必须线程安全。
type TrustStore interface {
	// ScoreOf 返回 id 相对于 local 的评分
	//
	// 从未计算过评分时返回 types.ErrNoScore。
	ScoreOf(ctx context.Context, local, id types.IdentityID) (int, error)

	// AllKnownIdentities 返回 LastChange 晚于 changedSince 的身份，
	// 按 LastChange 降序排列；excludeOwn 为 true 时跳过本地身份
	AllKnownIdentities(ctx context.Context, excludeOwn bool, changedSince time.Time) ([]types.Identity, error)

	// HasCapability 检查身份是否声明了能力标签
	HasCapability(ctx context.Context, id types.IdentityID, tag string) (bool, error)

	// Identity 返回单个身份记录
	Identity(ctx context.Context, id types.IdentityID) (*types.Identity, error)
}
