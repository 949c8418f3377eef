package interfaces

import (
	"context"
	"time"

	"github.com/dep2p/go-introducer/pkg/types"
)

// PuzzleStore 谜题存储
//
// 每次写入都是立即提交的原子操作。调用方不会在持有自身锁时调用存储。
type PuzzleStore interface {
	// Store 保存新谜题；ID 已存在时返回 types.ErrPuzzleExists
	Store(ctx context.Context, p *types.Puzzle) error

	// Get 读取谜题
	Get(ctx context.Context, id types.PuzzleID) (*types.Puzzle, error)

	// MarkSolved 设置解答；已有解答时返回 types.ErrAlreadySolved
	MarkSolved(ctx context.Context, id types.PuzzleID, solution string, solver types.IdentityID) (*types.Puzzle, error)

	// PurgeExpired 删除 ValidUntil 早于 horizon 的谜题，返回删除数量
	PurgeExpired(ctx context.Context, horizon time.Time) (int, error)

	// EvictOldest 按本地保存顺序删除最早的谜题，直到最多剩余 keep 个
	EvictOldest(ctx context.Context, keep int) (int, error)

	// Count 当前谜题数量
	Count(ctx context.Context) (int, error)

	// Unsolved 返回指定类型的未解答谜题，按本地保存时间从新到旧
	Unsolved(ctx context.Context, typ types.PuzzleType) ([]*types.Puzzle, error)
}
