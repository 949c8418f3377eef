// Package puzzle 实现谜题存储、谜题文档编解码与地址派生
//
// 存储基于 BadgerDB，所有写操作都在单个事务内完成；
// 池淘汰依据本地保存时间索引，从最早保存的谜题开始删除。
package puzzle

import (
	"time"

	"github.com/dep2p/go-introducer/pkg/types"
	"github.com/google/uuid"
)

// MaxIndex 文档中允许的最大链式序号
const MaxIndex = 1 << 16

// NewPuzzle 创建由 inserter 发布的新谜题
//
// 有效期从 now 起算 validity。
func NewPuzzle(inserter types.IdentityID, typ types.PuzzleType, mime string, data []byte, index int, now time.Time, validity time.Duration) *types.Puzzle {
	return &types.Puzzle{
		ID:         types.PuzzleID(uuid.NewString()),
		Type:       typ,
		MimeType:   mime,
		Data:       data,
		Inserter:   inserter,
		Index:      index,
		CreatedAt:  now.UTC(),
		ValidUntil: now.UTC().Add(validity),
	}
}

// ValidID 检查谜题 ID 是否为合法 UUID
func ValidID(id types.PuzzleID) bool {
	_, err := uuid.Parse(string(id))
	return err == nil
}
