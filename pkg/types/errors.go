package types

import "errors"

// ============================================================================
//                              ID 相关错误
// ============================================================================

var (
	// ErrEmptyIdentityID 空身份 ID
	ErrEmptyIdentityID = errors.New("empty identity ID")

	// ErrInvalidIdentityID 无效的身份 ID
	ErrInvalidIdentityID = errors.New("invalid identity ID")
)

// ============================================================================
//                              信任存储错误
// ============================================================================

var (
	// ErrIdentityNotFound 身份不存在
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrNoScore 未计算过相对评分，视为不合格
	ErrNoScore = errors.New("no score")
)

// ============================================================================
//                              谜题存储错误
// ============================================================================

var (
	// ErrPuzzleNotFound 谜题不存在
	ErrPuzzleNotFound = errors.New("puzzle not found")

	// ErrPuzzleExists 谜题已存在
	ErrPuzzleExists = errors.New("puzzle already exists")

	// ErrAlreadySolved 谜题已有解答
	ErrAlreadySolved = errors.New("puzzle already solved")

	// ErrEmptySolution 空解答
	ErrEmptySolution = errors.New("empty solution")
)

// ============================================================================
//                              传输错误
// ============================================================================

var (
	// ErrContentNotFound 地址上没有内容（链式下载的正常终止条件）
	ErrContentNotFound = errors.New("content not found")

	// ErrTransportClosed 传输已关闭
	ErrTransportClosed = errors.New("transport closed")
)
