package introducer

import "errors"

// 公共错误定义
var (
	// ErrNotStarted 未启动
	ErrNotStarted = errors.New("introducer not started")

	// ErrAlreadyStarted 已启动
	ErrAlreadyStarted = errors.New("introducer already started")

	// ErrClosed 已关闭
	ErrClosed = errors.New("introducer closed")
)
