package introduction

import "errors"

// 预定义错误
var (
	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("introduction: invalid config")

	// ErrNoLocalIdentity 未配置本地身份
	ErrNoLocalIdentity = errors.New("introduction: no local identity")

	// ErrMissingDependency 缺少依赖
	ErrMissingDependency = errors.New("introduction: missing dependency")

	// ErrAlreadyStarted 已启动
	ErrAlreadyStarted = errors.New("introduction: already started")

	// ErrStopped 已停止
	ErrStopped = errors.New("introduction: stopped")

	// ErrNotSolved 谜题尚未解答
	ErrNotSolved = errors.New("introduction: puzzle not solved")

	// ErrInsertPending 同一解答地址已有在途上传
	ErrInsertPending = errors.New("introduction: insert already pending")

	// ErrUnexpectedPuzzle 下载到的谜题与请求不符
	ErrUnexpectedPuzzle = errors.New("introduction: unexpected puzzle")
)
