package puzzle

import "errors"

var (
	// ErrMalformed 文档无法解码
	ErrMalformed = errors.New("puzzle: malformed document")

	// ErrMissingField 文档缺少必需字段
	ErrMissingField = errors.New("puzzle: missing required field")

	// ErrTooLarge 文档或解压后的数据超过上限
	ErrTooLarge = errors.New("puzzle: document too large")
)
