package types

import (
	"strings"

	"github.com/minio/sha256-simd"
	"github.com/mr-tron/base58"
)

// ============================================================================
//                              IdentityID - 身份标识
// ============================================================================

// IdentityID 信任网络中身份的稳定标识
//
// 通常由公钥派生（公钥 SHA256 的 Base58 编码），
// 但存储层只要求非空且不含路径分隔符。
type IdentityID string

// IdentityIDFromPublicKey 从公钥字节派生 IdentityID
func IdentityIDFromPublicKey(pub []byte) IdentityID {
	sum := sha256.Sum256(pub)
	return IdentityID(base58.Encode(sum[:]))
}

// String 返回字符串表示
func (id IdentityID) String() string {
	return string(id)
}

// ShortString 返回前 8 个字符，用于日志
func (id IdentityID) ShortString() string {
	s := string(id)
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// IsEmpty 检查是否为空
func (id IdentityID) IsEmpty() bool {
	return id == ""
}

// Validate 校验 IdentityID 可以安全地出现在地址和存储键中
func (id IdentityID) Validate() error {
	if id == "" {
		return ErrEmptyIdentityID
	}
	if strings.ContainsAny(string(id), "/\x00") {
		return ErrInvalidIdentityID
	}
	return nil
}

// ============================================================================
//                              其他标识
// ============================================================================

// PuzzleID 谜题唯一标识（UUID 字符串）
type PuzzleID string

// String 返回字符串表示
func (id PuzzleID) String() string {
	return string(id)
}

// RequestID 传输层请求句柄
//
// 由传输层在发起 fetch/insert 时分配，0 表示无效句柄。
type RequestID uint64

// Address 内容寻址地址
type Address string

// String 返回字符串表示
func (a Address) String() string {
	return string(a)
}
