package types

import "time"

// PuzzleType 谜题类型
type PuzzleType string

const (
	// PuzzleTypeCaptcha 图片验证码谜题
	PuzzleTypeCaptcha PuzzleType = "Captcha"
)

// Puzzle 介绍谜题
//
// 由谜题存储拥有：成功下载时创建，设置解答时修改一次，
// 过期或池淘汰时删除。
type Puzzle struct {
	// ID 谜题标识
	ID PuzzleID `json:"id"`

	// Type 类型标签
	Type PuzzleType `json:"type"`

	// MimeType 数据的 MIME 类型
	MimeType string `json:"mime_type,omitempty"`

	// Data 谜题内容
	Data []byte `json:"data,omitempty"`

	// Inserter 发布者
	Inserter IdentityID `json:"inserter"`

	// Index 链式序号（从 0 开始）
	Index int `json:"index"`

	// CreatedAt 创建时间
	CreatedAt time.Time `json:"created_at"`

	// ValidUntil 过期时间
	ValidUntil time.Time `json:"valid_until"`

	// Solution 解答，只能设置一次
	Solution string `json:"solution,omitempty"`

	// Solver 解答者
	Solver IdentityID `json:"solver,omitempty"`
}

// IsSolved 是否已解答
func (p *Puzzle) IsSolved() bool {
	return p.Solution != ""
}

// Expired 在 now 时刻是否已过期
func (p *Puzzle) Expired(now time.Time) bool {
	return !p.ValidUntil.IsZero() && p.ValidUntil.Before(now)
}

// Day 谜题所属的 UTC 日期，用于派生地址
func (p *Puzzle) Day() time.Time {
	y, m, d := p.CreatedAt.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
