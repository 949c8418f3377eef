package introduction

import (
	"fmt"
	"time"

	"github.com/dep2p/go-introducer/config"
	"github.com/dep2p/go-introducer/pkg/types"
)

// ============================================================================
//                              配置
// ============================================================================

// Config 介绍调度器配置
type Config struct {
	// LocalIdentity 执行下载的本地身份，评分相对于它计算
	LocalIdentity types.IdentityID

	// BatchSize 每轮最多选取的身份数
	BatchSize int

	// PoolCapacity 谜题池容量
	PoolCapacity int

	// WindowCapacity 最近请求身份窗口容量
	WindowCapacity int

	// MaxChainIndex 每个身份链式请求的最大序号（含）
	MaxChainIndex int

	// MinScoreToDownload 下载谜题要求发布者评分严格大于此值
	MinScoreToDownload int

	// MinScoreToDisplay 展示谜题要求发布者评分严格大于此值
	MinScoreToDisplay int

	// Period 调度周期
	Period time.Duration

	// JitterFraction 周期抖动比例，实际周期在 Period*(1±JitterFraction) 内均匀分布
	JitterFraction float64

	// StartupDelayMin / StartupDelayMax 启动延迟范围
	StartupDelayMin time.Duration
	StartupDelayMax time.Duration

	// PuzzleValidity 谜题自创建起的最长有效期
	PuzzleValidity time.Duration

	// CandidateMaxAge 只考虑在此时间内有变化的身份，0 表示不限
	CandidateMaxAge time.Duration

	// FallbackOnEmpty 首轮选择为空时忽略窗口重选并清空窗口
	FallbackOnEmpty bool

	// CompletionBuffer 完成通道容量
	CompletionBuffer int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BatchSize:          16,
		PoolCapacity:       128,
		WindowCapacity:     128,
		MaxChainIndex:      10,
		MinScoreToDownload: 10,
		MinScoreToDisplay:  50,
		Period:             10 * time.Minute,
		JitterFraction:     0.5,
		StartupDelayMin:    30 * time.Second,
		StartupDelayMax:    90 * time.Second,
		PuzzleValidity:     3 * 24 * time.Hour,
		CandidateMaxAge:    24 * time.Hour,
		FallbackOnEmpty:    true,
		CompletionBuffer:   64,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	switch {
	case c.LocalIdentity.IsEmpty():
		return ErrNoLocalIdentity
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidConfig)
	case c.PoolCapacity <= 0:
		return fmt.Errorf("%w: pool capacity must be positive", ErrInvalidConfig)
	case c.WindowCapacity <= 0:
		return fmt.Errorf("%w: window capacity must be positive", ErrInvalidConfig)
	case c.MaxChainIndex < 0:
		return fmt.Errorf("%w: max chain index must not be negative", ErrInvalidConfig)
	case c.Period <= 0:
		return fmt.Errorf("%w: period must be positive", ErrInvalidConfig)
	case c.JitterFraction < 0 || c.JitterFraction >= 1:
		return fmt.Errorf("%w: jitter fraction must be in [0,1)", ErrInvalidConfig)
	case c.StartupDelayMin < 0 || c.StartupDelayMax < c.StartupDelayMin:
		return fmt.Errorf("%w: invalid startup delay range", ErrInvalidConfig)
	case c.PuzzleValidity <= 0:
		return fmt.Errorf("%w: puzzle validity must be positive", ErrInvalidConfig)
	case c.CandidateMaxAge < 0:
		return fmt.Errorf("%w: candidate max age must not be negative", ErrInvalidConfig)
	case c.CompletionBuffer <= 0:
		return fmt.Errorf("%w: completion buffer must be positive", ErrInvalidConfig)
	}
	return nil
}

// ConfigFromUnified 从统一配置创建调度器配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	in := cfg.Introduction
	return Config{
		LocalIdentity:      types.IdentityID(in.LocalIdentity),
		BatchSize:          in.BatchSize,
		PoolCapacity:       in.PoolCapacity,
		WindowCapacity:     in.WindowCapacity,
		MaxChainIndex:      in.MaxChainIndex,
		MinScoreToDownload: in.MinScoreToDownload,
		MinScoreToDisplay:  in.MinScoreToDisplay,
		Period:             in.Period.Duration(),
		JitterFraction:     in.JitterFraction,
		StartupDelayMin:    in.StartupDelayMin.Duration(),
		StartupDelayMax:    in.StartupDelayMax.Duration(),
		PuzzleValidity:     time.Duration(in.PuzzleValidityDays) * 24 * time.Hour,
		CandidateMaxAge:    in.CandidateMaxAge.Duration(),
		FallbackOnEmpty:    in.FallbackOnEmpty,
		CompletionBuffer:   in.CompletionBuffer,
	}
}
