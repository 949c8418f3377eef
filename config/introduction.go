package config

import (
	"errors"
	"time"
)

// IntroductionConfig 谜题介绍调度配置
type IntroductionConfig struct {
	// LocalIdentity 执行下载的本地身份
	LocalIdentity string `json:"local_identity"`

	// BatchSize 每轮选取的身份数量
	BatchSize int `json:"batch_size"`

	// PoolCapacity 谜题池容量
	PoolCapacity int `json:"pool_capacity"`

	// WindowCapacity 最近请求身份窗口容量
	WindowCapacity int `json:"window_capacity"`

	// MaxChainIndex 每个身份的最大链式序号
	MaxChainIndex int `json:"max_chain_index"`

	// MinScoreToDownload 下载所需评分（严格大于）
	MinScoreToDownload int `json:"min_score_to_download"`

	// MinScoreToDisplay 展示所需评分（严格大于）
	MinScoreToDisplay int `json:"min_score_to_display"`

	// Period 调度周期
	Period Duration `json:"period"`

	// JitterFraction 周期抖动比例，0.5 表示 ±50%
	JitterFraction float64 `json:"jitter_fraction"`

	// StartupDelayMin / StartupDelayMax 启动延迟范围
	StartupDelayMin Duration `json:"startup_delay_min"`
	StartupDelayMax Duration `json:"startup_delay_max"`

	// PuzzleValidityDays 谜题有效天数
	PuzzleValidityDays int `json:"puzzle_validity_days"`

	// CandidateMaxAge 候选身份的新鲜度范围
	CandidateMaxAge Duration `json:"candidate_max_age"`

	// FallbackOnEmpty 首轮为空时忽略窗口重选
	FallbackOnEmpty bool `json:"fallback_on_empty"`

	// CompletionBuffer 完成通知通道容量
	CompletionBuffer int `json:"completion_buffer"`
}

// DefaultIntroductionConfig 返回默认配置
func DefaultIntroductionConfig() IntroductionConfig {
	return IntroductionConfig{
		BatchSize:          16,
		PoolCapacity:       128,
		WindowCapacity:     128,
		MaxChainIndex:      10,
		MinScoreToDownload: 10,
		MinScoreToDisplay:  50,
		Period:             Duration(10 * time.Minute),
		JitterFraction:     0.5,
		StartupDelayMin:    Duration(30 * time.Second),
		StartupDelayMax:    Duration(90 * time.Second),
		PuzzleValidityDays: 3,
		CandidateMaxAge:    Duration(24 * time.Hour),
		FallbackOnEmpty:    true,
		CompletionBuffer:   64,
	}
}

// Validate 验证配置
func (c *IntroductionConfig) Validate() error {
	switch {
	case c.BatchSize <= 0:
		return errors.New("batch_size must be positive")
	case c.PoolCapacity <= 0:
		return errors.New("pool_capacity must be positive")
	case c.WindowCapacity <= 0:
		return errors.New("window_capacity must be positive")
	case c.MaxChainIndex < 0:
		return errors.New("max_chain_index must not be negative")
	case c.Period <= 0:
		return errors.New("period must be positive")
	case c.JitterFraction < 0 || c.JitterFraction >= 1:
		return errors.New("jitter_fraction must be in [0,1)")
	case c.StartupDelayMin < 0 || c.StartupDelayMax < c.StartupDelayMin:
		return errors.New("invalid startup delay range")
	case c.PuzzleValidityDays <= 0:
		return errors.New("puzzle_validity_days must be positive")
	case c.CandidateMaxAge < 0:
		return errors.New("candidate_max_age must not be negative")
	case c.CompletionBuffer <= 0:
		return errors.New("completion_buffer must be positive")
	}
	return nil
}
