package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// FromJSON 从 JSON 数据创建配置，未出现的字段保留默认值
//
//	{
//	  "introduction": {"local_identity": "...", "period": "5m"},
//	  "storage": {"data_dir": "/var/lib/introducer"}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// LoadFile 从 JSON 文件加载配置
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return FromJSON(data)
}

// ApplyPreset 应用预设配置
//
// 支持的预设：
//   - "default": 默认节奏（10 分钟一轮）
//   - "aggressive": 快速发现，适合新加入网络的身份
//   - "quiet": 低频低量，适合长期在线的成熟身份
func ApplyPreset(cfg *Config, presetName string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	in := &cfg.Introduction
	switch presetName {
	case "", "default":
		return nil
	case "aggressive":
		in.BatchSize = 32
		in.Period = Duration(2 * time.Minute)
		in.JitterFraction = 0.25
		in.StartupDelayMin = Duration(5 * time.Second)
		in.StartupDelayMax = Duration(15 * time.Second)
		return nil
	case "quiet":
		in.BatchSize = 4
		in.MaxChainIndex = 3
		in.Period = Duration(30 * time.Minute)
		in.StartupDelayMin = Duration(2 * time.Minute)
		in.StartupDelayMax = Duration(5 * time.Minute)
		return nil
	default:
		return fmt.Errorf("unknown preset: %s", presetName)
	}
}
