package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dep2p/go-introducer/config"
)

// ============================================================================
//                              配置加载（CLI 专用）
// ============================================================================

// 环境变量（均使用 INTRODUCER_ 前缀）
const (
	envPrefix        = "INTRODUCER_"
	envPreset        = "PRESET"
	envDataDir       = "DATA_DIR"
	envLocalIdentity = "LOCAL_IDENTITY"
	envMetricsAddr   = "METRICS_ADDR"
	envInMemory      = "IN_MEMORY"
)

// demoLocalIdentity 演示模式下的默认本地身份
const demoLocalIdentity = "demo-local"

// buildConfig 构建配置
//
// 配置优先级（从高到低）：
//  1. 命令行参数
//  2. 环境变量（INTRODUCER_* 前缀）
//  3. 配置文件
//  4. 默认值
//
// 预设在文件之后、覆盖之前应用。
func buildConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if *configFile != "" {
		loaded, err := config.LoadFile(*configFile)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
		cfg = loaded
	}

	presetName := firstNonEmpty(flagValue("preset", *preset), getEnv(envPreset))
	if err := config.ApplyPreset(cfg, presetName); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if isFlagSet("data-dir") && *dataDir != "" {
		cfg.Storage.DataDir = *dataDir
	}
	if isFlagSet("local-identity") && *localIdentity != "" {
		cfg.Introduction.LocalIdentity = *localIdentity
	}
	if isFlagSet("metrics-addr") {
		cfg.Metrics.ListenAddr = *metricsAddr
	}

	if *demo {
		applyDemo(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Introduction.LocalIdentity == "" {
		return nil, fmt.Errorf("未设置本地身份（-local-identity 或 %s%s）", envPrefix, envLocalIdentity)
	}
	return cfg, nil
}

// applyEnvOverrides 应用环境变量覆盖配置
func applyEnvOverrides(cfg *config.Config) {
	if v := getEnv(envDataDir); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := getEnv(envLocalIdentity); v != "" {
		cfg.Introduction.LocalIdentity = v
	}
	if v := getEnv(envMetricsAddr); v != "" {
		cfg.Metrics.ListenAddr = v
	}
	if v := getEnv(envInMemory); v != "" {
		cfg.Storage.InMemory = parseBool(v)
	}
}

// applyDemo 演示模式：内存存储、快速启动
func applyDemo(cfg *config.Config) {
	cfg.Storage.InMemory = true
	if cfg.Introduction.LocalIdentity == "" {
		cfg.Introduction.LocalIdentity = demoLocalIdentity
	}
	cfg.Introduction.StartupDelayMin = config.Duration(time.Second)
	cfg.Introduction.StartupDelayMax = config.Duration(2 * time.Second)
	cfg.Introduction.Period = config.Duration(30 * time.Second)
	cfg.Transport.Latency = config.Duration(200 * time.Millisecond)
}

// ============================================================================
//                              辅助函数
// ============================================================================

func getEnv(name string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + name))
}

// isFlagSet 检查命令行参数是否被显式设置
func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// flagValue 参数被显式设置时返回其值
func flagValue(name, value string) string {
	if isFlagSet(name) {
		return value
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseBool 解析布尔值字符串
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
