// Package config 提供 go-introducer 的统一配置
//
// 所有组件从同一个 Config 读取各自的配置段，
// 再由组件自身的 ConfigFromUnified 转换为内部配置：
//
//	cfg := config.NewConfig()
//	cfg.Introduction.LocalIdentity = "..."
//	if err := config.ApplyPreset(cfg, "aggressive"); err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// 配置文件为 JSON，时长字段接受 "10m" 形式的字符串或纳秒整数。
package config
