package config

import "errors"

// TransportConfig 传输配置
//
// 目前只有进程内的本地传输；网络传输由嵌入方通过 fx 注入。
type TransportConfig struct {
	// RateLimit 每秒完成的请求数上限（0 不限速）
	RateLimit float64 `json:"rate_limit"`

	// Burst 突发容量
	Burst int `json:"burst"`

	// Latency 每个请求的模拟延迟
	Latency Duration `json:"latency"`
}

// DefaultTransportConfig 返回默认配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		RateLimit: 0,
		Burst:     8,
	}
}

// Validate 验证配置
func (c *TransportConfig) Validate() error {
	if c.RateLimit < 0 {
		return errors.New("rate_limit must not be negative")
	}
	if c.RateLimit > 0 && c.Burst <= 0 {
		return errors.New("burst must be positive when rate limiting")
	}
	if c.Latency < 0 {
		return errors.New("latency must not be negative")
	}
	return nil
}
