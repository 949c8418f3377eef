package config

import "errors"

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enabled 是否注册 Prometheus 指标
	Enabled bool `json:"enabled"`

	// ListenAddr /metrics HTTP 监听地址，空表示不监听
	ListenAddr string `json:"listen_addr,omitempty"`

	// Namespace 指标命名空间
	Namespace string `json:"namespace"`
}

// DefaultMetricsConfig 返回默认配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "introducer",
	}
}

// Validate 验证配置
func (c *MetricsConfig) Validate() error {
	if c.Enabled && c.Namespace == "" {
		return errors.New("namespace cannot be empty")
	}
	return nil
}

// LogConfig 日志配置
//
// 为空时使用 INTRODUCER_LOG_LEVEL / INTRODUCER_LOG_FORMAT 环境变量。
type LogConfig struct {
	// Level 级别字符串，格式同 INTRODUCER_LOG_LEVEL
	Level string `json:"level,omitempty"`

	// Format text 或 json
	Format string `json:"format,omitempty"`
}

// DefaultLogConfig 返回默认配置
func DefaultLogConfig() LogConfig {
	return LogConfig{}
}

// Validate 验证配置
func (c *LogConfig) Validate() error {
	switch c.Format {
	case "", "text", "json":
		return nil
	default:
		return errors.New("log: format must be text or json")
	}
}
