package config

import "fmt"

// Config 统一配置
type Config struct {
	Introduction IntroductionConfig `json:"introduction"`

	Storage StorageConfig `json:"storage"`

	Transport TransportConfig `json:"transport"`

	Metrics MetricsConfig `json:"metrics"`

	Log LogConfig `json:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Introduction: DefaultIntroductionConfig(),
		Storage:      DefaultStorageConfig(),
		Transport:    DefaultTransportConfig(),
		Metrics:      DefaultMetricsConfig(),
		Log:          DefaultLogConfig(),
	}
}

// Validate 验证所有配置段
func (c *Config) Validate() error {
	if err := c.Introduction.Validate(); err != nil {
		return fmt.Errorf("introduction: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Transport.Validate(); err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return c.Log.Validate()
}

// Clone 深拷贝配置
func (c *Config) Clone() *Config {
	out := *c
	return &out
}
