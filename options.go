package introducer

import (
	"errors"

	"github.com/benbjohnson/clock"
	"github.com/dep2p/go-introducer/config"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	config *config.Config

	// 可选的外部依赖
	clock      clock.Clock
	registerer prometheus.Registerer

	// 用户自定义 Fx 选项
	userFxOptions []fx.Option
}

func newOptions() *options {
	return &options{config: config.NewConfig()}
}

// WithConfig 使用完整的统一配置
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config cannot be nil")
		}
		o.config = cfg.Clone()
		return nil
	}
}

// WithPreset 应用预设（default / aggressive / quiet）
func WithPreset(name string) Option {
	return func(o *options) error {
		return config.ApplyPreset(o.config, name)
	}
}

// WithDataDir 设置数据目录
func WithDataDir(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			return errors.New("data dir cannot be empty")
		}
		o.config.Storage.DataDir = dir
		return nil
	}
}

// WithInMemory 使用纯内存存储
func WithInMemory() Option {
	return func(o *options) error {
		o.config.Storage.InMemory = true
		return nil
	}
}

// WithLocalIdentity 设置执行下载的本地身份
func WithLocalIdentity(id string) Option {
	return func(o *options) error {
		o.config.Introduction.LocalIdentity = id
		return nil
	}
}

// WithClock 注入时钟（测试用）
func WithClock(clk clock.Clock) Option {
	return func(o *options) error {
		o.clock = clk
		return nil
	}
}

// WithRegisterer 注册 Prometheus 指标
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.registerer = reg
		return nil
	}
}

// WithFxOptions 追加自定义 Fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}
