package local

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/dep2p/go-introducer/config"
	"github.com/dep2p/go-introducer/internal/core/storage/kv"
	"github.com/dep2p/go-introducer/pkg/interfaces"
	"go.uber.org/fx"
)

// KeyPrefix 内容在根 KVStore 中的前缀
const KeyPrefix = "content/"

// Params Local 传输模块依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Root       *kv.Store
	Clock      clock.Clock `optional:"true"`
}

// Result Local 传输模块提供的结果
type Result struct {
	fx.Out

	Local     *Transport
	Transport interfaces.Transport
}

// Module 返回本地传输 Fx 模块
func Module() fx.Option {
	return fx.Module("transport/local",
		fx.Provide(ProvideTransport),
		fx.Invoke(registerLifecycle),
	)
}

// ConfigFromUnified 从统一配置创建传输配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return Config{
		RateLimit: cfg.Transport.RateLimit,
		Burst:     cfg.Transport.Burst,
		Latency:   cfg.Transport.Latency.Duration(),
	}
}

// ProvideTransport 提供本地传输
func ProvideTransport(p Params) Result {
	t := New(p.Root.SubStore([]byte(KeyPrefix)), ConfigFromUnified(p.UnifiedCfg), p.Clock)
	return Result{Local: t, Transport: t}
}

func registerLifecycle(lc fx.Lifecycle, t *Transport) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			logger.Info("关闭本地传输", "pending", t.Pending())
			return t.Close()
		},
	})
}
