package introduction

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/dep2p/go-introducer/config"
	"github.com/dep2p/go-introducer/internal/puzzle"
	"github.com/dep2p/go-introducer/pkg/interfaces"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Params 介绍调度模块依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Trust      interfaces.TrustStore
	Puzzles    interfaces.PuzzleStore
	Transport  interfaces.Transport
	Codec      *puzzle.Codec
	Clock      clock.Clock           `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// Result 介绍调度模块提供的结果
type Result struct {
	fx.Out

	Client  *Client
	Metrics *Metrics
}

// Module 返回介绍调度 Fx 模块
//
// 生命周期:
//   - OnStart: 启动调度循环（启动延迟后执行第一个周期）
//   - OnStop: 停止循环并取消所有在途请求
func Module() fx.Option {
	return fx.Module("introduction",
		fx.Provide(ProvideClient),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideClient 提供调度器
func ProvideClient(p Params) (Result, error) {
	namespace := "introducer"
	if p.UnifiedCfg != nil && p.UnifiedCfg.Metrics.Namespace != "" {
		namespace = p.UnifiedCfg.Metrics.Namespace
	}
	var reg prometheus.Registerer
	if p.UnifiedCfg == nil || p.UnifiedCfg.Metrics.Enabled {
		reg = p.Registerer
	}
	metrics, err := NewMetrics(reg, namespace)
	if err != nil {
		return Result{}, err
	}

	client, err := New(ConfigFromUnified(p.UnifiedCfg), Deps{
		Trust:     p.Trust,
		Puzzles:   p.Puzzles,
		Transport: p.Transport,
		Codec:     p.Codec,
		Clock:     p.Clock,
		Metrics:   metrics,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Client: client, Metrics: metrics}, nil
}

func registerLifecycle(lc fx.Lifecycle, client *Client) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return client.Start()
		},
		OnStop: func(ctx context.Context) error {
			return client.Stop(ctx)
		},
	})
}
