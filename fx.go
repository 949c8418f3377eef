package introducer

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-introducer/internal/core/storage"
	"github.com/dep2p/go-introducer/internal/core/storage/engine"
	"github.com/dep2p/go-introducer/internal/introduction"
	"github.com/dep2p/go-introducer/internal/puzzle"
	"github.com/dep2p/go-introducer/internal/transport/local"
	"github.com/dep2p/go-introducer/internal/trust"
)

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. Storage: BadgerDB 引擎与根 KVStore
//  2. Trust / Puzzle: 两个存储适配器
//  3. Transport: 本地内容寻址传输
//  4. Introduction: 调度器（OnStart 启动循环，OnStop 最先停止）
func buildFxApp(opts *options, n *Introducer) (*fx.App, error) {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置验证（前置）
	// ════════════════════════════════════════════════════════════════════════
	if err := opts.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 模块
	// ════════════════════════════════════════════════════════════════════════
	modules := []fx.Option{
		fx.Supply(opts.config),

		storage.Module(),
		trust.Module(),
		puzzle.Module(),
		local.Module(),
		introduction.Module(),
	}

	// ════════════════════════════════════════════════════════════════════════
	// 3. 可选依赖
	// ════════════════════════════════════════════════════════════════════════
	if opts.clock != nil {
		clk := opts.clock
		modules = append(modules, fx.Provide(func() clock.Clock { return clk }))
	}
	if opts.registerer != nil {
		reg := opts.registerer
		modules = append(modules, fx.Provide(func() prometheus.Registerer { return reg }))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 4. 用户扩展与组件注入
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, opts.userFxOptions...)
	modules = append(modules, fx.Invoke(injectComponents(n)))

	// ════════════════════════════════════════════════════════════════════════
	// 5. Fx 配置
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		// 禁用 Fx 日志输出（避免干扰用户日志）
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build app: %w", err)
	}
	return app, nil
}

// injectParams 组件注入参数
type injectParams struct {
	fx.In

	Engine    engine.Engine
	Client    *introduction.Client
	Trust     *trust.Store
	Puzzles   *puzzle.Store
	Codec     *puzzle.Codec
	Transport *local.Transport
}

// injectComponents 把 Fx 构造的组件注入 Introducer
func injectComponents(n *Introducer) interface{} {
	return func(p injectParams) {
		n.engine = p.Engine
		n.client = p.Client
		n.trust = p.Trust
		n.puzzles = p.Puzzles
		n.codec = p.Codec
		n.transport = p.Transport
	}
}
