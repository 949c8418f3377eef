package storage

import (
	"context"

	"github.com/dep2p/go-introducer/config"
	"github.com/dep2p/go-introducer/internal/core/storage/engine"
	"github.com/dep2p/go-introducer/internal/core/storage/engine/badger"
	"github.com/dep2p/go-introducer/internal/core/storage/kv"
	"github.com/dep2p/go-introducer/pkg/lib/log"
	"go.uber.org/fx"
)

var logger = log.Logger("storage")

// Params Storage 模块依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Result Storage 模块提供的结果
type Result struct {
	fx.Out

	Engine engine.Engine
	Root   *kv.Store
}

// Module 返回 Storage Fx 模块
//
// 提供:
//   - engine.Engine: 存储引擎
//   - *kv.Store: 根 KVStore，各组件自行 SubStore
//
// 生命周期:
//   - OnStart: 启动引擎后台 GC
//   - OnStop: 关闭引擎
func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(ProvideStorage),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideStorage 提供存储引擎
func ProvideStorage(p Params) (Result, error) {
	eng, err := NewEngine(ConfigFromUnified(p.UnifiedCfg))
	if err != nil {
		return Result{}, err
	}
	return Result{Engine: eng, Root: kv.New(eng, nil)}, nil
}

func registerLifecycle(lc fx.Lifecycle, eng engine.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if err := eng.Start(); err != nil {
				logger.Error("存储引擎启动失败", "error", err)
				return err
			}
			logger.Info("存储引擎启动成功")
			return nil
		},
		OnStop: func(_ context.Context) error {
			if err := eng.Close(); err != nil {
				logger.Warn("存储引擎关闭失败", "error", err)
				return err
			}
			logger.Info("存储引擎已关闭")
			return nil
		},
	})
}

// NewEngine 根据配置创建存储引擎
func NewEngine(cfg *engine.Config) (engine.Engine, error) {
	logger.Debug("创建存储引擎", "path", cfg.Path, "inMemory", cfg.InMemory)
	eng, err := badger.New(cfg)
	if err != nil {
		logger.Error("创建存储引擎失败", "error", err)
		return nil, err
	}
	return eng, nil
}

// NewMemory 创建纯内存存储引擎
func NewMemory() (engine.Engine, error) {
	cfg := engine.DefaultConfig("")
	cfg.InMemory = true
	cfg.GCInterval = 0
	return NewEngine(cfg)
}
