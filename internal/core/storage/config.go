package storage

import (
	"github.com/dep2p/go-introducer/config"
	"github.com/dep2p/go-introducer/internal/core/storage/engine"
)

// ConfigFromUnified 从统一配置创建引擎配置
func ConfigFromUnified(cfg *config.Config) *engine.Config {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	sc := cfg.Storage
	ec := engine.DefaultConfig(sc.DBPath())
	ec.InMemory = sc.InMemory
	ec.SyncWrites = sc.SyncWrites
	ec.GCInterval = sc.GCInterval.Duration()
	return ec
}
