// Package badger 提供基于 BadgerDB 的存储引擎实现
//
// 支持持久化与纯内存两种模式。持久化模式下后台定期执行值日志 GC。
//
//	cfg := engine.DefaultConfig("/data/introducer")
//	db, err := badger.New(cfg)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
package badger
