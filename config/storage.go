package config

import (
	"errors"
	"path/filepath"
	"time"
)

// StorageConfig 存储配置
type StorageConfig struct {
	// DataDir 数据目录
	DataDir string `json:"data_dir"`

	// InMemory 使用纯内存存储（演示与测试）
	InMemory bool `json:"in_memory,omitempty"`

	// SyncWrites 同步写入
	SyncWrites bool `json:"sync_writes,omitempty"`

	// GCInterval 值日志 GC 间隔
	GCInterval Duration `json:"gc_interval"`
}

// DefaultStorageConfig 返回默认配置
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		DataDir:    "./data",
		GCInterval: Duration(10 * time.Minute),
	}
}

// Validate 验证配置
func (c *StorageConfig) Validate() error {
	if !c.InMemory && c.DataDir == "" {
		return errors.New("data_dir cannot be empty")
	}
	if c.GCInterval < 0 {
		return errors.New("gc_interval must not be negative")
	}
	return nil
}

// DBPath 数据库目录
func (c *StorageConfig) DBPath() string {
	return filepath.Join(c.DataDir, "introducer.db")
}
