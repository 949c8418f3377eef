package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config 存储引擎配置
type Config struct {
	// Path 数据库目录；InMemory 时忽略
	Path string

	// InMemory 纯内存模式（演示与测试）
	InMemory bool

	// SyncWrites 每次写入同步到磁盘
	SyncWrites bool

	// BlockCacheSize 块缓存大小（字节）
	BlockCacheSize int64

	// ZSTDCompressionLevel 压缩级别（0 禁用）
	ZSTDCompressionLevel int

	// GCInterval 值日志 GC 间隔（0 禁用）
	GCInterval time.Duration

	// GCDiscardRatio 值日志 GC 丢弃比例
	GCDiscardRatio float64
}

// DefaultConfig 返回默认配置
func DefaultConfig(path string) *Config {
	return &Config{
		Path:                 path,
		BlockCacheSize:       64 << 20, // 64MB
		ZSTDCompressionLevel: 1,
		GCInterval:           10 * time.Minute,
		GCDiscardRatio:       0.5,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if !c.InMemory && c.Path == "" {
		return fmt.Errorf("%w: path required", ErrInvalidConfig)
	}
	if c.GCInterval > 0 && (c.GCDiscardRatio <= 0 || c.GCDiscardRatio >= 1) {
		return fmt.Errorf("%w: gc discard ratio must be in (0,1)", ErrInvalidConfig)
	}
	if c.BlockCacheSize < 0 {
		return fmt.Errorf("%w: negative block cache size", ErrInvalidConfig)
	}
	return nil
}

// EnsureDir 确保数据目录存在并转为绝对路径
func (c *Config) EnsureDir() error {
	if c.InMemory {
		return nil
	}
	abs, err := filepath.Abs(c.Path)
	if err != nil {
		return err
	}
	c.Path = abs
	return os.MkdirAll(c.Path, 0o755)
}
