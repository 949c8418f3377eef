// Package log 提供 go-introducer 统一日志接口
//
// 基于 Go 标准库 log/slog 封装，组件通过 Logger 获取懒加载 logger：
//
//	var logger = log.Logger("introduction")
//	logger.Info("cycle done", "selected", n, "cancelled", c)
//
// 每次日志调用都从 slog.Default() 获取最新的 handler，
// 并按 INTRODUCER_LOG_LEVEL 中配置的组件级别过滤。
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// 日志级别常量（从 slog 导出，方便使用）
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var (
	// levels 运行时覆盖的组件级别
	levels sync.Map // map[string]slog.Level

	// output 当前输出目标
	output   io.Writer = os.Stderr
	outputMu sync.RWMutex
)

// dynamicWriter 每次写入时查找当前的 output，
// 使 SetOutput 对已创建的 handler 同样生效
type dynamicWriter struct{}

func (dynamicWriter) Write(p []byte) (int, error) {
	outputMu.RLock()
	w := output
	outputMu.RUnlock()
	return w.Write(p)
}

// Setup 根据环境变量重建默认 logger
//
// 环境变量:
//   - INTRODUCER_LOG_LEVEL: 组件=级别,...,默认级别
//   - INTRODUCER_LOG_FORMAT: text 或 json
func Setup() {
	cfg := ConfigFromEnv()
	install(cfg.Format, cfg.minLevel())
}

// Configure 用显式的级别与格式字符串覆盖环境变量配置
//
// 两者都为空时保持环境变量配置不变。
func Configure(levelStr, formatStr string) {
	if levelStr == "" && formatStr == "" {
		return
	}
	env := ConfigFromEnv()
	cfg := ParseConfig(levelStr, formatStr)
	if levelStr == "" {
		cfg.DefaultLevel = env.DefaultLevel
		cfg.ComponentLevels = env.ComponentLevels
	}
	if formatStr == "" {
		cfg.Format = env.Format
	}
	configCache.Store(cfg)
	install(cfg.Format, cfg.minLevel())
}

// install 安装默认 handler；handler 级别取所有配置中的最低级别，
// 组件级过滤由 LazyLogger 完成
func install(format Format, level slog.Level) {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "ts"
			}
			return a
		},
	}
	var h slog.Handler
	if format == FormatJSON {
		h = slog.NewJSONHandler(dynamicWriter{}, opts)
	} else {
		h = slog.NewTextHandler(dynamicWriter{}, opts)
	}
	slog.SetDefault(slog.New(h))
}

// SetOutput 设置日志输出目标
//
// 已创建的 LazyLogger 会自动使用新的输出。
func SetOutput(w io.Writer) {
	outputMu.Lock()
	output = w
	outputMu.Unlock()
}

// SetLevel 动态设置组件的日志级别
func SetLevel(component string, level slog.Level) {
	levels.Store(component, level)
	cfg := ConfigFromEnv()
	if level < cfg.minLevel() {
		install(cfg.Format, level)
	}
}

// Discard 丢弃所有日志输出（用于测试）
func Discard() {
	SetOutput(io.Discard)
}

// levelFor 返回组件当前生效的级别
func levelFor(component string) slog.Level {
	if v, ok := levels.Load(component); ok {
		return v.(slog.Level)
	}
	return ConfigFromEnv().LevelFor(component)
}

// ============================================================================
//                              LazyLogger
// ============================================================================

// LazyLogger 懒加载 logger
type LazyLogger struct {
	component string
}

// Logger 返回带组件名的 LazyLogger
func Logger(component string) *LazyLogger {
	return &LazyLogger{component: component}
}

func (l *LazyLogger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if level < levelFor(l.component) {
		return
	}
	slog.Default().With("component", l.component).Log(ctx, level, msg, args...)
}

// Debug 输出 Debug 级别日志
func (l *LazyLogger) Debug(msg string, args ...any) {
	l.log(context.Background(), slog.LevelDebug, msg, args...)
}

// Info 输出 Info 级别日志
func (l *LazyLogger) Info(msg string, args ...any) {
	l.log(context.Background(), slog.LevelInfo, msg, args...)
}

// Warn 输出 Warn 级别日志
func (l *LazyLogger) Warn(msg string, args ...any) {
	l.log(context.Background(), slog.LevelWarn, msg, args...)
}

// Error 输出 Error 级别日志
func (l *LazyLogger) Error(msg string, args ...any) {
	l.log(context.Background(), slog.LevelError, msg, args...)
}

// DebugContext 带 context 的 Debug 日志
func (l *LazyLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, args...)
}

// WarnContext 带 context 的 Warn 日志
func (l *LazyLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, args...)
}

// Enabled 组件是否启用指定级别
func (l *LazyLogger) Enabled(level slog.Level) bool {
	return level >= levelFor(l.component)
}

// With 添加额外的属性
func (l *LazyLogger) With(args ...any) *slog.Logger {
	return slog.Default().With("component", l.component).With(args...)
}

// ============================================================================
//                              工具函数
// ============================================================================

// TruncateID 安全截取 ID 用于日志显示
func TruncateID(id string, maxLen int) string {
	if len(id) <= maxLen {
		return id
	}
	return id[:maxLen]
}

func init() {
	Setup()
}
