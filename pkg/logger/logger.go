// Package logger 基于log/slog的结构化日志
//
// 设计说明：
// 1. format=json 输出JSON（生产环境，便于ELK采集），format=console 输出key=value文本
// 2. output支持stdout、stderr或文件路径
// 3. New之后调用slog.SetDefault，业务代码直接使用slog.InfoContext等函数
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config 日志配置（与config.LogConfig字段一一对应）
type Config struct {
	Level        string
	Format       string
	Output       string
	EnableCaller bool
	Writer       io.Writer // 测试时注入，优先于Output
}

// New 创建Logger并设置为全局默认Logger
// 返回的close函数用于关闭日志文件（输出到stdout/stderr时为空操作）
func New(cfg Config) (*slog.Logger, func() error, error) {
	w, closeFn, err := openWriter(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.EnableCaller,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			// 只保留文件名，缩短源码路径
			if a.Key == slog.SourceKey {
				if source, ok := a.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, FormatJSON) {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	slog.SetDefault(l)
	return l, closeFn, nil
}

// ParseLevel 字符串 → slog.Level，无法识别时返回Info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openWriter(cfg Config) (io.Writer, func() error, error) {
	noop := func() error { return nil }
	if cfg.Writer != nil {
		return cfg.Writer, noop, nil
	}

	switch cfg.Output {
	case "", "stdout":
		return os.Stdout, noop, nil
	case "stderr":
		return os.Stderr, noop, nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Output), 0o755); err != nil {
			return nil, nil, fmt.Errorf("创建日志目录失败: %w", err)
		}
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("打开日志文件失败: %w", err)
		}
		return f, f.Close, nil
	}
}

type ctxKey struct{}

// WithContext 把带请求字段的Logger放入Context（请求日志中间件使用）
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext 取出请求级Logger，没有则返回默认Logger
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
