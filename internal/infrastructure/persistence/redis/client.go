// Package redis 会话与Token黑名单存储
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
)

// pingAttempts 启动时Redis可能比API晚就绪（docker compose），多试几次
const pingAttempts = 3

// NewClient 创建Redis客户端
// 设计说明：
// 1. 连接池和超时参数全部来自redis配置段
// 2. 启动时PING确认可用，失败按1s、2s退避重试
// 3. 最终失败时关闭客户端并返回错误，由调用方决定是否退出
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if err = ping(client, cfg.DialTimeout); err == nil {
			slog.Info("Redis连接成功", "addr", cfg.Addr(), "db", cfg.DB)
			return client, nil
		}
		if attempt < pingAttempts {
			slog.Warn("Redis连接失败，稍后重试", "addr", cfg.Addr(), "attempt", attempt, "error", err)
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("Redis连接失败(%s): %w", cfg.Addr(), err)
}

func ping(client *redis.Client, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return client.Ping(ctx).Err()
}
