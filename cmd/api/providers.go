package main

import (
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/rating"
	"github.com/xiebiao/bookshelf/internal/domain/relation"
	"github.com/xiebiao/bookshelf/internal/domain/shared"
	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/sqlstore"
	"github.com/xiebiao/bookshelf/pkg/jwt"
	"github.com/xiebiao/bookshelf/pkg/ratelimit"
)

// ========================================
// Custom Providers (自定义Provider)
// ========================================
// 教学说明：
// 有些依赖的构造函数参数不是直接的类型（需要从Config中提取、或者需要cleanup），
// 这时需要编写自定义Provider函数

// provideDB 数据库连接，cleanup关闭连接池
func provideDB(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := sqlstore.NewDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

// provideRedisClient Redis连接，cleanup关闭连接
func provideRedisClient(cfg *config.Config) (*goredis.Client, func(), error) {
	client, err := redis.NewClient(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

// provideJWTManager 从配置创建JWT管理器
// 教学要点：jwt.NewManager只需要JWT相关的配置，Wire无法自动从Config提取参数
func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
}

// provideRateLimiter 写接口限流器，未启用时返回nil（中间件直接放行）
func provideRateLimiter(cfg *config.Config, log *slog.Logger) (*ratelimit.KeyedRateLimiter, func()) {
	if !cfg.RateLimit.Enabled {
		return nil, func() {}
	}
	log.Info("写接口限流已启用", "rps", cfg.RateLimit.RPS, "burst", cfg.RateLimit.Burst)
	limiter := ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	return limiter, limiter.Stop
}

// provideBookService book.Service需要的RelationCleaner由关系仓储实现
func provideBookService(books book.Repository, relations relation.Repository, tx shared.TxManager) book.Service {
	return book.NewService(books, relations, tx)
}

// provideAggregator 评分聚合器读写图书表、统计关系表
func provideAggregator(books book.Repository, relations relation.Repository) *rating.Aggregator {
	return rating.NewAggregator(books, relations)
}
