package relation

import (
	"context"
)

// Repository 关系仓储接口
// 所有方法都从ctx中取事务（如果有），锁只在事务内有意义
type Repository interface {
	// GetOrCreateForUpdate 加行锁读取(user, book)的关系，不存在则创建
	// created为true表示本次新建（写入前的评分视为"不存在"）
	// 并发首次创建同一对时，唯一索引冲突的一方重新读取已创建的行
	GetOrCreateForUpdate(ctx context.Context, userID, bookID uint) (rel *Relation, created bool, err error)

	// Save 保存like/in_bookmarks/rate
	Save(ctx context.Context, rel *Relation) error

	// RateStats 图书已评分关系的数量与评分之和（未评分的不计入）
	RateStats(ctx context.Context, bookID uint) (count int64, sum int64, err error)

	// RatedBookIDs 用户评过分的图书ID（删除用户前收集，用于重算评分）
	RatedBookIDs(ctx context.Context, userID uint) ([]uint, error)

	// DeleteByBook 删除图书的全部关系
	DeleteByBook(ctx context.Context, bookID uint) error

	// DeleteByUser 删除用户的全部关系
	DeleteByUser(ctx context.Context, userID uint) error
}
