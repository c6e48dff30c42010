package sqlstore

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// txKey context中保存事务DB的key（私有类型，避免与其他包冲突）
type txKey struct{}

// TxManager 事务管理器
// 教学要点:
// 1. 封装GORM的Transaction方法
// 2. 通过context传递事务DB(避免全局变量)
// 3. 支持嵌套事务(GORM自动使用Savepoint)
// 4. MySQL/PostgreSQL统一使用READ COMMITTED：
//    评分重算先锁图书行再做聚合，聚合必须看到锁等待期间其他事务已提交的评分。
//    MySQL默认的REPEATABLE READ会沿用事务第一次读取时的快照，算出的平均值可能漏掉并发写入
type TxManager struct {
	db   *gorm.DB
	opts *sql.TxOptions
}

// NewTxManager 创建事务管理器
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db, opts: txOptionsFor(db.Dialector.Name())}
}

// txOptionsFor 按方言选择事务隔离级别
// SQLite的写事务本身串行，不支持设置隔离级别
func txOptionsFor(dialect string) *sql.TxOptions {
	if dialect == "sqlite" {
		return nil
	}
	return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
}

// Transaction 执行事务
// fn返回error时ROLLBACK,返回nil时COMMIT
//
// 使用示例:
//
//	err := txManager.Transaction(ctx, func(ctx context.Context) error {
//	    rel, created, err := relationRepo.GetOrCreateForUpdate(ctx, userID, bookID)
//	    if err != nil {
//	        return err
//	    }
//	    rel.Apply(patch)
//	    if err := relationRepo.Save(ctx, rel); err != nil {
//	        return err // 自动回滚
//	    }
//	    return aggregator.Recompute(ctx, bookID)
//	})
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// 已经在事务中则复用外层事务（GORM会创建Savepoint，隔离级别沿用外层）
	fc := func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	}
	if m.opts == nil {
		return dbFrom(ctx, m.db).Transaction(fc)
	}
	return dbFrom(ctx, m.db).Transaction(fc, m.opts)
}

// dbFrom 从context获取事务DB,如果没有则使用默认DB
func dbFrom(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}

// forUpdate 加行锁(SELECT ... FOR UPDATE)
// SQLite不支持FOR UPDATE，它的写事务本身是串行的
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
