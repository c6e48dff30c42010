// Package rating 图书平均评分的重算
//
// 设计说明：
// 1. 评分是写时计算的反规范化字段：只在关系的rate变化时重算，列表查询直接读取
// 2. 重算必须运行在触发它的关系写入所在的事务内（ctx携带事务）
// 3. 先锁图书行，再聚合COUNT/SUM，最后单列更新；同一本书的并发重算因此串行化
package rating

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/pkg/metrics"
	"github.com/xiebiao/bookshelf/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Places 存储精度（DECIMAL(3,2)）
const Places = 2

// StatsReader 评分统计来源（由relation仓储实现）
type StatsReader interface {
	RateStats(ctx context.Context, bookID uint) (count int64, sum int64, err error)
}

// BookStore 评分写入目标（book.Repository的子集）
type BookStore interface {
	LockByID(ctx context.Context, id uint) (*book.Book, error)
	UpdateRating(ctx context.Context, id uint, rating decimal.NullDecimal) error
}

// Aggregator 评分重算器
type Aggregator struct {
	books BookStore
	stats StatsReader
}

// NewAggregator 创建评分重算器
func NewAggregator(books BookStore, stats StatsReader) *Aggregator {
	return &Aggregator{books: books, stats: stats}
}

// Recompute 重新计算并保存图书评分（幂等，多调用一次结果相同）
func (a *Aggregator) Recompute(ctx context.Context, bookID uint) (err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "rating.Recompute",
		trace.WithAttributes(attribute.Int64("book.id", int64(bookID))))
	defer func() {
		tracing.RecordError(span, err)
		span.End()
		metrics.ObserveRatingRecompute(err, time.Since(start).Seconds())
	}()

	if _, err = a.books.LockByID(ctx, bookID); err != nil {
		return err
	}

	// 聚合查询不加锁；事务为READ COMMITTED，拿到图书锁之后读到的是最新已提交的评分
	count, sum, err := a.stats.RateStats(ctx, bookID)
	if err != nil {
		return err
	}

	avg := Average(count, sum)
	if avg.Valid {
		span.SetAttributes(attribute.String("book.rating", avg.Decimal.StringFixed(Places)))
	}
	return a.books.UpdateRating(ctx, bookID, avg)
}

// Average sum/count保留2位小数（银行家舍入，与DECIMAL列的量化方式一致）
// count为0时返回NULL
func Average(count, sum int64) decimal.NullDecimal {
	if count == 0 {
		return decimal.NullDecimal{}
	}
	// 多保留几位再舍入，避免DivRound的半入规则先行生效
	mean := decimal.NewFromInt(sum).DivRound(decimal.NewFromInt(count), Places+8)
	return decimal.NewNullDecimal(mean.RoundBank(Places))
}
