package relation

import (
	"context"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/shared"
)

// RatingAggregator 评分重算（实现见domain/rating）
type RatingAggregator interface {
	Recompute(ctx context.Context, bookID uint) error
}

// Result Upsert的结果
type Result struct {
	Relation      *Relation
	Created       bool // 本次新建了关系
	RatingChanged bool // 评分发生变化，已同步重算图书评分
}

// Service 关系领域服务
type Service interface {
	// Upsert 创建或部分更新(user, book)的关系
	// 评分变化时在同一事务内同步重算图书评分，只点赞/收藏不会触发重算
	Upsert(ctx context.Context, userID, bookID uint, patch Patch) (*Result, error)
}

type service struct {
	repo       Repository
	books      book.Repository
	aggregator RatingAggregator
	txManager  shared.TxManager
}

// NewService 创建关系服务
func NewService(repo Repository, books book.Repository, aggregator RatingAggregator, txManager shared.TxManager) Service {
	return &service{
		repo:       repo,
		books:      books,
		aggregator: aggregator,
		txManager:  txManager,
	}
}

// Upsert 业务流程:
// 1. 校验评分（失败时不触碰数据库）
// 2. 事务内确认图书存在
// 3. 加锁读取或创建关系，记下写入前的评分
// 4. 应用patch并保存
// 5. 评分变化则重算（锁顺序：关系行 → 图书行）
func (s *service) Upsert(ctx context.Context, userID, bookID uint, patch Patch) (*Result, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var result *Result
	err := s.txManager.Transaction(ctx, func(ctx context.Context) error {
		if _, err := s.books.FindByID(ctx, bookID); err != nil {
			return err
		}

		rel, created, err := s.repo.GetOrCreateForUpdate(ctx, userID, bookID)
		if err != nil {
			return err
		}

		var prior *Rate
		if !created && rel.Rate != nil {
			r := *rel.Rate
			prior = &r
		}

		rel.Apply(patch)
		if err := s.repo.Save(ctx, rel); err != nil {
			return err
		}

		changed := RateChanged(prior, rel.Rate)
		if changed {
			if err := s.aggregator.Recompute(ctx, bookID); err != nil {
				return err
			}
		}

		result = &Result{Relation: rel, Created: created, RatingChanged: changed}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
