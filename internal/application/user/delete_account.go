package user

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/relation"
	"github.com/xiebiao/bookshelf/internal/domain/shared"
	"github.com/xiebiao/bookshelf/internal/domain/user"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookshelf/pkg/jwt"
	"github.com/xiebiao/bookshelf/pkg/logger"
	"github.com/xiebiao/bookshelf/pkg/tracing"
)

// DeleteAccountUseCase 删除账号
// 设计说明：
// 1. 删除用户的全部关系，用户拥有的图书保留但owner置空
// 2. 用户评过分的图书在同一事务内重算评分，删除后评分仍等于剩余评分的平均值
// 3. 加锁顺序与关系写入一致：先关系行，后图书行
// 4. 提交后清除会话并拉黑当前Token
type DeleteAccountUseCase struct {
	users      user.Repository
	books      book.Repository
	relations  relation.Repository
	aggregator relation.RatingAggregator
	txManager  shared.TxManager
	sessions   *redis.SessionStore
	jwtManager *jwt.Manager
}

// NewDeleteAccountUseCase 创建用例
func NewDeleteAccountUseCase(
	users user.Repository,
	books book.Repository,
	relations relation.Repository,
	aggregator relation.RatingAggregator,
	txManager shared.TxManager,
	sessions *redis.SessionStore,
	jwtManager *jwt.Manager,
) *DeleteAccountUseCase {
	return &DeleteAccountUseCase{
		users:      users,
		books:      books,
		relations:  relations,
		aggregator: aggregator,
		txManager:  txManager,
		sessions:   sessions,
		jwtManager: jwtManager,
	}
}

// Execute 删除userID对应的账号；claims为空时（命令行）不处理Token
func (uc *DeleteAccountUseCase) Execute(ctx context.Context, userID uint, claims *jwt.Claims) (err error) {
	ctx, span := tracing.StartSpan(ctx, "user.Delete", trace.WithAttributes(attribute.Int64("user.id", int64(userID))))
	defer func() {
		tracing.RecordError(span, err)
		span.End()
	}()

	err = uc.txManager.Transaction(ctx, func(ctx context.Context) error {
		if _, err := uc.users.FindByID(ctx, userID); err != nil {
			return err
		}

		rated, err := uc.relations.RatedBookIDs(ctx, userID)
		if err != nil {
			return err
		}
		if err := uc.relations.DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if err := uc.books.ClearOwner(ctx, userID); err != nil {
			return err
		}
		if err := uc.users.Delete(ctx, userID); err != nil {
			return err
		}

		for _, bookID := range rated {
			if err := uc.aggregator.Recompute(ctx, bookID); err != nil {
				return err
			}
		}
		span.SetAttributes(attribute.Int("user.rated_books", len(rated)))
		return nil
	})
	if err != nil {
		return err
	}

	uc.revokeSession(ctx, userID, claims)
	return nil
}

func (uc *DeleteAccountUseCase) revokeSession(ctx context.Context, userID uint, claims *jwt.Claims) {
	if uc.sessions == nil {
		return
	}
	log := logger.FromContext(ctx)
	if err := uc.sessions.DeleteSession(ctx, userID); err != nil {
		log.WarnContext(ctx, "delete session failed", "user_id", userID, "error", err)
	}
	if claims == nil {
		return
	}
	if err := uc.sessions.AddToBlacklist(ctx, claims.ID, uc.jwtManager.Remaining(claims)); err != nil {
		log.WarnContext(ctx, "revoke token failed", "user_id", userID, "error", err)
	}
}
