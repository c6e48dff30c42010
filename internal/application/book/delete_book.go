package book

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/infrastructure/messaging"
	"github.com/xiebiao/bookshelf/pkg/metrics"
	"github.com/xiebiao/bookshelf/pkg/tracing"
)

// DeleteBookUseCase 删除图书用例
// 关系和图书在同一事务中删除，提交后发布book.deleted事件
type DeleteBookUseCase struct {
	bookService book.Service
	publisher   messaging.EventPublisher
}

// NewDeleteBookUseCase 创建删除用例
func NewDeleteBookUseCase(bookService book.Service, publisher messaging.EventPublisher) *DeleteBookUseCase {
	return &DeleteBookUseCase{bookService: bookService, publisher: publisher}
}

// Execute 执行删除
func (uc *DeleteBookUseCase) Execute(ctx context.Context, actor book.Actor, id uint) (err error) {
	ctx, span := tracing.StartSpan(ctx, "book.Delete", trace.WithAttributes(attribute.Int64("book.id", int64(id))))
	defer func() {
		tracing.RecordError(span, err)
		span.End()
	}()

	if err = uc.bookService.Delete(ctx, actor, id); err != nil {
		return err
	}
	metrics.IncBookMutation("delete")

	messaging.PublishAfterCommit(ctx, uc.publisher, messaging.RoutingBookDeleted, messaging.BookDeleted{
		BookID:     id,
		ActorID:    actor.ID,
		OccurredAt: time.Now().UTC(),
	})
	return nil
}
