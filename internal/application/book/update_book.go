package book

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/pkg/metrics"
	"github.com/xiebiao/bookshelf/pkg/tracing"
)

// UpdateBookUseCase 修改图书用例（PUT全量/PATCH部分）
// 只有所有者或管理员可以修改；拒绝时不做任何写入
type UpdateBookUseCase struct {
	bookService book.Service
	repo        book.Repository
}

// NewUpdateBookUseCase 创建修改用例
func NewUpdateBookUseCase(bookService book.Service, repo book.Repository) *UpdateBookUseCase {
	return &UpdateBookUseCase{bookService: bookService, repo: repo}
}

// UpdateBookRequest 修改请求DTO
type UpdateBookRequest struct {
	Actor   book.Actor
	ID      uint
	Input   book.Input
	Partial bool // PATCH
}

// Execute 执行修改
func (uc *UpdateBookUseCase) Execute(ctx context.Context, req UpdateBookRequest) (_ *BookResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, "book.Update", trace.WithAttributes(
		attribute.Int64("book.id", int64(req.ID)),
		attribute.Bool("book.partial", req.Partial),
	))
	defer func() {
		tracing.RecordError(span, err)
		span.End()
	}()

	if _, err = uc.bookService.Update(ctx, req.Actor, req.ID, req.Input, req.Partial); err != nil {
		return nil, err
	}
	metrics.IncBookMutation("update")

	v, err := uc.repo.GetView(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	resp := NewBookResponse(v)
	return &resp, nil
}
