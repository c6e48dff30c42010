package book

import (
	"context"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/pkg/metrics"
	"github.com/xiebiao/bookshelf/pkg/tracing"
)

// CreateBookUseCase 创建图书用例
// 设计说明:
// 1. 应用层负责用例编排，字段校验和所有者设置由领域服务完成
// 2. 创建后重新读取视图，返回的表示与详情接口一致（rating为null，readers为空）
type CreateBookUseCase struct {
	bookService book.Service
	repo        book.Repository
}

// NewCreateBookUseCase 创建用例
func NewCreateBookUseCase(bookService book.Service, repo book.Repository) *CreateBookUseCase {
	return &CreateBookUseCase{bookService: bookService, repo: repo}
}

// CreateBookRequest 创建请求DTO
type CreateBookRequest struct {
	Actor book.Actor // 当前用户（从认证中间件获取）
	Input book.Input
}

// Execute 执行创建
func (uc *CreateBookUseCase) Execute(ctx context.Context, req CreateBookRequest) (_ *BookResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, "book.Create")
	defer func() {
		tracing.RecordError(span, err)
		span.End()
	}()

	b, err := uc.bookService.Create(ctx, req.Actor, req.Input)
	if err != nil {
		return nil, err
	}
	metrics.IncBookMutation("create")

	v, err := uc.repo.GetView(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	resp := NewBookResponse(v)
	return &resp, nil
}
