package book

import (
	"context"

	"github.com/xiebiao/bookshelf/internal/domain/book"
)

// GetBookUseCase 图书详情
type GetBookUseCase struct {
	repo book.Repository
}

// NewGetBookUseCase 创建详情查询用例
func NewGetBookUseCase(repo book.Repository) *GetBookUseCase {
	return &GetBookUseCase{repo: repo}
}

// Execute 不存在时返回ErrBookNotFound
func (uc *GetBookUseCase) Execute(ctx context.Context, id uint) (*BookResponse, error) {
	v, err := uc.repo.GetView(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := NewBookResponse(v)
	return &resp, nil
}
