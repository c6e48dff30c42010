package user

import (
	"context"

	"github.com/xiebiao/bookshelf/internal/domain/user"
)

// GetProfileUseCase 当前用户信息
type GetProfileUseCase struct {
	repo user.Repository
}

// NewGetProfileUseCase 创建用例
func NewGetProfileUseCase(repo user.Repository) *GetProfileUseCase {
	return &GetProfileUseCase{repo: repo}
}

// Execute 查询用户
func (uc *GetProfileUseCase) Execute(ctx context.Context, userID uint) (*UserInfo, error) {
	u, err := uc.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := NewUserInfo(u)
	return &info, nil
}
