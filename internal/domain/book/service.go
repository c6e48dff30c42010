package book

import (
	"context"

	"github.com/xiebiao/bookshelf/internal/domain/shared"
)

// RelationCleaner 删除图书前清理关系（由relation仓储实现，避免book包依赖relation包）
type RelationCleaner interface {
	DeleteByBook(ctx context.Context, bookID uint) error
}

// Service 图书领域服务接口
type Service interface {
	// Create 创建图书，所有者为当前用户
	Create(ctx context.Context, actor Actor, in Input) (*Book, error)

	// Update 修改图书；partial=true为PATCH语义
	// 先检查权限再校验字段，无权限时不会暴露字段错误
	Update(ctx context.Context, actor Actor, id uint, in Input, partial bool) (*Book, error)

	// Delete 删除图书及其全部关系（同一事务）
	Delete(ctx context.Context, actor Actor, id uint) error
}

type service struct {
	repo      Repository
	relations RelationCleaner
	txManager shared.TxManager
}

// NewService 创建图书服务
func NewService(repo Repository, relations RelationCleaner, txManager shared.TxManager) Service {
	return &service{repo: repo, relations: relations, txManager: txManager}
}

func (s *service) Create(ctx context.Context, actor Actor, in Input) (*Book, error) {
	if !actor.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	values, err := in.Validate(false)
	if err != nil {
		return nil, err
	}

	authorName := DefaultAuthorName
	if values.AuthorName != nil {
		authorName = *values.AuthorName
	}

	b := NewBook(*values.Name, *values.Price, authorName, actor.ID)
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Update 业务流程:
// 1. 加载图书（不存在返回404）
// 2. 权限检查（拒绝时不做任何写入）
// 3. 字段校验
// 4. 保存（rating列不受影响）
func (s *service) Update(ctx context.Context, actor Actor, id uint, in Input, partial bool) (*Book, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := Authorize(actor, b); err != nil {
		return nil, err
	}

	values, err := in.Validate(partial)
	if err != nil {
		return nil, err
	}

	b.Apply(values)
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Delete 不锁图书行：关系行先于图书行删除，与评分重算的加锁顺序一致
func (s *service) Delete(ctx context.Context, actor Actor, id uint) error {
	return s.txManager.Transaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		if err := Authorize(actor, b); err != nil {
			return err
		}

		if err := s.relations.DeleteByBook(ctx, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
}
