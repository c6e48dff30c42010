package sqlstore

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/bookshelf/internal/domain/relation"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// relationRepository 用户-图书关系仓储实现
type relationRepository struct {
	db *gorm.DB
}

// NewRelationRepository 创建关系仓储
func NewRelationRepository(db *gorm.DB) relation.Repository {
	return &relationRepository{db: db}
}

// GetOrCreateForUpdate 加锁读取，不存在则插入
// 教学要点:
// 1. 先SELECT ... FOR UPDATE，命中则直接返回（created=false）
// 2. 未命中时INSERT ... ON CONFLICT DO NOTHING：并发首次创建时只有一方插入成功
// 3. 插入失败的一方重新加锁读取对方已提交的行，并把它当作已存在的关系
func (r *relationRepository) GetOrCreateForUpdate(ctx context.Context, userID, bookID uint) (*relation.Relation, bool, error) {
	db := dbFrom(ctx, r.db)

	model, err := r.lockPair(db, userID, bookID)
	if err == nil {
		return toRelationEntity(model), false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, apperrors.Wrap(err, "查询关系失败")
	}

	model = &RelationModel{UserID: userID, BookID: bookID}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(model)
	if result.Error != nil {
		return nil, false, apperrors.Wrap(result.Error, "创建关系失败")
	}
	if result.RowsAffected == 1 {
		return toRelationEntity(model), true, nil
	}

	// 唯一键冲突：另一个事务抢先创建
	model, err = r.lockPair(db, userID, bookID)
	if err != nil {
		return nil, false, apperrors.Wrap(err, "查询关系失败")
	}
	return toRelationEntity(model), false, nil
}

func (r *relationRepository) lockPair(db *gorm.DB, userID, bookID uint) (*RelationModel, error) {
	var model RelationModel
	err := forUpdate(db).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		First(&model).Error
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// Save 保存三个可变字段（false/NULL也要写入，所以显式Select）
func (r *relationRepository) Save(ctx context.Context, rel *relation.Relation) error {
	model := toRelationModel(rel)
	result := dbFrom(ctx, r.db).Model(&RelationModel{ID: rel.ID}).
		Select("liked", "in_bookmarks", "rate").
		Updates(model)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "保存关系失败")
	}
	return nil
}

// RateStats COUNT(rate)只统计非NULL的评分
func (r *relationRepository) RateStats(ctx context.Context, bookID uint) (int64, int64, error) {
	var stats struct {
		Count int64
		Sum   int64
	}
	err := dbFrom(ctx, r.db).Model(&RelationModel{}).
		Select("COUNT(rate) AS count, COALESCE(SUM(rate), 0) AS sum").
		Where("book_id = ?", bookID).
		Scan(&stats).Error
	if err != nil {
		return 0, 0, apperrors.Wrap(err, "统计评分失败")
	}
	return stats.Count, stats.Sum, nil
}

// RatedBookIDs 用户评过分的图书
func (r *relationRepository) RatedBookIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := dbFrom(ctx, r.db).Model(&RelationModel{}).
		Where("user_id = ? AND rate IS NOT NULL", userID).
		Order("book_id").
		Distinct().
		Pluck("book_id", &ids).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询用户评分失败")
	}
	return ids, nil
}

// DeleteByBook 删除图书的全部关系
func (r *relationRepository) DeleteByBook(ctx context.Context, bookID uint) error {
	if err := dbFrom(ctx, r.db).Where("book_id = ?", bookID).Delete(&RelationModel{}).Error; err != nil {
		return apperrors.Wrap(err, "删除图书关系失败")
	}
	return nil
}

// DeleteByUser 删除用户的全部关系
func (r *relationRepository) DeleteByUser(ctx context.Context, userID uint) error {
	if err := dbFrom(ctx, r.db).Where("user_id = ?", userID).Delete(&RelationModel{}).Error; err != nil {
		return apperrors.Wrap(err, "删除用户关系失败")
	}
	return nil
}

func toRelationModel(rel *relation.Relation) *RelationModel {
	model := &RelationModel{
		ID:          rel.ID,
		UserID:      rel.UserID,
		BookID:      rel.BookID,
		Liked:       rel.Like,
		InBookmarks: rel.InBookmarks,
	}
	if rel.Rate != nil {
		v := int16(*rel.Rate)
		model.Rate = &v
	}
	return model
}

func toRelationEntity(model *RelationModel) *relation.Relation {
	rel := &relation.Relation{
		ID:          model.ID,
		UserID:      model.UserID,
		BookID:      model.BookID,
		Like:        model.Liked,
		InBookmarks: model.InBookmarks,
	}
	if model.Rate != nil {
		rate := relation.Rate(*model.Rate)
		rel.Rate = &rate
	}
	return rel
}
