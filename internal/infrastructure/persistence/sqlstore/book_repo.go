package sqlstore

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// bookRepository 图书仓储实现
// 设计说明:
// 1. 实现domain/book/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 读查询附带annotated_likes、owner_name、readers三个读时聚合字段
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB) book.Repository {
	return &bookRepository{db: db}
}

// Create 创建图书
func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	model := toBookModel(b)
	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建图书失败")
	}

	// 回填自增ID
	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找图书
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	if err := dbFrom(ctx, r.db).First(&model, id).Error; err != nil {
		return nil, notFoundOr(err, "查询图书失败")
	}
	return toBookEntity(&model), nil
}

// LockByID 悲观锁查询图书(评分重算时使用)
// 教学要点:必须在事务内调用,锁在事务提交时释放
func (r *bookRepository) LockByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	if err := forUpdate(dbFrom(ctx, r.db)).First(&model, id).Error; err != nil {
		return nil, notFoundOr(err, "锁定图书失败")
	}
	return toBookEntity(&model), nil
}

// Update 更新name/price/author_name
// 用Select显式列出字段，rating列永远不会被这里覆盖
func (r *bookRepository) Update(ctx context.Context, b *book.Book) error {
	model := toBookModel(b)
	model.UpdatedAt = time.Now()
	result := dbFrom(ctx, r.db).Model(&BookModel{ID: b.ID}).
		Select("name", "price", "author_name", "updated_at").
		Updates(model)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新图书失败")
	}

	b.UpdatedAt = model.UpdatedAt
	return nil
}

// UpdateRating 单列更新评分
// UpdateColumn不触发钩子，也不改updated_at
func (r *bookRepository) UpdateRating(ctx context.Context, id uint, rating decimal.NullDecimal) error {
	result := dbFrom(ctx, r.db).Model(&BookModel{}).
		Where("id = ?", id).
		UpdateColumn("rating", rating)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新图书评分失败")
	}
	return nil
}

// Delete 删除图书(物理删除)
func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	result := dbFrom(ctx, r.db).Delete(&BookModel{}, id)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "删除图书失败")
	}
	if result.RowsAffected == 0 {
		return book.ErrBookNotFound
	}
	return nil
}

// ClearOwner 用户被删除时图书保留，owner_id置NULL
func (r *bookRepository) ClearOwner(ctx context.Context, ownerID uint) error {
	result := dbFrom(ctx, r.db).Model(&BookModel{}).
		Where("owner_id = ?", ownerID).
		UpdateColumn("owner_id", nil)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "清除图书所有者失败")
	}
	return nil
}

// List 分页查询图书列表
// 教学要点:
// 1. 先按过滤条件COUNT，再加上JOIN和排序查当前页
// 2. annotated_likes用关联子查询，owner_name用LEFT JOIN，互不放大行数
// 3. readers单独一次IN查询，避免N+1
func (r *bookRepository) List(ctx context.Context, params book.ListParams) ([]*book.View, int64, error) {
	db := dbFrom(ctx, r.db)

	filtered := applyFilters(db.Model(&BookModel{}), params)

	var total int64
	if err := filtered.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询图书总数失败")
	}

	query := applyFilters(viewQuery(db), params)
	for _, o := range params.Ordering {
		column := "books." + o.Field
		if o.Desc {
			column += " DESC"
		}
		query = query.Order(column)
	}
	query = query.Order("books.id ASC")

	if params.PageSize > 0 {
		page := params.Page
		if page < 1 {
			page = 1
		}
		query = query.Limit(params.PageSize).Offset((page - 1) * params.PageSize)
	}

	var rows []bookRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询图书列表失败")
	}

	views, err := r.withReaders(db, rows)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// GetView 查询单本图书及其聚合字段
func (r *bookRepository) GetView(ctx context.Context, id uint) (*book.View, error) {
	db := dbFrom(ctx, r.db)

	var rows []bookRow
	if err := viewQuery(db).Where("books.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询图书失败")
	}
	if len(rows) == 0 {
		return nil, book.ErrBookNotFound
	}

	views, err := r.withReaders(db, rows)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// bookRow 列表查询的扫描目标
type bookRow struct {
	ID             uint
	Name           string
	Price          decimal.Decimal
	AuthorName     string
	OwnerID        *uint
	Rating         decimal.NullDecimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
	AnnotatedLikes int64
	OwnerName      *string
}

type readerRow struct {
	BookID    uint
	FirstName string
	LastName  string
}

func viewQuery(db *gorm.DB) *gorm.DB {
	return db.Table("books").
		Select("books.id, books.name, books.price, books.author_name, books.owner_id, books.rating, " +
			"books.created_at, books.updated_at, " +
			"(SELECT COUNT(*) FROM user_book_relations AS r WHERE r.book_id = books.id AND r.liked) AS annotated_likes, " +
			"owners.username AS owner_name").
		Joins("LEFT JOIN users AS owners ON owners.id = books.owner_id")
}

// applyFilters price精确匹配；每个搜索词都必须命中name或author_name
func applyFilters(query *gorm.DB, params book.ListParams) *gorm.DB {
	if params.Price != nil {
		query = query.Where("books.price = ?", *params.Price)
	}
	for _, term := range params.Search {
		pattern := likePattern(query.Dialector.Name(), term)
		query = query.Where("(LOWER(books.name) LIKE ? ESCAPE '!' OR LOWER(books.author_name) LIKE ? ESCAPE '!')",
			pattern, pattern)
	}
	return query
}

// withReaders 一次查询加载当前页所有图书的读者（按关系创建顺序）
func (r *bookRepository) withReaders(db *gorm.DB, rows []bookRow) ([]*book.View, error) {
	views := make([]*book.View, len(rows))
	if len(rows) == 0 {
		return views, nil
	}

	ids := make([]uint, len(rows))
	index := make(map[uint]*book.View, len(rows))
	for i := range rows {
		views[i] = toBookView(&rows[i])
		ids[i] = rows[i].ID
		index[rows[i].ID] = views[i]
	}

	var readers []readerRow
	err := db.Table("user_book_relations AS r").
		Select("r.book_id, u.first_name, u.last_name").
		Joins("JOIN users AS u ON u.id = r.user_id").
		Where("r.book_id IN ?", ids).
		Order("r.id ASC").
		Scan(&readers).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询图书读者失败")
	}

	for _, rr := range readers {
		v := index[rr.BookID]
		v.Readers = append(v.Readers, book.Reader{FirstName: rr.FirstName, LastName: rr.LastName})
	}
	return views, nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

func toBookModel(b *book.Book) *BookModel {
	return &BookModel{
		ID:         b.ID,
		Name:       b.Name,
		Price:      b.Price,
		AuthorName: b.AuthorName,
		OwnerID:    b.OwnerID,
		Rating:     b.Rating,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

// toBookEntity GORM模型 → 领域实体
func toBookEntity(model *BookModel) *book.Book {
	return &book.Book{
		ID:         model.ID,
		Name:       model.Name,
		Price:      model.Price,
		AuthorName: model.AuthorName,
		OwnerID:    model.OwnerID,
		Rating:     model.Rating,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

func toBookView(row *bookRow) *book.View {
	return &book.View{
		Book: book.Book{
			ID:         row.ID,
			Name:       row.Name,
			Price:      row.Price,
			AuthorName: row.AuthorName,
			OwnerID:    row.OwnerID,
			Rating:     row.Rating,
			CreatedAt:  row.CreatedAt,
			UpdatedAt:  row.UpdatedAt,
		},
		AnnotatedLikes: row.AnnotatedLikes,
		OwnerName:      row.OwnerName,
		Readers:        []book.Reader{},
	}
}

// notFoundOr 记录不存在映射为ErrBookNotFound，其他错误包装为内部错误
func notFoundOr(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return book.ErrBookNotFound
	}
	return apperrors.Wrap(err, message)
}
