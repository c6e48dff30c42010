package book

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultAuthorName 未提供作者时的默认值
const DefaultAuthorName = "Author"

// Book 图书实体(聚合根)
// DDD设计说明:
// 1. 价格和评分使用定点小数(decimal)，避免浮点误差
// 2. Rating是反规范化字段：所有已评分关系的平均分，保留2位小数，由评分重算写入
// 3. OwnerID可为空：创建者被删除后图书保留，但不再有所有者
type Book struct {
	ID         uint
	Name       string
	Price      decimal.Decimal
	AuthorName string
	OwnerID    *uint
	Rating     decimal.NullDecimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewBook 创建新图书(工厂方法)，评分为空
func NewBook(name string, price decimal.Decimal, authorName string, ownerID uint) *Book {
	if authorName == "" {
		authorName = DefaultAuthorName
	}
	now := time.Now()
	owner := ownerID
	return &Book{
		Name:       name,
		Price:      price,
		AuthorName: authorName,
		OwnerID:    &owner,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsOwnedBy 检查图书是否属于指定用户
func (b *Book) IsOwnedBy(userID uint) bool {
	return b.OwnerID != nil && userID != 0 && *b.OwnerID == userID
}

// Apply 应用已校验的字段修改(只修改提供了的字段)
func (b *Book) Apply(v Values) {
	if v.Name != nil {
		b.Name = *v.Name
	}
	if v.Price != nil {
		b.Price = *v.Price
	}
	if v.AuthorName != nil {
		b.AuthorName = *v.AuthorName
	}
	b.UpdatedAt = time.Now()
}

// Reader 与图书有关系的用户
type Reader struct {
	FirstName string
	LastName  string
}

// View 带读时聚合字段的图书
// AnnotatedLikes、OwnerName、Readers每次查询时计算，Rating直接取存储值
type View struct {
	Book
	AnnotatedLikes int64
	OwnerName      *string
	Readers        []Reader
}
