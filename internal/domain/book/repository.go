package book

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Repository 图书仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 写方法从ctx中获取事务，读方法在事务外也可以使用
type Repository interface {
	// Create 创建图书
	Create(ctx context.Context, book *Book) error

	// FindByID 根据ID查找图书，不存在返回ErrBookNotFound
	FindByID(ctx context.Context, id uint) (*Book, error)

	// LockByID 悲观锁查询(SELECT ... FOR UPDATE)，评分重算时串行化同一本书的写入
	LockByID(ctx context.Context, id uint) (*Book, error)

	// Update 更新name/price/author_name(不会覆盖rating)
	Update(ctx context.Context, book *Book) error

	// UpdateRating 只更新rating一列
	UpdateRating(ctx context.Context, id uint, rating decimal.NullDecimal) error

	// Delete 删除图书(物理删除)
	Delete(ctx context.Context, id uint) error

	// ClearOwner 把某用户拥有的图书的owner置空(删除用户时使用)
	ClearOwner(ctx context.Context, ownerID uint) error

	// List 带聚合字段的分页列表，返回当前页与过滤后的总数
	List(ctx context.Context, params ListParams) ([]*View, int64, error)

	// GetView 带聚合字段的单本图书
	GetView(ctx context.Context, id uint) (*View, error)
}

// 排序白名单
const (
	OrderPrice      = "price"
	OrderAuthorName = "author_name"
)

// OrderField 排序字段
type OrderField struct {
	Field string
	Desc  bool
}

// ListParams 列表查询参数
type ListParams struct {
	Price    *decimal.Decimal // 价格精确匹配
	Search   []string         // 每个词都要命中name或author_name（不区分大小写）
	Ordering []OrderField     // 之后总是追加id升序
	Page     int              // 页码(从1开始)
	PageSize int              // 每页数量
}

// ParseOrdering 解析 "price,-author_name" 形式的排序参数，不认识的字段忽略
func ParseOrdering(raw string) []OrderField {
	var fields []OrderField
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		if name != OrderPrice && name != OrderAuthorName {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		fields = append(fields, OrderField{Field: name, Desc: desc})
	}
	return fields
}

// SplitSearch 按空白和逗号切分搜索词
func SplitSearch(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}
