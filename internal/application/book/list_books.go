package book

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/tracing"
)

// 分页默认值
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListBooksUseCase 图书列表查询用例
// 设计说明:
// 1. 支持价格过滤、多词搜索、多字段排序和分页
// 2. 读操作不做权限检查，匿名用户也可以访问
// 3. rating直接读取存储值；点赞数、所有者、读者在查询时聚合
type ListBooksUseCase struct {
	repo book.Repository
}

// NewListBooksUseCase 创建列表查询用例
func NewListBooksUseCase(repo book.Repository) *ListBooksUseCase {
	return &ListBooksUseCase{repo: repo}
}

// ListBooksRequest 列表查询请求DTO（原始查询参数）
type ListBooksRequest struct {
	Page     int    // 页码(从1开始)
	PageSize int    // 每页数量
	Price    string // 价格精确匹配
	Search   string // 空白或逗号分隔，每个词都要匹配name或author_name
	Ordering string // price、author_name，前缀-表示降序
}

// ListBooksResponse 列表查询响应DTO
type ListBooksResponse struct {
	Results  []BookResponse
	Total    int64
	Page     int
	PageSize int
}

// Execute 执行列表查询用例
// 学习要点:
// 1. 参数默认值处理(page默认1, pageSize默认20)
// 2. 参数范围限制(pageSize最大100)
// 3. 非法的price返回字段错误，不认识的ordering字段直接忽略
func (uc *ListBooksUseCase) Execute(ctx context.Context, req ListBooksRequest) (*ListBooksResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "book.List", trace.WithAttributes(
		attribute.String("book.search", req.Search),
		attribute.String("book.ordering", req.Ordering),
	))
	defer span.End()

	// 1. 参数默认值与范围限制
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = DefaultPageSize
	}
	if req.PageSize > MaxPageSize {
		req.PageSize = MaxPageSize
	}

	// 2. 构建Repository查询参数
	params := book.ListParams{
		Search:   book.SplitSearch(req.Search),
		Ordering: book.ParseOrdering(req.Ordering),
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if raw := strings.TrimSpace(req.Price); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, apperrors.FieldError("price", "Enter a number.")
		}
		params.Price = &price
	}

	// 3. 查询
	views, total, err := uc.repo.List(ctx, params)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("book.count", total))

	// 4. 转换为DTO
	results := make([]BookResponse, len(views))
	for i, v := range views {
		results[i] = NewBookResponse(v)
	}

	return &ListBooksResponse{
		Results:  results,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}
