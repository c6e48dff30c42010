package dto

import (
	"bytes"
	"encoding/json"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// BookRequest HTTP创建/修改图书请求
// 说明：
// 1. 字段都是指针，PATCH时未出现的字段保持不变
// 2. 必填、长度、价格位数等校验在领域层统一完成，错误以字段映射返回
type BookRequest struct {
	Name       *string    `json:"name" example:"Test book 1"`
	Price      *PriceText `json:"price" swaggertype:"string" example:"25.00"`
	AuthorName *string    `json:"author_name" example:"Author 1"`
}

// ToInput HTTP DTO → 领域输入
func (r BookRequest) ToInput() book.Input {
	in := book.Input{Name: r.Name, AuthorName: r.AuthorName}
	if r.Price != nil {
		s := string(*r.Price)
		in.Price = &s
	}
	return in
}

// PriceText 价格原文，JSON里可以是数字（25.5）也可以是字符串（"25.50"）
// 保留原文而不是先转成float64，避免精度在解析阶段就丢失
type PriceText string

// UnmarshalJSON 接受数字或字符串
func (p *PriceText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PriceText(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return apperrors.FieldError("price", "A valid number is required.")
	}
	*p = PriceText(n.String())
	return nil
}

// ListBooksQuery HTTP图书列表查询参数
// page/page_size非法时按默认值处理，price非法返回字段错误
type ListBooksQuery struct {
	Page     string `form:"page" example:"1"`
	PageSize string `form:"page_size" example:"20"`
	Price    string `form:"price" example:"25.00"`
	Search   string `form:"search" example:"Author 1"`
	Ordering string `form:"ordering" example:"-price,author_name"`
}
