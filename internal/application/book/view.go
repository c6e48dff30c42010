package book

import (
	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/rating"
)

// BookResponse 图书表示（列表、详情、创建、修改共用）
// price和rating以两位小数的字符串返回，没有评分/所有者时为null
type BookResponse struct {
	ID             uint             `json:"id"`
	Name           string           `json:"name"`
	Price          string           `json:"price"`
	AuthorName     string           `json:"author_name"`
	AnnotatedLikes int64            `json:"annotated_likes"`
	Rating         *string          `json:"rating"`
	OwnerName      *string          `json:"owner_name"`
	Readers        []ReaderResponse `json:"readers"`
}

// ReaderResponse 读者（与图书有关系的用户）
type ReaderResponse struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// NewBookResponse 领域视图 → 响应DTO
func NewBookResponse(v *book.View) BookResponse {
	resp := BookResponse{
		ID:             v.ID,
		Name:           v.Name,
		Price:          v.Price.StringFixed(book.PriceDecimals),
		AuthorName:     v.AuthorName,
		AnnotatedLikes: v.AnnotatedLikes,
		OwnerName:      v.OwnerName,
		Readers:        make([]ReaderResponse, len(v.Readers)),
	}
	if v.Rating.Valid {
		s := v.Rating.Decimal.StringFixed(rating.Places)
		resp.Rating = &s
	}
	for i, r := range v.Readers {
		resp.Readers[i] = ReaderResponse{FirstName: r.FirstName, LastName: r.LastName}
	}
	return resp
}
