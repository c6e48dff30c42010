package dto

import (
	"bytes"
	"encoding/json"

	"github.com/xiebiao/bookshelf/internal/domain/relation"
)

// RelationRequest PATCH /relations/{book_id}/ 请求体，三个字段都可选
type RelationRequest struct {
	Like        *bool        `json:"like" example:"true"`
	InBookmarks *bool        `json:"in_bookmarks" example:"false"`
	Rate        OptionalRate `json:"rate" swaggertype:"integer" enums:"1,2,3,4,5" example:"5"`
}

// ToPatch HTTP DTO → 领域Patch
func (r RelationRequest) ToPatch() relation.Patch {
	p := relation.Patch{Like: r.Like, InBookmarks: r.InBookmarks}
	if r.Rate.Set {
		p = p.WithRate(r.Rate.Value)
	}
	return p
}

// OptionalRate 区分三种情况：字段缺失（Set=false）、null（清除评分）、具体评分
// 非指针类型，JSON里的null也会调用UnmarshalJSON
type OptionalRate struct {
	Set   bool
	Value *relation.Rate
}

// UnmarshalJSON 接受整数、数字字符串（"3"）或null，其他值返回rate字段错误
func (o *OptionalRate) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.Value = nil

	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}

	rate, err := relation.ParseRate(raw)
	if err != nil {
		return err
	}
	o.Value = &rate
	return nil
}
