package relation

import (
	"fmt"
	"strconv"
)

// Rate 评分等级（1..5）
type Rate int

const (
	RateOk Rate = iota + 1
	RateFine
	RateGood
	RateAmazing
	RateIncredible
)

var rateNames = map[Rate]string{
	RateOk:         "Ok",
	RateFine:       "Fine",
	RateGood:       "Good",
	RateAmazing:    "Amazing",
	RateIncredible: "Incredible",
}

// Valid 是否为五个等级之一
func (r Rate) Valid() bool {
	return r >= RateOk && r <= RateIncredible
}

func (r Rate) String() string {
	if name, ok := rateNames[r]; ok {
		return name
	}
	return strconv.Itoa(int(r))
}

// Relation 用户与图书之间的关系（每个(user, book)至多一条）
// 设计说明:
// 1. 第一次操作时惰性创建，之后原地更新，只随用户或图书的删除而级联删除
// 2. Rate为nil表示未评分，不参与平均分计算
type Relation struct {
	ID          uint
	UserID      uint
	BookID      uint
	Like        bool
	InBookmarks bool
	Rate        *Rate
}

// New 创建空关系（未点赞、未收藏、未评分）
func New(userID, bookID uint) *Relation {
	return &Relation{UserID: userID, BookID: bookID}
}

// Patch 部分更新，nil字段保持不变
// Rate需要区分"未提供"与"显式置空"，所以额外用RateSet标记
type Patch struct {
	Like        *bool
	InBookmarks *bool
	RateSet     bool
	Rate        *Rate
}

// WithRate 设置评分（nil表示清除评分）
func (p Patch) WithRate(rate *Rate) Patch {
	p.RateSet = true
	p.Rate = rate
	return p
}

// Validate 写库之前的校验
func (p Patch) Validate() error {
	if p.RateSet && p.Rate != nil && !p.Rate.Valid() {
		return InvalidRateError(strconv.Itoa(int(*p.Rate)))
	}
	return nil
}

// Apply 把patch应用到关系上
func (r *Relation) Apply(p Patch) {
	if p.Like != nil {
		r.Like = *p.Like
	}
	if p.InBookmarks != nil {
		r.InBookmarks = *p.InBookmarks
	}
	if p.RateSet {
		if p.Rate == nil {
			r.Rate = nil
		} else {
			rate := *p.Rate
			r.Rate = &rate
		}
	}
}

// RateChanged 比较写入前后的评分
// prior为写入前数据库中的值，新建的关系传nil（"不存在"与任何具体评分都不相等）
func RateChanged(prior, current *Rate) bool {
	switch {
	case prior == nil && current == nil:
		return false
	case prior == nil || current == nil:
		return true
	default:
		return *prior != *current
	}
}

// ParseRate 解析外部输入（整数或数字字符串），不在1..5范围内返回字段错误
func ParseRate(raw string) (Rate, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || !Rate(n).Valid() {
		return 0, InvalidRateError(raw)
	}
	return Rate(n), nil
}

func rateChoiceMessage(raw string) string {
	return fmt.Sprintf("%q is not a valid choice.", raw)
}
