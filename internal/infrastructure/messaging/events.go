// Package messaging 领域事件发布
//
// 设计说明：
// 1. 事件在事务提交之后发布，发布失败只记录日志，不回滚已经提交的业务数据
// 2. RabbitMQ调用放在熔断器后面：Broker不可用时快速失败，不拖慢请求
// 3. mq.enabled=false时使用NoopPublisher，业务代码不需要判断
package messaging

import (
	"time"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/rating"
	"github.com/xiebiao/bookshelf/internal/domain/relation"
)

// Routing key
const (
	RoutingRelationUpdated   = "relation.updated"
	RoutingBookRatingChanged = "book.rating_changed"
	RoutingBookDeleted       = "book.deleted"
)

// RoutingKeys 全部事件（命令行观察事件时绑定）
var RoutingKeys = []string{RoutingRelationUpdated, RoutingBookRatingChanged, RoutingBookDeleted}

// RelationUpdated 用户修改了点赞/收藏/评分
type RelationUpdated struct {
	UserID      uint      `json:"user_id"`
	BookID      uint      `json:"book_id"`
	Like        bool      `json:"like"`
	InBookmarks bool      `json:"in_bookmarks"`
	Rate        *int      `json:"rate"`
	Created     bool      `json:"created"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewRelationUpdated 由关系构造事件
func NewRelationUpdated(rel *relation.Relation, created bool) RelationUpdated {
	ev := RelationUpdated{
		UserID:      rel.UserID,
		BookID:      rel.BookID,
		Like:        rel.Like,
		InBookmarks: rel.InBookmarks,
		Created:     created,
		OccurredAt:  time.Now().UTC(),
	}
	if rel.Rate != nil {
		v := int(*rel.Rate)
		ev.Rate = &v
	}
	return ev
}

// BookRatingChanged 图书评分被重算
type BookRatingChanged struct {
	BookID     uint      `json:"book_id"`
	Rating     *string   `json:"rating"` // "4.67"，没有评分时为null
	OccurredAt time.Time `json:"occurred_at"`
}

// NewBookRatingChanged 由图书当前评分构造事件
func NewBookRatingChanged(b *book.Book) BookRatingChanged {
	ev := BookRatingChanged{BookID: b.ID, OccurredAt: time.Now().UTC()}
	if b.Rating.Valid {
		s := b.Rating.Decimal.StringFixed(rating.Places)
		ev.Rating = &s
	}
	return ev
}

// BookDeleted 图书被删除（关系已一并删除）
type BookDeleted struct {
	BookID     uint      `json:"book_id"`
	ActorID    uint      `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
