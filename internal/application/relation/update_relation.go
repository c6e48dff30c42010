package relation

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/relation"
	"github.com/xiebiao/bookshelf/internal/infrastructure/messaging"
	"github.com/xiebiao/bookshelf/pkg/logger"
	"github.com/xiebiao/bookshelf/pkg/metrics"
	"github.com/xiebiao/bookshelf/pkg/tracing"
)

// UpdateRelationUseCase 点赞/收藏/评分用例
// 设计说明:
// 1. 关系的读取、比较、保存和评分重算都在领域服务的一个事务里完成
// 2. 事务提交后发布relation.updated；评分被重算时再发布book.rating_changed
// 3. 事件发布失败不影响响应
type UpdateRelationUseCase struct {
	relationService relation.Service
	books           book.Repository
	publisher       messaging.EventPublisher
}

// NewUpdateRelationUseCase 创建用例
func NewUpdateRelationUseCase(
	relationService relation.Service,
	books book.Repository,
	publisher messaging.EventPublisher,
) *UpdateRelationUseCase {
	return &UpdateRelationUseCase{
		relationService: relationService,
		books:           books,
		publisher:       publisher,
	}
}

// UpdateRelationRequest 请求DTO
type UpdateRelationRequest struct {
	UserID uint // 当前用户（从认证中间件获取）
	BookID uint
	Patch  relation.Patch
}

// RelationResponse 关系表示
type RelationResponse struct {
	Book        uint `json:"book"`
	Like        bool `json:"like"`
	InBookmarks bool `json:"in_bookmarks"`
	Rate        *int `json:"rate"`
}

// Execute 执行更新
func (uc *UpdateRelationUseCase) Execute(ctx context.Context, req UpdateRelationRequest) (_ *RelationResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, "relation.Update", trace.WithAttributes(
		attribute.Int64("user.id", int64(req.UserID)),
		attribute.Int64("book.id", int64(req.BookID)),
	))
	defer func() {
		tracing.RecordError(span, err)
		span.End()
	}()

	result, err := uc.relationService.Upsert(ctx, req.UserID, req.BookID, req.Patch)
	if err != nil {
		metrics.IncRelationWrite("error")
		return nil, err
	}
	if result.Created {
		metrics.IncRelationWrite("created")
	} else {
		metrics.IncRelationWrite("updated")
	}
	span.SetAttributes(attribute.Bool("relation.rating_changed", result.RatingChanged))

	uc.publish(ctx, result)
	return toRelationResponse(result.Relation), nil
}

// publish 事务已提交，这里的失败只记录日志
func (uc *UpdateRelationUseCase) publish(ctx context.Context, result *relation.Result) {
	messaging.PublishAfterCommit(ctx, uc.publisher, messaging.RoutingRelationUpdated,
		messaging.NewRelationUpdated(result.Relation, result.Created))

	if !result.RatingChanged {
		return
	}
	b, err := uc.books.FindByID(ctx, result.Relation.BookID)
	if err != nil {
		logger.FromContext(ctx).WarnContext(ctx, "load book for rating event failed",
			"book_id", result.Relation.BookID, "error", err)
		return
	}
	messaging.PublishAfterCommit(ctx, uc.publisher, messaging.RoutingBookRatingChanged, messaging.NewBookRatingChanged(b))
}

func toRelationResponse(rel *relation.Relation) *RelationResponse {
	resp := &RelationResponse{
		Book:        rel.BookID,
		Like:        rel.Like,
		InBookmarks: rel.InBookmarks,
	}
	if rel.Rate != nil {
		v := int(*rel.Rate)
		resp.Rate = &v
	}
	return resp
}
