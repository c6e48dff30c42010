package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	apprelation "github.com/xiebiao/bookshelf/internal/application/relation"
	"github.com/xiebiao/bookshelf/internal/interface/http/dto"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
	"github.com/xiebiao/bookshelf/pkg/response"
	"github.com/xiebiao/bookshelf/pkg/validator"
)

// RelationHandler 用户-图书关系处理器
type RelationHandler struct {
	updateRelationUseCase *apprelation.UpdateRelationUseCase
}

// NewRelationHandler 创建关系处理器
func NewRelationHandler(updateRelationUseCase *apprelation.UpdateRelationUseCase) *RelationHandler {
	return &RelationHandler{updateRelationUseCase: updateRelationUseCase}
}

// UpdateRelation 点赞/收藏/评分
// @Summary      更新当前用户与图书的关系
// @Description  关系不存在时自动创建；评分变化时同步重算图书评分
// @Tags         关系
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        book_id  path  int                  true  "图书ID"
// @Param        request  body  dto.RelationRequest  true  "like、in_bookmarks、rate的任意子集"
// @Success      200 {object} apprelation.RelationResponse "当前关系"
// @Failure      400 {object} map[string][]string "参数错误"
// @Failure      401 {object} response.ErrorBody "未登录"
// @Failure      404 {object} response.ErrorBody "图书不存在"
// @Router       /relations/{book_id}/ [patch]
func (h *RelationHandler) UpdateRelation(c *gin.Context) {
	bookID, ok := pathID(c, "book_id")
	if !ok {
		return
	}

	// 评分非法时在绑定阶段就返回400，不会触碰数据库
	// 空请求体等同于{}：只建立关系，不修改任何字段
	var req dto.RelationRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, validator.Translate(err))
		return
	}

	result, err := h.updateRelationUseCase.Execute(c.Request.Context(), apprelation.UpdateRelationRequest{
		UserID: middleware.GetUserID(c),
		BookID: bookID,
		Patch:  req.ToPatch(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
