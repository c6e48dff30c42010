package response

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/logger"
)

// 设计说明：
// 1. 成功时直接返回资源本身（不再包一层code/message），与REST客户端的约定一致
// 2. 失败时HTTP状态码由业务错误码映射得到（见apperrors.HTTPStatus）
// 3. 字段校验错误返回字段映射 {"rate": ["..."]}，其他错误返回 {"detail": "..."}

// ErrorBody 非字段类错误的响应体
type ErrorBody struct {
	Detail string `json:"detail"`
}

// Success 200响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created 201响应（创建资源）
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// NoContent 204响应（删除资源）
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error 错误响应（自动处理AppError）
// 用法：
//
//	book, err := h.getBookUseCase.Execute(ctx, id)
//	if err != nil {
//	    response.Error(c, err)
//	    return
//	}
func Error(c *gin.Context, err error) {
	appErr := apperrors.GetAppError(err)
	status := apperrors.HTTPStatus(appErr.Code)

	// 5xx记录内部错误，客户端只看到通用提示
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).ErrorContext(c.Request.Context(), "request failed",
			slog.Int("code", appErr.Code),
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Any("error", appErr.Err),
		)
		c.AbortWithStatusJSON(status, ErrorBody{Detail: apperrors.ErrInternal.Message})
		return
	}

	if len(appErr.Fields) > 0 {
		c.AbortWithStatusJSON(status, appErr.Fields)
		return
	}
	c.AbortWithStatusJSON(status, ErrorBody{Detail: appErr.Message})
}

// =========================================
// 分页响应结构
// =========================================

// PageData 分页数据封装
type PageData struct {
	Count      int64       `json:"count"`       // 总记录数
	Page       int         `json:"page"`        // 当前页码
	PageSize   int         `json:"page_size"`   // 每页大小
	TotalPages int         `json:"total_pages"` // 总页数
	Results    interface{} `json:"results"`     // 数据列表
}

// NewPageData 创建分页数据
func NewPageData(results interface{}, total int64, page, pageSize int) *PageData {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(total) / pageSize
		if int(total)%pageSize != 0 {
			totalPages++
		}
	}

	return &PageData{
		Count:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Results:    results,
	}
}

// SuccessWithPage 分页成功响应
func SuccessWithPage(c *gin.Context, results interface{}, total int64, page, pageSize int) {
	Success(c, NewPageData(results, total, page, pageSize))
}
