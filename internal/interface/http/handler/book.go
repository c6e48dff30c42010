package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/interface/http/dto"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
	"github.com/xiebiao/bookshelf/pkg/response"
	"github.com/xiebiao/bookshelf/pkg/validator"
)

// BookHandler 图书HTTP处理器
// 设计说明:
// 1. Handler只负责HTTP相关的事情：解析请求、调用应用层、返回响应
// 2. 当前用户从认证中间件注入的Context读取，权限判断交给领域层
type BookHandler struct {
	listBooksUseCase  *appbook.ListBooksUseCase
	getBookUseCase    *appbook.GetBookUseCase
	createBookUseCase *appbook.CreateBookUseCase
	updateBookUseCase *appbook.UpdateBookUseCase
	deleteBookUseCase *appbook.DeleteBookUseCase
}

// NewBookHandler 创建图书处理器
func NewBookHandler(
	listBooksUseCase *appbook.ListBooksUseCase,
	getBookUseCase *appbook.GetBookUseCase,
	createBookUseCase *appbook.CreateBookUseCase,
	updateBookUseCase *appbook.UpdateBookUseCase,
	deleteBookUseCase *appbook.DeleteBookUseCase,
) *BookHandler {
	return &BookHandler{
		listBooksUseCase:  listBooksUseCase,
		getBookUseCase:    getBookUseCase,
		createBookUseCase: createBookUseCase,
		updateBookUseCase: updateBookUseCase,
		deleteBookUseCase: deleteBookUseCase,
	}
}

// ListBooks 图书列表
// @Summary      图书列表
// @Description  价格精确过滤、按书名/作者多词搜索、按price/author_name排序，分页返回
// @Tags         图书
// @Produce      json
// @Param        price      query  string  false  "价格精确匹配"  example(25.00)
// @Param        search     query  string  false  "搜索词，空格或逗号分隔"
// @Param        ordering   query  string  false  "排序字段，-前缀表示降序"  example(-price,author_name)
// @Param        page       query  int     false  "页码"  default(1)
// @Param        page_size  query  int     false  "每页数量(最大100)"  default(20)
// @Success      200 {object} response.PageData{results=[]appbook.BookResponse} "图书列表"
// @Failure      400 {object} map[string][]string "参数错误"
// @Router       /books/ [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	var query dto.ListBooksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, validator.Translate(err))
		return
	}

	result, err := h.listBooksUseCase.Execute(c.Request.Context(), appbook.ListBooksRequest{
		Page:     atoiOrZero(query.Page),
		PageSize: atoiOrZero(query.PageSize),
		Price:    query.Price,
		Search:   query.Search,
		Ordering: query.Ordering,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPage(c, result.Results, result.Total, result.Page, result.PageSize)
}

// GetBook 图书详情
// @Summary      图书详情
// @Tags         图书
// @Produce      json
// @Param        id   path  int  true  "图书ID"
// @Success      200 {object} appbook.BookResponse "图书"
// @Failure      404 {object} response.ErrorBody "不存在"
// @Router       /books/{id}/ [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.getBookUseCase.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CreateBook 创建图书
// @Summary      创建图书
// @Description  当前用户成为图书的所有者
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.BookRequest true "图书信息"
// @Success      201 {object} appbook.BookResponse "创建成功"
// @Failure      400 {object} map[string][]string "参数错误"
// @Failure      401 {object} response.ErrorBody "未登录"
// @Router       /books/ [post]
func (h *BookHandler) CreateBook(c *gin.Context) {
	var req dto.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, validator.Translate(err))
		return
	}

	result, err := h.createBookUseCase.Execute(c.Request.Context(), appbook.CreateBookRequest{
		Actor: middleware.GetActor(c),
		Input: req.ToInput(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// UpdateBook 全量修改图书（PUT）
// @Summary      修改图书
// @Description  只有所有者或管理员可以修改
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path  int              true  "图书ID"
// @Param        request body  dto.BookRequest  true  "图书信息"
// @Success      200 {object} appbook.BookResponse "修改成功"
// @Failure      400 {object} map[string][]string "参数错误"
// @Failure      403 {object} response.ErrorBody "无权限"
// @Failure      404 {object} response.ErrorBody "不存在"
// @Router       /books/{id}/ [put]
func (h *BookHandler) UpdateBook(c *gin.Context) {
	h.update(c, false)
}

// PatchBook 部分修改图书（PATCH）
// @Summary      部分修改图书
// @Description  只有所有者或管理员可以修改，未提供的字段保持不变
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path  int              true  "图书ID"
// @Param        request body  dto.BookRequest  true  "要修改的字段"
// @Success      200 {object} appbook.BookResponse "修改成功"
// @Failure      400 {object} map[string][]string "参数错误"
// @Failure      403 {object} response.ErrorBody "无权限"
// @Failure      404 {object} response.ErrorBody "不存在"
// @Router       /books/{id}/ [patch]
func (h *BookHandler) PatchBook(c *gin.Context) {
	h.update(c, true)
}

func (h *BookHandler) update(c *gin.Context, partial bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, validator.Translate(err))
		return
	}

	result, err := h.updateBookUseCase.Execute(c.Request.Context(), appbook.UpdateBookRequest{
		Actor:   middleware.GetActor(c),
		ID:      id,
		Input:   req.ToInput(),
		Partial: partial,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DeleteBook 删除图书
// @Summary      删除图书
// @Description  只有所有者或管理员可以删除，图书的所有关系一并删除
// @Tags         图书
// @Security     BearerAuth
// @Param        id   path  int  true  "图书ID"
// @Success      204 "删除成功"
// @Failure      403 {object} response.ErrorBody "无权限"
// @Failure      404 {object} response.ErrorBody "不存在"
// @Router       /books/{id}/ [delete]
func (h *BookHandler) DeleteBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.deleteBookUseCase.Execute(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// =========================================
// 辅助函数
// =========================================

// pathID 解析路径中的正整数ID，非法时返回404（与路由不匹配时的行为一致）
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, book.ErrBookNotFound)
		return 0, false
	}
	return uint(id), true
}

// atoiOrZero 分页参数非法时返回0，由用例使用默认值
func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
