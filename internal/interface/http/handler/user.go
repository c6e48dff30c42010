package handler

import (
	"github.com/gin-gonic/gin"

	appuser "github.com/xiebiao/bookshelf/internal/application/user"
	"github.com/xiebiao/bookshelf/internal/interface/http/dto"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
	"github.com/xiebiao/bookshelf/pkg/response"
	"github.com/xiebiao/bookshelf/pkg/validator"
)

// UserHandler 用户HTTP处理器
// 设计说明：
// 1. Handler只负责HTTP相关的事情：解析请求、调用应用层、返回响应
// 2. 不包含业务逻辑（业务逻辑在domain和application层）
// 3. 使用依赖注入，便于测试
type UserHandler struct {
	registerUseCase      *appuser.RegisterUseCase
	loginUseCase         *appuser.LoginUseCase
	logoutUseCase        *appuser.LogoutUseCase
	refreshTokenUseCase  *appuser.RefreshTokenUseCase
	getProfileUseCase    *appuser.GetProfileUseCase
	deleteAccountUseCase *appuser.DeleteAccountUseCase
}

// NewUserHandler 创建用户处理器
func NewUserHandler(
	registerUseCase *appuser.RegisterUseCase,
	loginUseCase *appuser.LoginUseCase,
	logoutUseCase *appuser.LogoutUseCase,
	refreshTokenUseCase *appuser.RefreshTokenUseCase,
	getProfileUseCase *appuser.GetProfileUseCase,
	deleteAccountUseCase *appuser.DeleteAccountUseCase,
) *UserHandler {
	return &UserHandler{
		registerUseCase:      registerUseCase,
		loginUseCase:         loginUseCase,
		logoutUseCase:        logoutUseCase,
		refreshTokenUseCase:  refreshTokenUseCase,
		getProfileUseCase:    getProfileUseCase,
		deleteAccountUseCase: deleteAccountUseCase,
	}
}

// Register 用户注册
// @Summary      用户注册
// @Description  创建新用户账号（普通用户，管理员只能通过命令行设置）
// @Tags         用户
// @Accept       json
// @Produce      json
// @Param        request body dto.RegisterRequest true "注册信息"
// @Success      201 {object} appuser.UserInfo "注册成功"
// @Failure      400 {object} map[string][]string "参数错误或用户名已存在"
// @Router       /users/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	// 学习要点：Gin的ShouldBindJSON会自动校验binding tag
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, validator.Translate(err))
		return
	}

	result, err := h.registerUseCase.Execute(c.Request.Context(), appuser.RegisterRequest{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Login 用户登录
// @Summary      用户登录
// @Description  验证用户名密码，返回JWT Token对
// @Tags         用户
// @Accept       json
// @Produce      json
// @Param        request body dto.LoginRequest true "登录信息"
// @Success      200 {object} appuser.LoginResponse "登录成功"
// @Failure      400 {object} map[string][]string "参数错误"
// @Failure      401 {object} response.ErrorBody "用户名或密码错误"
// @Router       /users/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, validator.Translate(err))
		return
	}

	result, err := h.loginUseCase.Execute(c.Request.Context(), appuser.LoginRequest{
		Username: req.Username,
		Password: req.Password,
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Logout 用户登出
// @Summary      用户登出
// @Description  当前Access Token（以及可选的Refresh Token）立即失效
// @Tags         用户
// @Accept       json
// @Security     BearerAuth
// @Param        request body dto.LogoutRequest false "可选的Refresh Token"
// @Success      204 "登出成功"
// @Failure      401 {object} response.ErrorBody "未登录"
// @Router       /users/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, validator.Translate(err))
			return
		}
	}

	err := h.logoutUseCase.Execute(c.Request.Context(), appuser.LogoutRequest{
		Claims:       middleware.GetClaims(c),
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Refresh 刷新Access Token
// @Summary      刷新Access Token
// @Tags         用户
// @Accept       json
// @Produce      json
// @Param        request body dto.RefreshRequest true "Refresh Token"
// @Success      200 {object} appuser.RefreshResponse "新的Access Token"
// @Failure      401 {object} response.ErrorBody "Token无效或已失效"
// @Router       /users/refresh [post]
func (h *UserHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, validator.Translate(err))
		return
	}

	result, err := h.refreshTokenUseCase.Execute(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Me 当前用户信息
// @Summary      当前用户信息
// @Tags         用户
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} appuser.UserInfo "用户信息"
// @Failure      401 {object} response.ErrorBody "未登录"
// @Router       /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	result, err := h.getProfileUseCase.Execute(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DeleteMe 删除当前账号
// @Summary      删除当前账号
// @Description  删除用户的全部关系并重算受影响图书的评分，用户拥有的图书保留（所有者置空）
// @Tags         用户
// @Security     BearerAuth
// @Success      204 "删除成功"
// @Failure      401 {object} response.ErrorBody "未登录"
// @Router       /users/me [delete]
func (h *UserHandler) DeleteMe(c *gin.Context) {
	err := h.deleteAccountUseCase.Execute(c.Request.Context(), middleware.GetUserID(c), middleware.GetClaims(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
