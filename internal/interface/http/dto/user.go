package dto

// RegisterRequest HTTP层注册请求
// 说明：HTTP层的DTO，包含参数验证tag；用户名格式和密码强度由领域服务校验
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,max=150" example:"reader1"`
	Password  string `json:"password" binding:"required" example:"password123"`
	Email     string `json:"email" binding:"omitempty,email,max=254" example:"reader1@example.com"`
	FirstName string `json:"first_name" binding:"max=150" example:"Ivan"`
	LastName  string `json:"last_name" binding:"max=150" example:"Petrov"`
}

// LoginRequest HTTP层登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"reader1"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// LogoutRequest 登出请求，可选地一并作废Refresh Token
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshRequest 刷新Access Token请求
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}
