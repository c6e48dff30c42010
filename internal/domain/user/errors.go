package user

import (
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

var (
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = apperrors.ErrUserNotFound

	// ErrUsernameDuplicate 用户名已被占用（字段错误，和其他注册校验错误格式一致）
	ErrUsernameDuplicate = apperrors.FieldError("username", apperrors.ErrUsernameDuplicate.Message)
)
