package book

import (
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "Not found.")

	// ErrPermissionDenied 既不是所有者也不是管理员
	ErrPermissionDenied = apperrors.ErrPermissionDenied

	// ErrNotAuthenticated 创建图书需要登录
	ErrNotAuthenticated = apperrors.ErrUnauthorized
)

// 字段校验提示
const (
	msgRequired       = "This field is required."
	msgBlank          = "This field may not be blank."
	msgMaxLength      = "Ensure this field has no more than %d characters."
	msgInvalidNumber  = "A valid number is required."
	msgMaxDigits      = "Ensure that there are no more than %d digits in total."
	msgMaxDecimals    = "Ensure that there are no more than %d decimal places."
	msgMaxWholeDigits = "Ensure that there are no more than %d digits before the decimal point."
)
