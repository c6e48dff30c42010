package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAppError(t *testing.T) {
	t.Run("AppError原样返回", func(t *testing.T) {
		got := GetAppError(ErrPermissionDenied)
		assert.Same(t, ErrPermissionDenied, got)
	})

	t.Run("包装过的AppError可以被提取", func(t *testing.T) {
		wrapped := fmt.Errorf("update book: %w", ErrNotFound)
		got := GetAppError(wrapped)
		assert.Equal(t, ErrCodeNotFound, got.Code)
	})

	t.Run("普通错误转换为Internal", func(t *testing.T) {
		cause := stderrors.New("connection reset")
		got := GetAppError(cause)
		assert.Equal(t, ErrCodeInternal, got.Code)
		assert.ErrorIs(t, got, cause)
	})
}

func TestValidation(t *testing.T) {
	err := FieldError("rate", `"10" is not a valid choice.`)

	require.Equal(t, ErrCodeInvalidParams, err.Code)
	assert.Equal(t, map[string][]string{"rate": {`"10" is not a valid choice.`}}, err.Fields)
	assert.Equal(t, []string{"rate"}, err.FieldNames())
	assert.Contains(t, err.Error(), "rate")
}

func TestAppErrorIs(t *testing.T) {
	derived := New(ErrCodeForbidden, ErrPermissionDenied.Message)
	assert.ErrorIs(t, derived, ErrPermissionDenied)
	assert.NotErrorIs(t, ErrNotFound, ErrPermissionDenied)
}

func TestWithErr(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")
	err := ErrRedisError.WithErr(cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrRedisError)
	assert.Nil(t, ErrRedisError.Err, "预定义错误不能被修改")
}

func TestHTTPStatus(t *testing.T) {
	testCases := []struct {
		code int
		want int
	}{
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeInvalidPassword, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeBookNotFound, http.StatusNotFound},
		{ErrCodeInvalidParams, http.StatusBadRequest},
		{ErrCodeUsernameDuplicate, http.StatusBadRequest},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeIntegrity, http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, HTTPStatus(tc.code), "code=%d", tc.code)
	}
}
