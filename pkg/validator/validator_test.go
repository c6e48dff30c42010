package validator

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

type registerRequest struct {
	Username string `json:"username" binding:"required,max=150"`
	Password string `json:"password" binding:"required,min=8"`
	Email    string `json:"email" binding:"omitempty,email"`
}

func TestTranslate_ValidationErrors(t *testing.T) {
	Setup()

	req := registerRequest{Password: "short", Email: "not-an-email"}
	err := binding.Validator.ValidateStruct(&req)
	require.Error(t, err)

	appErr := Translate(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrCodeInvalidParams, appErr.Code)
	assert.Equal(t, map[string][]string{
		"username": {"This field is required."},
		"password": {"Ensure this field has at least 8 characters."},
		"email":    {"Enter a valid email address."},
	}, appErr.Fields)
}

func TestTranslate_JSONErrors(t *testing.T) {
	t.Run("类型错误定位到字段", func(t *testing.T) {
		var req registerRequest
		err := json.Unmarshal([]byte(`{"username": 12}`), &req)
		appErr := Translate(err)
		assert.Equal(t, map[string][]string{"username": {"Not a valid string."}}, appErr.Fields)
	})

	t.Run("语法错误", func(t *testing.T) {
		var req registerRequest
		err := json.Unmarshal([]byte(`{"username":`), &req)
		appErr := Translate(err)
		assert.Equal(t, apperrors.ErrCodeBindError, appErr.Code)
		assert.Contains(t, appErr.Message, "JSON parse error")
	})

	t.Run("未知错误", func(t *testing.T) {
		appErr := Translate(errors.New("EOF"))
		assert.Equal(t, apperrors.ErrBindError.Message, appErr.Message)
	})

	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, Translate(nil))
	})
}
