package relation

import (
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// InvalidRateError 评分不是五个等级之一
func InvalidRateError(raw string) *apperrors.AppError {
	return apperrors.FieldError("rate", rateChoiceMessage(raw))
}
