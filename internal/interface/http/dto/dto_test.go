package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshelf/internal/domain/relation"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

func TestBookRequestPrice(t *testing.T) {
	testCases := []struct {
		name string
		body string
		want *string
	}{
		{"字符串", `{"price": "25.50"}`, strPtr("25.50")},
		{"数字", `{"price": 25.5}`, strPtr("25.5")},
		{"整数", `{"price": 575}`, strPtr("575")},
		{"缺失", `{}`, nil},
		{"null", `{"price": null}`, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var req BookRequest
			require.NoError(t, json.Unmarshal([]byte(tc.body), &req))
			assert.Equal(t, tc.want, req.ToInput().Price)
		})
	}

	t.Run("布尔值", func(t *testing.T) {
		var req BookRequest
		err := json.Unmarshal([]byte(`{"price": true}`), &req)
		appErr := apperrors.GetAppError(err)
		assert.Equal(t, []string{"A valid number is required."}, appErr.Fields["price"])
	})
}

func TestRelationRequestRate(t *testing.T) {
	rate := func(r relation.Rate) *relation.Rate { return &r }

	testCases := []struct {
		name    string
		body    string
		set     bool
		want    *relation.Rate
		errText string
	}{
		{"缺失", `{"like": true}`, false, nil, ""},
		{"整数", `{"rate": 5}`, true, rate(relation.RateIncredible), ""},
		{"数字字符串", `{"rate": "3"}`, true, rate(relation.RateGood), ""},
		{"null清除评分", `{"rate": null}`, true, nil, ""},
		{"超出范围", `{"rate": 10}`, false, nil, `"10" is not a valid choice.`},
		{"非数字", `{"rate": "abc"}`, false, nil, `"abc" is not a valid choice.`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var req RelationRequest
			err := json.Unmarshal([]byte(tc.body), &req)
			if tc.errText != "" {
				appErr := apperrors.GetAppError(err)
				assert.Equal(t, []string{tc.errText}, appErr.Fields["rate"])
				return
			}
			require.NoError(t, err)

			patch := req.ToPatch()
			assert.Equal(t, tc.set, patch.RateSet)
			assert.Equal(t, tc.want, patch.Rate)
		})
	}
}

func strPtr(s string) *string { return &s }
