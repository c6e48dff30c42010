package book

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestInputValidate(t *testing.T) {
	testCases := []struct {
		name    string
		in      Input
		partial bool
		want    map[string][]string
	}{
		{
			name: "合法",
			in:   Input{Name: strPtr("Test book 1"), Price: strPtr("25"), AuthorName: strPtr("Author 1")},
		},
		{
			name: "创建时缺少必填字段",
			in:   Input{AuthorName: strPtr("Author 1")},
			want: map[string][]string{
				"name":  {"This field is required."},
				"price": {"This field is required."},
			},
		},
		{
			name:    "PATCH可以只改价格",
			in:      Input{Price: strPtr("100.50")},
			partial: true,
		},
		{
			name: "名称为空白",
			in:   Input{Name: strPtr("   "), Price: strPtr("1")},
			want: map[string][]string{"name": {"This field may not be blank."}},
		},
		{
			name: "名称过长",
			in:   Input{Name: strPtr(strings.Repeat("书", 256)), Price: strPtr("1")},
			want: map[string][]string{"name": {"Ensure this field has no more than 255 characters."}},
		},
		{
			name: "价格不是数字",
			in:   Input{Name: strPtr("n"), Price: strPtr("abc")},
			want: map[string][]string{"price": {"A valid number is required."}},
		},
		{
			name: "价格小数位过多",
			in:   Input{Name: strPtr("n"), Price: strPtr("1.234")},
			want: map[string][]string{"price": {"Ensure that there are no more than 2 decimal places."}},
		},
		{
			name: "价格总位数过多",
			in:   Input{Name: strPtr("n"), Price: strPtr("123456.78")},
			want: map[string][]string{"price": {"Ensure that there are no more than 7 digits in total."}},
		},
		{
			name: "价格整数位过多",
			in:   Input{Name: strPtr("n"), Price: strPtr("123456")},
			want: map[string][]string{"price": {"Ensure that there are no more than 5 digits before the decimal point."}},
		},
		{
			name:    "作者为空",
			in:      Input{AuthorName: strPtr("")},
			partial: true,
			want:    map[string][]string{"author_name": {"This field may not be blank."}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			values, err := tc.in.Validate(tc.partial)
			if tc.want == nil {
				require.NoError(t, err)
				if tc.in.Price != nil {
					require.NotNil(t, values.Price)
				}
				return
			}
			appErr := apperrors.GetAppError(err)
			assert.Equal(t, apperrors.ErrCodeInvalidParams, appErr.Code)
			assert.Equal(t, tc.want, appErr.Fields)
		})
	}
}

func TestParsePrice(t *testing.T) {
	for _, raw := range []string{"25", "25.00", "0.5", "99999.99", "-1.50", "0.00"} {
		d, msg := parsePrice(raw)
		assert.Empty(t, msg, "raw=%s", raw)
		assert.False(t, d.IsZero() && raw != "0.00")
	}
}
