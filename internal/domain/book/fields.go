package book

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// 字段约束，与数据库列定义一致：name/author_name VARCHAR(255)，price DECIMAL(7,2)
const (
	MaxNameLength  = 255
	PriceMaxDigits = 7
	PriceDecimals  = 2
)

// Input 来自客户端的原始字段，nil表示未提供
// Price保留原始文本（JSON里可能是数字也可能是字符串），校验时再解析
type Input struct {
	Name       *string
	Price      *string
	AuthorName *string
}

// Values 校验通过的字段
type Values struct {
	Name       *string
	Price      *decimal.Decimal
	AuthorName *string
}

// Validate 校验字段，所有错误一次性以字段映射返回
// partial=false（创建、PUT）时name和price必填，partial=true（PATCH）时全部可选
func (in Input) Validate(partial bool) (Values, error) {
	fields := map[string][]string{}
	var out Values

	if in.Name == nil {
		if !partial {
			fields["name"] = []string{msgRequired}
		}
	} else if msg := validateText(*in.Name); msg != "" {
		fields["name"] = []string{msg}
	} else {
		out.Name = in.Name
	}

	if in.Price == nil {
		if !partial {
			fields["price"] = []string{msgRequired}
		}
	} else if price, msg := parsePrice(*in.Price); msg != "" {
		fields["price"] = []string{msg}
	} else {
		out.Price = &price
	}

	if in.AuthorName != nil {
		if msg := validateText(*in.AuthorName); msg != "" {
			fields["author_name"] = []string{msg}
		} else {
			out.AuthorName = in.AuthorName
		}
	}

	if len(fields) > 0 {
		return Values{}, apperrors.Validation(fields)
	}
	return out, nil
}

func validateText(s string) string {
	if strings.TrimSpace(s) == "" {
		return msgBlank
	}
	if utf8.RuneCountInString(s) > MaxNameLength {
		return fmt.Sprintf(msgMaxLength, MaxNameLength)
	}
	return ""
}

// parsePrice 按DECIMAL(7,2)校验：总位数≤7，小数位≤2，整数位≤5
func parsePrice(raw string) (decimal.Decimal, string) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, msgInvalidNumber
	}

	coef := d.Coefficient()
	digits := len(coef.Abs(coef).String())
	exp := int(d.Exponent())

	var total, places int
	switch {
	case exp >= 0:
		total, places = digits+exp, 0
	case digits > -exp:
		total, places = digits, -exp
	default:
		total, places = -exp, -exp
	}
	whole := total - places

	switch {
	case total > PriceMaxDigits:
		return decimal.Decimal{}, fmt.Sprintf(msgMaxDigits, PriceMaxDigits)
	case places > PriceDecimals:
		return decimal.Decimal{}, fmt.Sprintf(msgMaxDecimals, PriceDecimals)
	case whole > PriceMaxDigits-PriceDecimals:
		return decimal.Decimal{}, fmt.Sprintf(msgMaxWholeDigits, PriceMaxDigits-PriceDecimals)
	}
	return d, ""
}
