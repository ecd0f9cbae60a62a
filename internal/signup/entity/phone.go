package entity

import (
	"strings"

	"github.com/samber/lo"
)

// DefaultCountryCode is prefixed to bare 10 digit numbers.
const DefaultCountryCode = "+91"

// NormalizePhone returns raw in E.164 form.
//
// A value starting with '+' already carries its country code and only loses
// formatting characters. Otherwise every non-digit is dropped and exactly 10
// digits must remain; they are prefixed with countryCode.
func NormalizePhone(raw, countryCode string) (string, error) {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}

	raw = strings.TrimSpace(raw)
	digits := string(lo.Filter([]rune(raw), func(r rune, _ int) bool {
		return r >= '0' && r <= '9'
	}))

	if strings.HasPrefix(raw, "+") {
		if digits == "" {
			return "", ErrInvalidPhoneFormat
		}
		return "+" + digits, nil
	}

	if len(digits) != 10 {
		return "", ErrInvalidPhoneFormat
	}

	return countryCode + digits, nil
}
