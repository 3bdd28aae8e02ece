package pkg

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Paging 非法值回落默认值，不报错
func Paging(page, limit int) (int, int) {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	return page, limit
}

func Offset(page, limit int) int {
	return (page - 1) * limit
}

// Pages 总页数，向上取整
func Pages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}

// Sanitize 去首尾空白并按字符数截断
func Sanitize(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		s = string([]rune(s)[:maxLen])
	}
	return s
}

// CheckPassword 至少 8 位，含大小写、数字、特殊字符
func CheckPassword(p string) error {
	if len(p) < 8 {
		return Validation("password must be at least 8 characters long")
	}
	var upper, lower, digit, special bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	switch {
	case !upper:
		return Validation("password must contain at least one uppercase letter")
	case !lower:
		return Validation("password must contain at least one lowercase letter")
	case !digit:
		return Validation("password must contain at least one number")
	case !special:
		return Validation("password must contain at least one special character")
	}
	return nil
}
