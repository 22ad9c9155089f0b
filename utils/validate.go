package utils

import (
	"regexp"
)

var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// ValidatePhone 校验 E.164 格式：+ 开头，首位 1-9，其后 1-14 位数字
func ValidatePhone(phone string) bool {
	return e164Pattern.MatchString(phone)
}
