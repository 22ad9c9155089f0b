// Package policy 内容安全策略：拒绝任何自称亲属的请求
package policy

import (
	"strings"
)

// ImpersonationKeywords 亲属称谓与第一人称关系声明，按子串匹配，不做词形还原
var ImpersonationKeywords = []string{
	"son",
	"daughter",
	"grandson",
	"granddaughter",
	"nephew",
	"niece",
	"cousin",
	"sibling",
	"brother",
	"sister",
	"mom",
	"dad",
	"mother",
	"father",
	"your son",
	"your daughter",
	"your grandson",
	"your granddaughter",
	"I am your",
	"this is your",
	"from your",
	"your family",
}

// DetectImpersonation 命中任意关键词返回 true。
// 扫描范围是类别、补充说明和性格描述，recipientName 不参与扫描。
func DetectImpersonation(recipientName, category, categoryOther, personality string) bool {
	buf := strings.ToLower(category + " " + categoryOther + " " + personality)

	for _, kw := range ImpersonationKeywords {
		if strings.Contains(buf, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// ContainsKeyword 对任意文本做同样的扫描，用于校验模板
func ContainsKeyword(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, kw := range ImpersonationKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}
