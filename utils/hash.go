package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken 验证 token 只落库摘要，用作单次使用的去重键
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// MaskPhone 日志里只保留前 3 位和后 2 位
func MaskPhone(phone string) string {
	if len(phone) <= 5 {
		return "***"
	}
	return phone[:3] + "****" + phone[len(phone)-2:]
}
