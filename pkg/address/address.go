package address

import (
	"regexp"
	"strings"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsValidAddress 只校验格式，不校验 EIP-55 大小写
func IsValidAddress(addr string) bool {
	return addressPattern.MatchString(addr)
}

// Equal 地址比较忽略大小写
func Equal(a, b string) bool {
	return strings.EqualFold(a, b)
}

// Normalize 统一为小写形式，用于缓存键和比较
func Normalize(addr string) string {
	return strings.ToLower(addr)
}
