package safe_random

import (
	"crypto/rand"
	"fmt"
)

// GenerateRandomBytes 生成指定长度的安全随机字节，用于 keystore 的 salt 和 nonce
func GenerateRandomBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("随机字节长度必须为正数: %d", n)
	}
	b := make([]byte, n)
	// 只有读满 len(b) 个字节时 err 才为 nil
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("生成随机字节失败: %w", err)
	}
	return b, nil
}
