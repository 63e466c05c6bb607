package address

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ETHGenerator 以太坊地址生成器
type ETHGenerator struct{}

func NewETHGenerator() *ETHGenerator {
	return &ETHGenerator{}
}

// PubKeyToAddress 公钥 (65 字节 0x04 前缀或 64 字节裸坐标) 转 EIP-55 地址
func (g *ETHGenerator) PubKeyToAddress(pubKeyBytes []byte) (string, error) {
	// 1. 去掉前缀 0x04
	if len(pubKeyBytes) == 65 && pubKeyBytes[0] == 0x04 {
		pubKeyBytes = pubKeyBytes[1:]
	}
	if len(pubKeyBytes) != 64 {
		return "", fmt.Errorf("公钥长度错误: %d", len(pubKeyBytes))
	}

	// 2. Keccak-256 后取后 20 字节
	addressBytes := keccak256(pubKeyBytes)[12:]

	// 3. 添加 EIP-55 校验和
	return ToChecksumAddress(hex.EncodeToString(addressBytes)), nil
}

// ToChecksumAddress 实现 EIP-55 混合大小写，输入可带 0x
func ToChecksumAddress(addr string) string {
	addr = strings.ToLower(strings.TrimPrefix(addr, "0x"))
	hexHash := hex.EncodeToString(keccak256([]byte(addr)))

	var sb strings.Builder
	sb.WriteString("0x")
	for i := 0; i < len(addr); i++ {
		// hash 对应位 >= 8 时大写
		if hexHash[i] >= '8' {
			sb.WriteString(strings.ToUpper(string(addr[i])))
		} else {
			sb.WriteByte(addr[i])
		}
	}
	return sb.String()
}

func keccak256(data []byte) []byte {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(data)
	return hash.Sum(nil)
}
