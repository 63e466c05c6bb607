package address

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// 直接型 (30/31 位 base36 负载) 或间接型 (ETH + 机构码 + 客户码)
var ibanPattern = regexp.MustCompile(`^XE[0-9]{2}(ETH[0-9A-Z]{13}|[0-9A-Z]{30,31})$`)

// IsValidIban 格式匹配且 ISO 13616 mod 97-10 校验结果为 1
func IsValidIban(iban string) bool {
	if !ibanPattern.MatchString(iban) {
		return false
	}
	return mod9710(iso13616Prepare(iban)) == 1
}

// IsDirectIban 直接型 IBAN 可以还原出地址
func IsDirectIban(iban string) bool {
	return len(iban) == 34 || len(iban) == 35
}

// IbanToAddress 直接型 IBAN 转 0x 地址，其它情况返回空串
func IbanToAddress(iban string) string {
	if !IsDirectIban(iban) {
		return ""
	}
	n, ok := new(big.Int).SetString(iban[4:], 36)
	if !ok {
		return ""
	}
	return fmt.Sprintf("0x%040x", n)
}

// iso13616Prepare 前 4 位移到末尾，字母替换为 10..35
func iso13616Prepare(iban string) string {
	iban = strings.ToUpper(iban)
	iban = iban[4:] + iban[:4]

	var sb strings.Builder
	for _, c := range iban {
		if c >= 'A' && c <= 'Z' {
			sb.WriteString(strconv.Itoa(int(c-'A') + 10))
		} else {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// mod9710 每次取 9 位做模运算，余数拼回剩余部分
func mod9710(digits string) int {
	remainder := digits
	for len(remainder) > 2 {
		end := min(9, len(remainder))
		block, err := strconv.Atoi(remainder[:end])
		if err != nil {
			return -1
		}
		remainder = strconv.Itoa(block%97) + remainder[end:]
	}
	n, err := strconv.Atoi(remainder)
	if err != nil {
		return -1
	}
	return n % 97
}
