package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"eth-wallet-core/pkg/address"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	once        sync.Once
	txHashRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
)

// Init 向 gin 的校验引擎注册钱包相关规则，可重复调用
func Init() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("eth_recipient", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return address.IsValidAddress(s) || address.IsValidIban(s)
		})
		_ = v.RegisterValidation("tx_hash", func(fl validator.FieldLevel) bool {
			return txHashRegex.MatchString(fl.Field().String())
		})
	})
}

// GetErrorMsg translates validation errors into user-friendly messages
func GetErrorMsg(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "请求参数错误"
	}

	var errMsgs []string
	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			errMsgs = append(errMsgs, fmt.Sprintf("%s 不能为空", field))
		case "numeric":
			errMsgs = append(errMsgs, fmt.Sprintf("%s 必须是数字", field))
		case "eth_recipient":
			errMsgs = append(errMsgs, fmt.Sprintf("%s 不是有效的地址或 IBAN", field))
		case "tx_hash":
			errMsgs = append(errMsgs, fmt.Sprintf("%s 不是有效的交易哈希", field))
		case "startswith":
			errMsgs = append(errMsgs, fmt.Sprintf("%s 必须以 %s 开头", field, e.Param()))
		default:
			errMsgs = append(errMsgs, fmt.Sprintf("%s 校验失败 (%s)", field, e.Tag()))
		}
	}
	return strings.Join(errMsgs, "; ")
}
