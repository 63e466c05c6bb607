package response

import (
	"errors"
	"net/http"

	"eth-wallet-core/pkg/errno"

	"github.com/gin-gonic/gin"
)

// Response defines the standard JSON structure
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"msg"`
	Data    interface{} `json:"data"`
}

// Success returns a success response with data
func Success(c *gin.Context, data interface{}) {
	if data == nil {
		data = gin.H{} // Return empty object instead of null
	}
	c.JSON(http.StatusOK, Response{
		Code:    errno.OK.Code,
		Message: errno.OK.Message,
		Data:    data,
	})
}

// Error returns an error response; wallet errors carry their diagnostics in data
func Error(c *gin.Context, err error) {
	code, msg := errno.Decode(err)
	data := gin.H{}

	var we *errno.WalletError
	if errors.As(err, &we) {
		if we.Details != "" {
			data["details"] = we.Details
		}
		if we.DustThreshold != nil {
			data["dust_threshold"] = we.DustThreshold.String()
		}
		if we.SendableBalance != nil {
			data["sendable_balance"] = we.SendableBalance.String()
		}
		if we.Required != nil {
			data["required"] = we.Required.String()
		}
	}

	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: msg,
		Data:    data,
	})
}
