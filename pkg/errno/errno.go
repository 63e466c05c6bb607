package errno

import (
	"errors"
	"fmt"
	"math/big"
)

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// Is 按错误码比较，便于 errors.Is(err, errno.ErrInsufficientFunds)
func (e Errno) Is(target error) bool {
	var t Errno
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// WalletError 钱包业务错误，携带诊断信息
type WalletError struct {
	Errno
	Details         string
	DustThreshold   *big.Int
	SendableBalance *big.Int
	Required        *big.Int
	Err             error
}

func (e *WalletError) Error() string {
	msg := e.Message
	if e.Details != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Details)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *WalletError) Unwrap() error {
	return e.Err
}

func (e *WalletError) Is(target error) bool {
	return e.Errno.Is(target)
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	var we *WalletError
	if errors.As(err, &we) {
		return we.Code, we.Error()
	}
	var e Errno
	if errors.As(err, &e) {
		return e.Code, e.Message
	}
	return InternalServerError.Code, err.Error()
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Message: "Error occurred while binding the request body to the struct"}
	ErrDatabase         = Errno{Code: 10004, Message: "Database error"}
)

// Wallet Errors (30000+)
var (
	ErrInvalidAddress       = Errno{Code: 30001, Message: "Invalid address"}
	ErrInvalidValue         = Errno{Code: 30002, Message: "Invalid value"}
	ErrInvalidGasLimit      = Errno{Code: 30003, Message: "Invalid gasLimit"}
	ErrInsufficientFunds    = Errno{Code: 30004, Message: "Insufficient funds"}
	ErrInsufficientFeeFunds = Errno{Code: 30005, Message: "Insufficient native funds for token transaction"}
	ErrInvalidPrivateKey    = Errno{Code: 30006, Message: "Invalid private key"}
	ErrWalletLocked         = Errno{Code: 30007, Message: "Wallet is locked"}
	ErrInvalidTxID          = Errno{Code: 30008, Message: "Invalid txId"}
	ErrInvalidPublicKey     = Errno{Code: 30009, Message: "Invalid public key"}
	ErrInvalidSeed          = Errno{Code: 30010, Message: "Invalid seed"}
	ErrSendInProgress       = Errno{Code: 30011, Message: "Another transaction is being sent"}
	ErrInvalidIban          = Errno{Code: 30012, Message: "Invalid IBAN"}
)

// Transport Errors (30100+)
var (
	ErrTransport      = Errno{Code: 30101, Message: "Node request failed"}
	ErrGasLimitTooLow = Errno{Code: 30102, Message: "Gas limit is too low"}
	ErrTxNotFound     = Errno{Code: 30103, Message: "Transaction not found"}
)

// InvalidValue 金额不高于粉尘阈值
func InvalidValue(dust *big.Int) error {
	return &WalletError{Errno: ErrInvalidValue, DustThreshold: new(big.Int).Set(dust)}
}

// InsufficientFunds sendable 为 nil 表示不返回可发送余额
func InsufficientFunds(details string, sendable *big.Int) error {
	we := &WalletError{Errno: ErrInsufficientFunds, Details: details}
	if sendable != nil {
		we.SendableBalance = new(big.Int).Set(sendable)
	}
	return we
}

func InsufficientFeeFunds(required *big.Int) error {
	return &WalletError{Errno: ErrInsufficientFeeFunds, Required: new(big.Int).Set(required)}
}

// Transport 包装底层网络/节点错误
func Transport(err error) error {
	return &WalletError{Errno: ErrTransport, Err: err}
}
