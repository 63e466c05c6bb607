package types

import (
	"encoding/json"
	"math/big"

	"github.com/shopspring/decimal"
)

// RawTx 索引服务返回的原始交易记录，数值字段可能是数字或字符串
type RawTx struct {
	ID                   string              `json:"_id"`
	TxID                 string              `json:"txId"`
	From                 string              `json:"from"`
	To                   string              `json:"to"`
	Value                decimal.Decimal     `json:"value"`
	Timestamp            int64               `json:"timestamp"` // 秒
	Confirmations        int64               `json:"confirmations"`
	Gas                  decimal.NullDecimal `json:"gas"`
	GasUsed              decimal.NullDecimal `json:"gasUsed"`
	GasPrice             decimal.NullDecimal `json:"gasPrice"`
	MaxFeePerGas         decimal.NullDecimal `json:"maxFeePerGas"`
	MaxPriorityFeePerGas decimal.NullDecimal `json:"maxPriorityFeePerGas"`
	Nonce                uint64              `json:"nonce"`
	Input                string              `json:"input"`
	Status               *bool               `json:"status"`
	Token                json.RawMessage     `json:"token,omitempty"`
	BlockNumber          int64               `json:"blockNumber"`
	CallIndex            int64               `json:"callIndex"`
	LogIndex             int64               `json:"logIndex"`
}

// IsToken 代币转账记录带 token 字段
func (r *RawTx) IsToken() bool {
	return len(r.Token) > 0 && string(r.Token) != "null"
}

// NormalizedTx 钱包视角的交易，Amount 已按方向取符号
type NormalizedTx struct {
	ID                   string   `json:"id"`
	Amount               *big.Int `json:"amount"`
	Value                *big.Int `json:"value"`
	Timestamp            int64    `json:"timestamp"` // 毫秒
	Confirmed            bool     `json:"confirmed"`
	MinConf              int64    `json:"min_conf"`
	Confirmations        int64    `json:"confirmations"`
	Fee                  *big.Int `json:"fee"` // 未确认时为 -1
	MaxFee               *big.Int `json:"max_fee"`
	GasPrice             *big.Int `json:"gas_price"`
	MaxFeePerGas         *big.Int `json:"max_fee_per_gas,omitempty"`
	MaxPriorityFeePerGas *big.Int `json:"max_priority_fee_per_gas,omitempty"`
	GasLimit             uint64   `json:"gas_limit"`
	Status               bool     `json:"status"`
	From                 string   `json:"from"`
	To                   string   `json:"to"`
	Token                bool     `json:"token"`
	IsIncoming           bool     `json:"is_incoming"`
	Nonce                uint64   `json:"nonce"`
	Input                string   `json:"input"`
	IsRBF                bool     `json:"is_rbf"`
}
