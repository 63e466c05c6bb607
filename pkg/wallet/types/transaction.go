package types

import (
	"encoding/json"
	"math/big"

	"eth-wallet-core/pkg/fee"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// UnsignedTransaction 待签名交易，包含签名所需字段和供用户核对的元数据
type UnsignedTransaction struct {
	Chain    string        `json:"chain"`
	ChainID  int64         `json:"chain_id"` // EIP-155 重放保护
	From     string        `json:"from"`
	To       string        `json:"to"`
	Value    *big.Int      `json:"value"`
	Nonce    uint64        `json:"nonce"`
	GasLimit uint64        `json:"gas_limit"`
	Fee      fee.Model     `json:"-"`
	Data     hexutil.Bytes `json:"data,omitempty"` // 仅代币转账非空

	// DerivationPath 签名方据此选择密钥，如 "m/44'/60'/0'"
	DerivationPath string `json:"derivation_path,omitempty"`

	// Replaces 被替换的原交易 (RBF)
	Replaces *NormalizedTx `json:"replaces,omitempty"`
}

type unsignedAlias UnsignedTransaction

type unsignedJSON struct {
	*unsignedAlias
	Fee fee.Fields `json:"fee"`
}

func (u UnsignedTransaction) MarshalJSON() ([]byte, error) {
	alias := unsignedAlias(u)
	out := unsignedJSON{unsignedAlias: &alias}
	if u.Fee != nil {
		out.Fee = fee.ToFields(u.Fee)
	}
	return json.Marshal(out)
}

func (u *UnsignedTransaction) UnmarshalJSON(data []byte) error {
	in := unsignedJSON{unsignedAlias: (*unsignedAlias)(u)}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	m, err := fee.FromFields(in.Fee)
	if err != nil {
		return err
	}
	u.Fee = m
	return nil
}

// EthTx 按计价模型生成 LegacyTx 或 DynamicFeeTx
func (u *UnsignedTransaction) EthTx() *ethtypes.Transaction {
	to := common.HexToAddress(u.To)
	value := u.Value
	if value == nil {
		value = new(big.Int)
	}

	switch m := u.Fee.(type) {
	case fee.FeeMarket:
		return ethtypes.NewTx(&ethtypes.DynamicFeeTx{
			ChainID:   big.NewInt(u.ChainID),
			Nonce:     u.Nonce,
			GasTipCap: m.MaxPriorityFeePerGas,
			GasFeeCap: m.MaxFeePerGas,
			Gas:       u.GasLimit,
			To:        &to,
			Value:     value,
			Data:      u.Data,
		})
	default:
		return ethtypes.NewTx(&ethtypes.LegacyTx{
			Nonce:    u.Nonce,
			GasPrice: fee.Cap(u.Fee),
			Gas:      u.GasLimit,
			To:       &to,
			Value:    value,
			Data:     u.Data,
		})
	}
}

// SignedTransaction 签名结果，RawTx 可直接广播
type SignedTransaction struct {
	TxHash   string        `json:"tx_hash"`
	RawTx    string        `json:"raw_tx"` // RLP / typed envelope 十六进制
	Replaces *NormalizedTx `json:"replaces,omitempty"`
}
