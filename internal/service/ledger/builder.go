package ledger

import (
	"crypto/ecdsa"
	"math/big"

	"eth-wallet-core/pkg/address"
	"eth-wallet-core/pkg/errno"
	"eth-wallet-core/pkg/fee"
	"eth-wallet-core/pkg/wallet/types"

	"github.com/ethereum/go-ethereum/common"
)

// ImportOptions 外部私钥地址的余额和 nonce，由 GetImportTxOptions 读取
type ImportOptions struct {
	PrivateKey    *ecdsa.PrivateKey `json:"-"`
	Address       string            `json:"address"`
	Amount        *big.Int          `json:"amount"`
	TxCount       uint64            `json:"tx_count"`
	NativeBalance *big.Int          `json:"native_balance,omitempty"` // 仅代币钱包
}

// BuildTransfer 校验后生成待签名转账，nonce 取 txCount
func BuildTransfer(to string, value *big.Int, st *State) (*types.UnsignedTransaction, error) {
	if err := ValidateTransfer(to, value, st); err != nil {
		return nil, err
	}
	u := baseTx(st, st.Address, st.TxCount)
	if err := setPayload(u, to, value, st); err != nil {
		return nil, err
	}
	return u, nil
}

// BuildReplacement 同 nonce/to/value/data，提高手续费；返回额外手续费 amountDelta
func BuildReplacement(orig *types.NormalizedTx, st *State) (*types.UnsignedTransaction, *big.Int, error) {
	gasLimit := orig.GasLimit
	if gasLimit == 0 {
		gasLimit = st.GasLimit
	}
	origFee := feeOf(orig, st.Fee.Kind())
	newFee := fee.ScaleForReplacement(origFee, st.ReplaceByFeeFactor)

	delta := new(big.Int).Sub(fee.Cap(newFee), fee.Cap(origFee))
	delta.Mul(delta, new(big.Int).SetUint64(gasLimit))
	if err := ValidateReplacement(delta, st); err != nil {
		return nil, nil, err
	}

	u := baseTx(st, st.Address, orig.Nonce)
	u.GasLimit = gasLimit
	u.Fee = newFee
	u.Replaces = orig

	data := common.FromHex(orig.Input)
	switch {
	case !st.Asset.IsToken():
		u.To = orig.To
		u.Value = clone(orZero(orig.Value))
		u.Data = data
	case IsTransferCall(data):
		u.To = st.Asset.ContractAddress
		u.Value = new(big.Int)
		u.Data = data
	default:
		// 代币历史记录里 to/value 是收款人和代币数量，需要重新编码调用数据
		if err := setPayload(u, orig.To, orZero(orig.Value), st); err != nil {
			return nil, nil, err
		}
	}
	return u, delta, nil
}

// BuildImport 把外部私钥的全部余额转到 to，手续费从金额中扣除 (代币除外)
func BuildImport(to string, opts *ImportOptions, st *State) (*types.UnsignedTransaction, error) {
	if !address.IsValidAddress(to) {
		return nil, &errno.WalletError{Errno: errno.ErrInvalidAddress, Details: to}
	}
	if st.GasLimit == 0 {
		return nil, errno.ErrInvalidGasLimit
	}

	amount := new(big.Int).Sub(orZero(opts.Amount), st.TxFee())
	if amount.Sign() < 0 {
		return nil, errno.InsufficientFunds("", nil)
	}
	if st.Asset.IsToken() {
		nativeFee := st.DefaultFee()
		if orZero(opts.NativeBalance).Cmp(nativeFee) < 0 {
			return nil, errno.InsufficientFeeFunds(nativeFee)
		}
	}

	u := baseTx(st, opts.Address, opts.TxCount)
	u.DerivationPath = ""
	if err := setPayload(u, to, amount, st); err != nil {
		return nil, err
	}
	return u, nil
}

func baseTx(st *State, from string, nonce uint64) *types.UnsignedTransaction {
	return &types.UnsignedTransaction{
		Chain:          st.Asset.Symbol,
		ChainID:        st.ChainID,
		From:           from,
		Nonce:          nonce,
		GasLimit:       st.GasLimit,
		Fee:            st.Fee,
		DerivationPath: st.DerivationPath,
	}
}

// setPayload 原生币直接转账；代币改为调用合约 transfer
func setPayload(u *types.UnsignedTransaction, to string, value *big.Int, st *State) error {
	if !st.Asset.IsToken() {
		u.To = to
		u.Value = clone(value)
		return nil
	}
	data, err := EncodeTransfer(to, value)
	if err != nil {
		return err
	}
	u.To = st.Asset.ContractAddress
	u.Value = new(big.Int)
	u.Data = data
	return nil
}

// feeOf 原交易的计价字段；原交易没有 EIP-1559 字段时按 legacy 处理
func feeOf(tx *types.NormalizedTx, kind fee.Kind) fee.Model {
	if kind == fee.KindFeeMarket && tx.MaxFeePerGas != nil {
		return fee.FeeMarket{
			MaxPriorityFeePerGas: orZero(tx.MaxPriorityFeePerGas),
			MaxFeePerGas:         tx.MaxFeePerGas,
		}
	}
	return fee.Legacy{GasPrice: orZero(tx.GasPrice)}
}
