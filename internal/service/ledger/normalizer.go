package ledger

import (
	"math/big"

	"eth-wallet-core/pkg/address"
	"eth-wallet-core/pkg/fee"
	"eth-wallet-core/pkg/wallet/types"

	"github.com/shopspring/decimal"
)

// UnknownFee 未确认交易的手续费
var UnknownFee = big.NewInt(-1)

// Normalize 把索引记录转换为钱包视角
func Normalize(raw *types.RawTx, st *State) *types.NormalizedTx {
	value := raw.Value.BigInt()
	amount := new(big.Int).Set(value)
	switch {
	case address.Equal(raw.From, raw.To):
		amount.SetInt64(0)
	case address.Equal(raw.From, st.Address):
		amount.Neg(amount)
	}

	gas := nullBig(raw.Gas)
	gasPrice := nullBig(raw.GasPrice)
	feeField := gasPrice
	if st.Fee != nil && st.Fee.Kind() == fee.KindFeeMarket && raw.MaxFeePerGas.Valid {
		feeField = nullBig(raw.MaxFeePerGas)
	}

	id := raw.ID
	if raw.IsToken() {
		id = raw.TxID
	}
	status := true
	if raw.Status != nil {
		status = *raw.Status
	}

	tx := &types.NormalizedTx{
		ID:            id,
		Amount:        amount,
		Value:         value,
		Timestamp:     raw.Timestamp * 1000,
		Confirmed:     raw.Confirmations >= st.MinConfirmations,
		MinConf:       st.MinConfirmations,
		Confirmations: raw.Confirmations,
		MaxFee:        new(big.Int).Mul(gas, feeField),
		GasPrice:      gasPrice,
		GasLimit:      gas.Uint64(),
		Status:        status,
		From:          raw.From,
		To:            raw.To,
		Token:         raw.IsToken(),
		IsIncoming:    address.Equal(raw.To, st.Address) && !address.Equal(raw.From, raw.To),
		Nonce:         raw.Nonce,
		Input:         raw.Input,
	}
	if raw.MaxFeePerGas.Valid {
		tx.MaxFeePerGas = nullBig(raw.MaxFeePerGas)
		tx.MaxPriorityFeePerGas = nullBig(raw.MaxPriorityFeePerGas)
	}

	if tx.Confirmed {
		if tx.Token {
			tx.Fee = new(big.Int)
		} else {
			tx.Fee = new(big.Int).Mul(nullBig(raw.GasUsed), gasPrice)
		}
		return tx
	}

	tx.Fee = new(big.Int).Set(UnknownFee)
	// 仍在内存池且报价明显偏低时可替换
	if raw.Confirmations == 0 && st.MaxReplaceByFeeGas != nil {
		scaled := decimal.NewFromBigInt(feeField, 0).Mul(decimal.NewFromFloat(st.ReplaceByFeeFactor))
		tx.IsRBF = scaled.LessThan(decimal.NewFromBigInt(st.MaxReplaceByFeeGas, 0))
	}
	return tx
}

func nullBig(d decimal.NullDecimal) *big.Int {
	if !d.Valid {
		return new(big.Int)
	}
	return d.Decimal.BigInt()
}
