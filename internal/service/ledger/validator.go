package ledger

import (
	"math/big"

	"eth-wallet-core/pkg/address"
	"eth-wallet-core/pkg/errno"
)

// ValidateTransfer 按顺序检查：地址、粉尘、gasLimit、余额、代币手续费
func ValidateTransfer(to string, value *big.Int, st *State) error {
	if !address.IsValidAddress(to) {
		return &errno.WalletError{Errno: errno.ErrInvalidAddress, Details: to}
	}
	if value == nil || value.Cmp(DustThreshold) <= 0 {
		return errno.InvalidValue(DustThreshold)
	}
	// gasLimit 为无符号数，只有 0 不可用
	if st.GasLimit == 0 {
		return errno.ErrInvalidGasLimit
	}

	txFee := st.TxFee()
	needed := new(big.Int).Add(value, txFee)
	if st.Available().Cmp(needed) < 0 {
		if orZero(st.Balance).Cmp(needed) >= 0 {
			return errno.InsufficientFunds(DetailsConfirmationPending, nil)
		}
		sendable := clampZero(new(big.Int).Sub(orZero(st.Balance), txFee))
		return errno.InsufficientFunds(DetailsWouldEmptyWallet, sendable)
	}

	if st.Asset.IsToken() {
		nativeFee := st.DefaultFee()
		if orZero(st.NativeBalance).Cmp(nativeFee) < 0 {
			return errno.InsufficientFeeFunds(nativeFee)
		}
	}
	return nil
}

// ValidateReplacement amountDelta 为替换交易额外多付的手续费
func ValidateReplacement(amountDelta *big.Int, st *State) error {
	if st.Available().Cmp(amountDelta) < 0 {
		return errno.InsufficientFunds("", nil)
	}
	return nil
}
