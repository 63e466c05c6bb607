// Package ledger 单地址钱包的记账与交易构建：余额/nonce 状态、手续费、RBF、历史归一化。
package ledger

import (
	"math/big"

	"eth-wallet-core/pkg/fee"
	"eth-wallet-core/pkg/wallet/types"
)

const (
	DefaultGasLimit           uint64  = 21000
	DefaultTokenGasLimit      uint64  = 200000
	DefaultMinConfirmations   int64   = 5
	DefaultReplaceByFeeFactor float64 = 1.2
	DefaultDerivationPath             = "m/44'/60'/0'"
	DefaultChainID            int64   = 1
	TestnetChainID            int64   = 1337

	// maxReplaceByFeeGas = 报价 × maxFeeMultiplier
	maxFeeMultiplier = 100
)

// DustThreshold 金额必须严格大于该值
var DustThreshold = big.NewInt(1)

const (
	DetailsConfirmationPending = "confirmation pending"
	DetailsWouldEmptyWallet    = "would empty wallet"
)

// State 账本状态快照，校验/构建/归一化都是它的纯函数
type State struct {
	Address            string
	Asset              types.Asset
	Balance            *big.Int
	ConfirmedBalance   *big.Int
	NativeBalance      *big.Int // 仅代币钱包：用于支付手续费的原生币余额
	TxCount            uint64
	Cursor             string
	GasLimit           uint64
	Fee                fee.Model
	MaxReplaceByFeeGas *big.Int
	MinConfirmations   int64
	ReplaceByFeeFactor float64
	ChainID            int64
	NetworkID          int64
	DerivationPath     string
	Locked             bool
}

// DefaultFee gasLimit × 当前报价
func (s *State) DefaultFee() *big.Int {
	return fee.DefaultFee(s.Fee, s.GasLimit)
}

// TxFee 代币转账的手续费不从代币余额扣
func (s *State) TxFee() *big.Int {
	if s.Asset.IsToken() {
		return new(big.Int)
	}
	return s.DefaultFee()
}

// Available min(confirmed, balance)
func (s *State) Available() *big.Int {
	return minBig(s.ConfirmedBalance, s.Balance)
}

func minBig(a, b *big.Int) *big.Int {
	a, b = orZero(a), orZero(b)
	if a.Cmp(b) < 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func clone(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func clampZero(v *big.Int) *big.Int {
	if v.Sign() < 0 {
		return new(big.Int)
	}
	return v
}
