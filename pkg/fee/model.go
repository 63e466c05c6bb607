// Package fee 描述两种 gas 计价模型以及 RBF 加价规则。
package fee

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

type Kind int

const (
	KindLegacy Kind = iota
	KindFeeMarket
)

func (k Kind) String() string {
	switch k {
	case KindLegacy:
		return "legacy"
	case KindFeeMarket:
		return "eip1559"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind 解析配置中的模型名称
func ParseKind(s string) (Kind, error) {
	switch s {
	case "legacy", "":
		return KindLegacy, nil
	case "eip1559", "fee_market":
		return KindFeeMarket, nil
	default:
		return 0, fmt.Errorf("unknown fee model %q", s)
	}
}

// Model 只有 Legacy 和 FeeMarket 两种实现，使用方按类型穷举
type Model interface {
	Kind() Kind
	isModel()
}

// Legacy 单一 gas price
type Legacy struct {
	GasPrice *big.Int
}

func (Legacy) Kind() Kind { return KindLegacy }
func (Legacy) isModel()   {}

// FeeMarket EIP-1559 小费 + 上限
type FeeMarket struct {
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
}

func (FeeMarket) Kind() Kind { return KindFeeMarket }
func (FeeMarket) isModel()   {}

// Cap 每单位 gas 最多支付的价格
func Cap(m Model) *big.Int {
	switch v := m.(type) {
	case nil:
		return new(big.Int)
	case Legacy:
		return orZero(v.GasPrice)
	case FeeMarket:
		return orZero(v.MaxFeePerGas)
	default:
		panic(fmt.Sprintf("fee: unknown model %T", m))
	}
}

// DefaultFee = gasLimit × Cap
func DefaultFee(m Model, gasLimit uint64) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(gasLimit), Cap(m))
}

// ScaleForReplacement 所有价格字段乘以 factor 后截断；结果不大于原值时取原值 + 1
func ScaleForReplacement(m Model, factor float64) Model {
	f := decimal.NewFromFloat(factor)
	switch v := m.(type) {
	case Legacy:
		return Legacy{GasPrice: scale(v.GasPrice, f)}
	case FeeMarket:
		return FeeMarket{
			MaxPriorityFeePerGas: scale(v.MaxPriorityFeePerGas, f),
			MaxFeePerGas:         scale(v.MaxFeePerGas, f),
		}
	default:
		panic(fmt.Sprintf("fee: unknown model %T", m))
	}
}

func scale(v *big.Int, factor decimal.Decimal) *big.Int {
	orig := orZero(v)
	scaled := decimal.NewFromBigInt(orig, 0).Mul(factor).Truncate(0).BigInt()
	if scaled.Cmp(orig) <= 0 {
		return new(big.Int).Add(orig, big.NewInt(1))
	}
	return scaled
}

// Equal 比较两个模型的所有字段
func Equal(a, b Model) bool {
	switch x := a.(type) {
	case Legacy:
		y, ok := b.(Legacy)
		return ok && orZero(x.GasPrice).Cmp(orZero(y.GasPrice)) == 0
	case FeeMarket:
		y, ok := b.(FeeMarket)
		return ok &&
			orZero(x.MaxFeePerGas).Cmp(orZero(y.MaxFeePerGas)) == 0 &&
			orZero(x.MaxPriorityFeePerGas).Cmp(orZero(y.MaxPriorityFeePerGas)) == 0
	default:
		return false
	}
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
