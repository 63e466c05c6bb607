package fee

import (
	"fmt"
	"math/big"
)

// Fields 模型的扁平 JSON 形式，金额为十进制字符串
type Fields struct {
	Type                 string `json:"type"`
	GasPrice             string `json:"gas_price,omitempty"`
	MaxPriorityFeePerGas string `json:"max_priority_fee_per_gas,omitempty"`
	MaxFeePerGas         string `json:"max_fee_per_gas,omitempty"`
}

func ToFields(m Model) Fields {
	switch v := m.(type) {
	case Legacy:
		return Fields{Type: KindLegacy.String(), GasPrice: orZero(v.GasPrice).String()}
	case FeeMarket:
		return Fields{
			Type:                 KindFeeMarket.String(),
			MaxPriorityFeePerGas: orZero(v.MaxPriorityFeePerGas).String(),
			MaxFeePerGas:         orZero(v.MaxFeePerGas).String(),
		}
	default:
		return Fields{}
	}
}

func FromFields(f Fields) (Model, error) {
	kind, err := ParseKind(f.Type)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindFeeMarket:
		tip, err := parseAmount("max_priority_fee_per_gas", f.MaxPriorityFeePerGas)
		if err != nil {
			return nil, err
		}
		maxFee, err := parseAmount("max_fee_per_gas", f.MaxFeePerGas)
		if err != nil {
			return nil, err
		}
		return FeeMarket{MaxPriorityFeePerGas: tip, MaxFeePerGas: maxFee}, nil
	default:
		price, err := parseAmount("gas_price", f.GasPrice)
		if err != nil {
			return nil, err
		}
		return Legacy{GasPrice: price}, nil
	}
}

// Zero 返回指定类型的零值模型
func Zero(kind Kind) Model {
	if kind == KindFeeMarket {
		return FeeMarket{MaxPriorityFeePerGas: new(big.Int), MaxFeePerGas: new(big.Int)}
	}
	return Legacy{GasPrice: new(big.Int)}
}

func parseAmount(name, s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s %q", name, s)
	}
	return v, nil
}
