package types

type AssetKind string

const (
	AssetNative AssetKind = "native"
	AssetToken  AssetKind = "token"
)

// Asset 钱包管理的资产：原生币或某个 ERC-20 合约
type Asset struct {
	Kind            AssetKind `json:"type"`
	Symbol          string    `json:"symbol"`
	ContractAddress string    `json:"address,omitempty"`
}

func NativeAsset(symbol string) Asset {
	return Asset{Kind: AssetNative, Symbol: symbol}
}

func TokenAsset(symbol, contract string) Asset {
	return Asset{Kind: AssetToken, Symbol: symbol, ContractAddress: contract}
}

func (a Asset) IsToken() bool {
	return a.Kind == AssetToken
}

// Key 用于缓存键、指标标签
func (a Asset) Key() string {
	if a.IsToken() {
		return a.Symbol + ":" + a.ContractAddress
	}
	return a.Symbol
}
