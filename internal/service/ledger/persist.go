package ledger

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"eth-wallet-core/pkg/fee"
	"eth-wallet-core/pkg/wallet/types"

	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

type persistedState struct {
	Asset              types.Asset `json:"asset"`
	Balance            string      `json:"balance"`
	ConfirmedBalance   string      `json:"confirmed_balance"`
	NativeBalance      string      `json:"native_balance,omitempty"`
	TxCount            uint64      `json:"tx_count"`
	PrivateKey         string      `json:"private_key,omitempty"`
	PublicKey          string      `json:"public_key"`
	Address            string      `json:"address"`
	GasLimit           uint64      `json:"gas_limit"`
	MinConfirmations   int64       `json:"min_confirmations"`
	ChainID            int64       `json:"chain_id"`
	NetworkID          int64       `json:"network_id"`
	Fee                fee.Fields  `json:"fee"`
	MaxReplaceByFeeGas string      `json:"max_replace_by_fee_gas"`
	ReplaceByFeeFactor float64     `json:"replace_by_fee_factor"`
	DerivationPath     string      `json:"derivation_path"`
}

// Serialize 导出账本状态；锁定的钱包不含私钥，恢复后为只读
func (l *Ledger) Serialize() ([]byte, error) {
	l.mu.Lock()
	p := persistedState{
		Asset:              l.asset,
		Balance:            l.balance.String(),
		ConfirmedBalance:   l.confirmedBalance.String(),
		TxCount:            l.txCount,
		PublicKey:          hex.EncodeToString(crypto.FromECDSAPub(l.pubKey)),
		Address:            l.address,
		GasLimit:           l.gasLimit,
		MinConfirmations:   l.minConf,
		ChainID:            l.chainID,
		NetworkID:          l.networkID,
		Fee:                fee.ToFields(l.fee),
		MaxReplaceByFeeGas: l.maxReplaceByFeeGas.String(),
		ReplaceByFeeFactor: l.rbfFactor,
		DerivationPath:     l.path,
	}
	if l.asset.IsToken() {
		p.NativeBalance = l.nativeBalance.String()
	}
	if l.key != nil {
		p.PrivateKey = hex.EncodeToString(crypto.FromECDSA(l.key))
	}
	l.mu.Unlock()

	return json.Marshal(p)
}

// Deserialize 从 Serialize 的输出恢复账本；deps 只取依赖项 (API/Cache/Metrics/Logger/ExplorerTxURL)
func Deserialize(data []byte, deps Options) (*Ledger, error) {
	if deps.API == nil {
		return nil, fmt.Errorf("ledger: indexer API is required")
	}
	var p persistedState
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode ledger state: %w", err)
	}
	model, err := fee.FromFields(p.Fee)
	if err != nil {
		return nil, fmt.Errorf("decode ledger state: %w", err)
	}

	l := newLedger(Options{
		Asset:              p.Asset,
		DerivationPath:     p.DerivationPath,
		ChainID:            p.ChainID,
		NetworkID:          p.NetworkID,
		FeeKind:            model.Kind(),
		GasLimit:           p.GasLimit,
		MinConfirmations:   p.MinConfirmations,
		ReplaceByFeeFactor: p.ReplaceByFeeFactor,
		ExplorerTxURL:      deps.ExplorerTxURL,
		API:                deps.API,
		Cache:              deps.Cache,
		Metrics:            deps.Metrics,
		Logger:             deps.Logger,
	})

	if p.PrivateKey != "" {
		key, err := ParsePrivateKey(p.PrivateKey)
		if err != nil {
			return nil, err
		}
		l.key = key
		l.pubKey = &key.PublicKey
	} else {
		pub, _, err := parsePublicKey(p.PublicKey)
		if err != nil {
			return nil, err
		}
		l.pubKey = pub
	}
	l.address = addressOf(l.pubKey)
	if p.Address != "" && p.Address != l.address {
		return nil, fmt.Errorf("decode ledger state: address %s does not match key", p.Address)
	}

	fields := []struct {
		dst  **big.Int
		name string
		val  string
	}{
		{&l.balance, "balance", p.Balance},
		{&l.confirmedBalance, "confirmed_balance", p.ConfirmedBalance},
		{&l.nativeBalance, "native_balance", p.NativeBalance},
		{&l.maxReplaceByFeeGas, "max_replace_by_fee_gas", p.MaxReplaceByFeeGas},
	}
	for _, f := range fields {
		if f.val == "" {
			continue
		}
		v, ok := new(big.Int).SetString(f.val, 10)
		if !ok {
			return nil, fmt.Errorf("decode ledger state: invalid %s %q", f.name, f.val)
		}
		*f.dst = v
	}
	l.txCount = p.TxCount
	l.fee = model
	l.log = l.log.With(zap.String("address", l.address), zap.String("asset", l.asset.Key()))
	return l, nil
}
