package indexer

import (
	"context"
	"fmt"
	"math/big"

	"eth-wallet-core/pkg/errno"
	"eth-wallet-core/pkg/fee"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// NodeBackend ethclient.Client 中报价用到的方法
type NodeBackend interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*ethtypes.Header, error)
}

// NodeFeeSource 直接向 JSON-RPC 节点询价
type NodeFeeSource struct {
	backend NodeBackend
}

func NewNodeFeeSource(backend NodeBackend) *NodeFeeSource {
	return &NodeFeeSource{backend: backend}
}

// DialNodeFeeSource 连接节点
func DialNodeFeeSource(ctx context.Context, rpcURL string) (*NodeFeeSource, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial node %s: %w", rpcURL, err)
	}
	return NewNodeFeeSource(client), nil
}

// GetFeeQuote EIP-1559 下 maxFee = 2 × baseFee + tip
func (s *NodeFeeSource) GetFeeQuote(ctx context.Context, kind fee.Kind) (fee.Model, error) {
	if kind == fee.KindLegacy {
		price, err := s.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, errno.Transport(err)
		}
		return fee.Legacy{GasPrice: price}, nil
	}

	tip, err := s.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, errno.Transport(err)
	}
	head, err := s.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, errno.Transport(err)
	}
	if head.BaseFee == nil {
		return nil, errno.Transport(fmt.Errorf("node does not report a base fee"))
	}
	maxFee := new(big.Int).Mul(head.BaseFee, big.NewInt(2))
	maxFee.Add(maxFee, tip)
	return fee.FeeMarket{MaxPriorityFeePerGas: tip, MaxFeePerGas: maxFee}, nil
}
