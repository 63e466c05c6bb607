// Package indexer 外部索引服务客户端：余额、nonce、手续费报价、历史分页、广播。
package indexer

import (
	"context"
	"math/big"

	"eth-wallet-core/pkg/fee"
	"eth-wallet-core/pkg/wallet/types"
)

// Balance 两档余额：balance 含未确认，confirmed 仅统计达到确认数的部分
type Balance struct {
	Balance          *big.Int
	ConfirmedBalance *big.Int
}

// TxPage Cursor 为空表示历史已到末尾
type TxPage struct {
	Txs     []types.RawTx
	HasMore bool
	Cursor  string
}

// API 钱包引擎依赖的全部外部读写
type API interface {
	GetBalance(ctx context.Context, address string, minConf int64) (*Balance, error)
	GetTokenBalance(ctx context.Context, token, address string, minConf int64) (*Balance, error)
	GetTxCount(ctx context.Context, address string) (uint64, error)
	GetFeeQuote(ctx context.Context, kind fee.Kind) (fee.Model, error)
	GetTxPage(ctx context.Context, address, cursor string) (*TxPage, error)
	GetTokenTxPage(ctx context.Context, token, address, cursor string) (*TxPage, error)
	// SubmitRawTransaction 返回索引服务确认的 txId
	SubmitRawTransaction(ctx context.Context, rawTx string) (string, error)
	GetTransaction(ctx context.Context, txID, address string) (*types.RawTx, error)
}

// FeeSource 可替换的报价来源，例如直连节点
type FeeSource interface {
	GetFeeQuote(ctx context.Context, kind fee.Kind) (fee.Model, error)
}
