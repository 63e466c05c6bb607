package request

import "eth-wallet-core/pkg/wallet/types"

// TransferRequest 金额为最小单位 (wei 或代币最小单位) 的十进制整数串
type TransferRequest struct {
	To     string `json:"to" binding:"required,eth_recipient"`
	Amount string `json:"amount" binding:"required,numeric"`
}

type ReplaceRequest struct {
	TxID string `json:"tx_id" binding:"required,tx_hash"`
}

// BroadcastRequest 外部签名的交易
type BroadcastRequest struct {
	TxHash   string              `json:"tx_hash"`
	RawTx    string              `json:"raw_tx" binding:"required,startswith=0x"`
	Replaces *types.NormalizedTx `json:"replaces"`
}
