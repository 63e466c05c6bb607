package event

import (
	"time"

	"github.com/google/uuid"
)

// TopicTxSent 钱包广播交易后发布
const TopicTxSent = "wallet_events_tx_sent"

// TxSentEvent 一笔已广播交易；Key 为钱包地址，保证同一钱包的事件有序
type TxSentEvent struct {
	EventID      string    `json:"event_id"`
	TxID         string    `json:"tx_id"`
	Asset        string    `json:"asset"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	Amount       string    `json:"amount"`  // 有符号，wei 或代币最小单位
	MaxFee       string    `json:"max_fee"` // wei
	Nonce        uint64    `json:"nonce"`
	ReplacesTxID string    `json:"replaces_tx_id,omitempty"`
	ExplorerURL  string    `json:"explorer_url,omitempty"`
	SentAt       time.Time `json:"sent_at"`
}

func NewTxSentEvent() TxSentEvent {
	return TxSentEvent{EventID: uuid.NewString(), SentAt: time.Now().UTC()}
}
