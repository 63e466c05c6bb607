package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SentTransaction 本钱包广播过的交易
type SentTransaction struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TxID         string          `gorm:"type:varchar(66);not null;uniqueIndex" json:"tx_id"`
	Asset        string          `gorm:"type:varchar(64);not null;index:idx_asset_from" json:"asset"`
	FromAddress  string          `gorm:"type:varchar(42);not null;index:idx_asset_from" json:"from_address"`
	ToAddress    string          `gorm:"type:varchar(42);not null" json:"to_address"`
	Amount       decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"amount"`
	MaxFee       decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"max_fee"`
	Nonce        uint64          `gorm:"not null" json:"nonce"`
	ReplacesTxID string          `gorm:"type:varchar(66)" json:"replaces_tx_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (SentTransaction) TableName() string {
	return "sent_transactions"
}
