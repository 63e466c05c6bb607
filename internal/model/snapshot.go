package model

import "time"

// WalletSnapshot 账本状态快照，State 为 keystore 加密后的 JSON
type WalletSnapshot struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Address   string    `gorm:"type:varchar(42);not null;uniqueIndex:idx_snapshot_wallet" json:"address"`
	Asset     string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_snapshot_wallet" json:"asset"`
	State     []byte    `gorm:"type:bytea;not null" json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (WalletSnapshot) TableName() string {
	return "wallet_snapshots"
}
