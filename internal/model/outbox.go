package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

const (
	OutboxPending = "PENDING"
	OutboxSent    = "SENT"
)

// OutboxMessage 本地消息表 (Transactional Outbox)，与业务记录同事务写入
type OutboxMessage struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Topic     string    `gorm:"type:varchar(255);not null" json:"topic"`
	Key       string    `gorm:"type:varchar(255);not null;default:''" json:"key"`
	Payload   []byte    `gorm:"type:bytea;not null" json:"payload"`
	Status    string    `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	Attempts  int       `gorm:"not null;default:0" json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (OutboxMessage) TableName() string {
	return "outbox_messages"
}

// CreateOutboxMessage 在调用方的事务中写入一条待投递消息
func CreateOutboxMessage(tx *gorm.DB, topic, key string, payload interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return tx.Create(&OutboxMessage{
		Topic:   topic,
		Key:     key,
		Payload: payloadBytes,
		Status:  OutboxPending,
	}).Error
}
