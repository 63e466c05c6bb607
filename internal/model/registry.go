package model

// AllModels 需要迁移的全部模型，cmd/migrate -auto 使用
func AllModels() []interface{} {
	return []interface{}{
		&SentTransaction{},
		&WalletSnapshot{},
		&OutboxMessage{},
	}
}
