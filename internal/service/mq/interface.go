package mq

import "context"

// Message 通用的业务消息
type Message struct {
	ID       string            // Redis Stream ID 或 Kafka partition/offset
	Topic    string            // 例如 "wallet_events_tx_sent"
	Key      string            // 分区键，钱包地址
	Payload  []byte            // JSON
	Metadata map[string]string // 元数据
}

// Producer 生产者接口
type Producer interface {
	// Publish key 用于分区排序；传空字符串则随机分区
	Publish(ctx context.Context, topic string, key string, payload []byte) error
}

// Consumer 消费者接口
type Consumer interface {
	// Subscribe 阻塞消费直到 ctx 结束；handler 返回 error 时消息不确认
	Subscribe(ctx context.Context, topic string, handler func(msg *Message) error) error
	Close() error
}

// NopProducer 未配置 MQ 时使用
type NopProducer struct{}

func (NopProducer) Publish(context.Context, string, string, []byte) error { return nil }
