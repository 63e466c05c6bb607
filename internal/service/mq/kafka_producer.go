package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaProducer 每条消息自带 topic，Writer 不绑定 topic
type KafkaProducer struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewKafkaProducer(brokers []string, log *zap.Logger) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{}, // 同一钱包地址落在同一分区
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		BatchSize:              100,
		BatchTimeout:           10 * time.Millisecond,
	}
	return &KafkaProducer{writer: writer, log: log}
}

func (p *KafkaProducer) Publish(ctx context.Context, topic string, key string, payload []byte) error {
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("kafka write failed", zap.String("topic", topic), zap.Error(err))
		return fmt.Errorf("kafka write error: %w", err)
	}
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
