package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaConsumer 消费组 + 手动提交 offset
type KafkaConsumer struct {
	brokers []string
	groupID string
	reader  *kafka.Reader
	log     *zap.Logger
}

func NewKafkaConsumer(brokers []string, groupID string, log *zap.Logger) *KafkaConsumer {
	return &KafkaConsumer{brokers: brokers, groupID: groupID, log: log}
}

// Subscribe 阻塞消费；处理失败的消息不提交 offset，重启后会重新投递
func (c *KafkaConsumer) Subscribe(ctx context.Context, topic string, handler func(msg *Message) error) error {
	c.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:     c.brokers,
		GroupID:     c.groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	c.log.Info("kafka consumer started", zap.String("topic", topic), zap.String("group", c.groupID))

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn("kafka fetch failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		msg := &Message{
			ID:      fmt.Sprintf("%d/%d", m.Partition, m.Offset),
			Topic:   topic,
			Key:     string(m.Key),
			Payload: m.Value,
		}
		if err := handler(msg); err != nil {
			c.log.Warn("handle message failed", zap.String("id", msg.ID), zap.Error(err))
			continue
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.log.Warn("kafka commit failed", zap.String("id", msg.ID), zap.Error(err))
		}
	}
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
