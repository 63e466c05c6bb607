package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisProducer Redis Streams 实现
type RedisProducer struct {
	client *redis.Client
	maxLen int64
	log    *zap.Logger
}

// NewRedisProducer maxLen 为 stream 近似上限，0 表示不裁剪
func NewRedisProducer(client *redis.Client, maxLen int64, log *zap.Logger) *RedisProducer {
	return &RedisProducer{client: client, maxLen: maxLen, log: log}
}

// Publish XADD topic * key <key> payload <payload>
func (p *RedisProducer) Publish(ctx context.Context, topic string, key string, payload []byte) error {
	args := &redis.XAddArgs{
		Stream: topic,
		Values: map[string]interface{}{
			"key":     key,
			"payload": payload,
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		p.log.Error("redis xadd failed", zap.String("topic", topic), zap.Error(err))
		return fmt.Errorf("redis xadd error: %w", err)
	}
	return nil
}

// RedisConsumer 消费组方式读取
type RedisConsumer struct {
	client *redis.Client
	group  string
	name   string
	log    *zap.Logger
}

func NewRedisConsumer(client *redis.Client, group, name string, log *zap.Logger) *RedisConsumer {
	return &RedisConsumer{client: client, group: group, name: name, log: log}
}

func (c *RedisConsumer) Subscribe(ctx context.Context, topic string, handler func(msg *Message) error) error {
	// XGROUP CREATE <stream> <group> $ MKSTREAM
	err := c.client.XGroupCreateMkStream(ctx, topic, c.group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("创建消费者组失败: %w", err)
	}
	c.log.Info("redis consumer started", zap.String("topic", topic), zap.String("group", c.group))

	for {
		if ctx.Err() != nil {
			return nil
		}
		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: c.name,
			Streams:  []string{topic, ">"},
			Count:    10,
			Block:    2 * time.Second,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn("redis xreadgroup failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, x := range stream.Messages {
				msg := &Message{ID: x.ID, Topic: topic}
				if k, ok := x.Values["key"].(string); ok {
					msg.Key = k
				}
				val, ok := x.Values["payload"].(string)
				if !ok {
					c.log.Warn("drop message without payload", zap.String("id", x.ID))
					c.ack(ctx, topic, x.ID)
					continue
				}
				msg.Payload = []byte(val)

				if err := handler(msg); err != nil {
					c.log.Warn("handle message failed", zap.String("id", x.ID), zap.Error(err))
					continue
				}
				c.ack(ctx, topic, x.ID)
			}
		}
	}
}

func (c *RedisConsumer) ack(ctx context.Context, topic, id string) {
	if err := c.client.XAck(ctx, topic, c.group, id).Err(); err != nil {
		c.log.Warn("redis xack failed", zap.String("id", id), zap.Error(err))
	}
}

func (c *RedisConsumer) Close() error {
	return c.client.Close()
}
