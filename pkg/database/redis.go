package database

import (
	"context"
	"fmt"
	"time"

	"eth-wallet-core/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConnectRedis 建立连接并 PING 一次
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("无法连接到 Redis: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", addr), zap.Int("db", db))
	return rdb, nil
}
