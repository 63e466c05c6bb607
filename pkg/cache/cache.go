package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss 缓存未命中
var ErrMiss = errors.New("cache miss")

// Cache 通用缓存接口，值以 JSON 语义存取
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Get 未命中返回 ErrMiss，命中时 Unmarshal 到 target
	Get(ctx context.Context, key string, target interface{}) error
	Delete(ctx context.Context, key string) error
}
