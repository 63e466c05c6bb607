package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DistributedLock 跨进程互斥，用于串行化同一地址的发送
type DistributedLock interface {
	// Acquire 返回 (是否成功, error)
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// 仅当值仍属于自己时才删除
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLock 基于 SET NX PX 的实现，每次加锁写入随机令牌
type RedisLock struct {
	client *redis.Client
	mu     sync.Mutex
	tokens map[string]string
}

func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{client: client, tokens: make(map[string]string)}
}

func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, "lock:"+key, token, ttl).Result()
	if err != nil || !ok {
		return false, err
	}
	l.mu.Lock()
	l.tokens[key] = token
	l.mu.Unlock()
	return true, nil
}

func (l *RedisLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	token, ok := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()
	if !ok {
		return nil
	}
	return releaseScript.Run(ctx, l.client, []string{"lock:" + key}, token).Err()
}

// LocalLock 单进程实现，未配置 Redis 时使用
type LocalLock struct {
	mu   sync.Mutex
	held map[string]time.Time
}

func NewLocalLock() *LocalLock {
	return &LocalLock{held: make(map[string]time.Time)}
}

func (l *LocalLock) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if exp, ok := l.held[key]; ok && time.Now().Before(exp) {
		return false, nil
	}
	l.held[key] = time.Now().Add(ttl)
	return true, nil
}

func (l *LocalLock) Release(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.held, key)
	l.mu.Unlock()
	return nil
}
