package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jabbar-dev/bnb-aimtech/internal/config"
)

// RedisProvider 把通知推入 Redis 列表,由外部投递程序消费
type RedisProvider struct {
	client *redis.Client
	list   string
}

// NewRedisProvider 创建 Redis 通道并检查连接
func NewRedisProvider(ctx context.Context, cfg config.RedisProviderConfig) (*RedisProvider, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr missing: %w", ErrNotConfigured)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return NewRedisProviderWithClient(client, cfg.List), nil
}

// NewRedisProviderWithClient 使用已有客户端创建 Redis 通道
func NewRedisProviderWithClient(client *redis.Client, list string) *RedisProvider {
	return &RedisProvider{client: client, list: list}
}

// Send 推入列表头部
func (p *RedisProvider) Send(ctx context.Context, msg Message) error {
	payload, err := encodeEnvelope(msg, time.Now())
	if err != nil {
		return err
	}
	return p.client.LPush(ctx, p.list, payload).Err()
}

// Close 关闭客户端
func (p *RedisProvider) Close() error {
	return p.client.Close()
}
