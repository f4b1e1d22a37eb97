// Package eventstore 记录已处理的支付平台事件
package eventstore

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	keyPrefix  = "stripe:event:"
	DefaultTTL = 72 * time.Hour
)

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

// Seen 事件是否已处理
func (s *Store) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+eventID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkProcessed 记录事件，过期后自动清理
func (s *Store) MarkProcessed(ctx context.Context, eventID string) error {
	return s.client.Set(ctx, keyPrefix+eventID, time.Now().Unix(), s.ttl).Err()
}
