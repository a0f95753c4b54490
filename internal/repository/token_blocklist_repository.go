package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedTokenPrefix = "auth:revoked:"

// TokenBlocklist remembers revoked token ids until they would have expired anyway.
type TokenBlocklist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type redisTokenBlocklist struct {
	client *redis.Client
}

// NewRedisTokenBlocklist returns a Redis-backed blocklist.
func NewRedisTokenBlocklist(client *redis.Client) TokenBlocklist {
	return &redisTokenBlocklist{client: client}
}

func (b *redisTokenBlocklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, revokedTokenPrefix+tokenID, "1", ttl).Err()
}

func (b *redisTokenBlocklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	n, err := b.client.Exists(ctx, revokedTokenPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
