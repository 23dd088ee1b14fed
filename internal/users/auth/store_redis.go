// Copyright (c) 2026 Kaka HQ. All rights reserved.

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kaka-hq/dealerdesk/internal/platform/constants"
)

// # Redis Revocation Repository

// RedisRevocationRepository keeps revoked token IDs in Redis with a TTL
// equal to the token's remaining lifetime. Once the token would have
// expired on its own, the deny-list entry evaporates with it.
type RedisRevocationRepository struct {
	client *redis.Client
}

func NewRedisRevocationRepository(client *redis.Client) *RedisRevocationRepository {
	return &RedisRevocationRepository{client: client}
}

func (repository *RedisRevocationRepository) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		// Already past its natural expiry; verification rejects it anyway.
		return nil
	}

	key := revocationKey(tokenID)
	if err := repository.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (repository *RedisRevocationRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	count, err := repository.client.Exists(ctx, revocationKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return count > 0, nil
}

func revocationKey(tokenID string) string {
	return constants.RedisPrefixRevokedToken + tokenID
}
