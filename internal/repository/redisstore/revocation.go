// Package redisstore holds the Redis-backed token revocation list.
// Session tokens are stateless, so logout writes the token's jti here
// with a TTL matching the token's remaining validity; the key expires
// exactly when the token would have.
package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "revoked:"

type RevocationList struct {
	rdb *redis.Client
}

func NewRevocationList(rdb *redis.Client) *RevocationList {
	return &RevocationList{rdb: rdb}
}

func (l *RevocationList) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		// Already expired, nothing to deny.
		return nil
	}
	return l.rdb.Set(ctx, keyPrefix+jti, "1", ttl).Err()
}

func (l *RevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := l.rdb.Exists(ctx, keyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
