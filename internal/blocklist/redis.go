package blocklist

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "blocklist:"

// Redis is a Registry backed by a shared Redis instance. Entries survive
// process restarts and are visible to every server replica.
//
// Each entry is stored with a TTL equal to the longest token lifetime
// (the refresh TTL), so the set stays bounded: once no token carrying a jti
// can still be valid, its entry expires on its own.
type Redis struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedis returns a Redis-backed registry. ttl should be the refresh token
// lifetime; entries shorter-lived than their tokens would unrevoke them early.
func NewRedis(rdb *goredis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

// Revoke marks jti revoked. Re-revoking refreshes the entry's TTL, which only
// extends the fence; it never unrevokes.
func (r *Redis) Revoke(ctx context.Context, jti string) error {
	return r.rdb.Set(ctx, keyPrefix+jti, "1", r.ttl).Err()
}

// IsRevoked reports whether jti is revoked.
func (r *Redis) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.rdb.Exists(ctx, keyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
