package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	domaintoken "github.com/NordCoder/Authgate/internal/domain/token"
)

const keyPrefix = "revoked:"

const defaultFillTTL = time.Minute

var _ domaintoken.RevocationStore = (*RevocationCache)(nil)

// RevocationCache fronts the durable blacklist with a redis cache keyed by
// jti. The cache is best-effort: any redis failure falls through to the
// durable store, so losing redis degrades latency, never correctness.
type RevocationCache struct {
	next    domaintoken.RevocationStore
	rdb     *redis.Client
	fillTTL time.Duration
	now     func() time.Time
}

func NewRevocationCache(next domaintoken.RevocationStore, rdb *redis.Client, fillTTL time.Duration) *RevocationCache {
	if fillTTL <= 0 {
		fillTTL = defaultFillTTL
	}
	return &RevocationCache{
		next:    next,
		rdb:     rdb,
		fillTTL: fillTTL,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Revoke writes through to the durable store first; the cache entry lives
// until the token itself expires, after which the blacklist no longer
// matters for it.
func (c *RevocationCache) Revoke(ctx context.Context, rec *domaintoken.RevocationRecord) error {
	if err := c.next.Revoke(ctx, rec); err != nil {
		return err
	}
	if ttl := rec.ExpiresAt.Sub(c.now()); ttl > 0 {
		_ = c.rdb.Set(ctx, keyPrefix+rec.JTI, "1", ttl).Err()
	}
	return nil
}

func (c *RevocationCache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if v, err := c.rdb.Get(ctx, keyPrefix+jti).Result(); err == nil {
		return v == "1", nil
	}
	revoked, err := c.next.IsRevoked(ctx, jti)
	if err != nil {
		return false, err
	}
	v := "0"
	if revoked {
		v = "1"
	}
	// Entries filled on a miss get a short TTL: we do not know the token's
	// expiry here, and a stale negative must age out quickly. SetNX keeps
	// the fill from clobbering a "1" written by a concurrent Revoke.
	_ = c.rdb.SetNX(ctx, keyPrefix+jti, v, c.fillTTL).Err()
	return revoked, nil
}

func (c *RevocationCache) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return c.next.PurgeExpired(ctx, now)
}
