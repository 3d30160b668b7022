package token

import (
	"context"
	"time"
)

// RevocationStore is the durable blacklist of revoked token ids.
// Revoke must be idempotent: inserting an already-revoked jti is a no-op,
// so clients can safely retry logout.
type RevocationStore interface {
	Revoke(ctx context.Context, rec *RevocationRecord) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
