package postgres

import (
	"context"
	"fmt"
	"time"

	domaintoken "github.com/NordCoder/Authgate/internal/domain/token"
)

var _ domaintoken.RevocationStore = (*RevocationRepo)(nil)

// RevocationRepo is the durable token blacklist. It is the single source of
// truth for revocation: entries survive restarts and are shared across
// instances.
type RevocationRepo struct{ db *DB }

func NewRevocationRepo(db *DB) *RevocationRepo { return &RevocationRepo{db: db} }

const (
	qRevoke = `
INSERT INTO token_blacklist (jti, expires_at, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (jti) DO NOTHING;`

	qIsRevoked = `
SELECT EXISTS (SELECT 1 FROM token_blacklist WHERE jti = $1);`

	qPurgeExpired = `
DELETE FROM token_blacklist WHERE expires_at <= $1;`
)

// Revoke inserts a blacklist record. Re-revoking the same jti is a no-op so
// a retried logout cannot fail.
func (r *RevocationRepo) Revoke(ctx context.Context, rec *domaintoken.RevocationRecord) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.Pool.Exec(ctx, qRevoke, rec.JTI, rec.ExpiresAt, rec.CreatedAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *RevocationRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var revoked bool
	if err := r.db.Pool.QueryRow(ctx, qIsRevoked, jti).Scan(&revoked); err != nil {
		return false, fmt.Errorf("blacklist lookup: %w", err)
	}
	return revoked, nil
}

// PurgeExpired drops records for tokens that have expired on their own;
// those are rejected by the expiry check regardless of blacklist state.
func (r *RevocationRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Pool.Exec(ctx, qPurgeExpired, now)
	if err != nil {
		return 0, fmt.Errorf("purge blacklist: %w", err)
	}
	return tag.RowsAffected(), nil
}
