package auth

import (
	"context"
	"time"

	"go.uber.org/zap"

	domaintoken "github.com/NordCoder/Authgate/internal/domain/token"
	"github.com/NordCoder/Authgate/internal/obs"
)

// Janitor periodically drops blacklist records for tokens that have since
// expired on their own. Purging is maintenance only: correctness never
// depends on it, since expired tokens fail the expiry check regardless.
type Janitor struct {
	Log   *zap.Logger
	Store domaintoken.RevocationStore
	Every time.Duration
}

func NewJanitor(log *zap.Logger, store domaintoken.RevocationStore, every time.Duration) *Janitor {
	if every <= 0 {
		every = time.Hour
	}
	return &Janitor{Log: log, Store: store, Every: every}
}

func (j *Janitor) tick(ctx context.Context) {
	n, err := j.Store.PurgeExpired(ctx, time.Now().UTC())
	if err != nil {
		j.Log.Warn("blacklist purge", zap.Error(err))
		return
	}
	if n > 0 {
		obs.BlacklistPurged.Add(float64(n))
		j.Log.Debug("blacklist purged", zap.Int64("records", n))
	}
}

func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.Every)
	defer ticker.Stop()

	j.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.tick(ctx)
		}
	}
}
