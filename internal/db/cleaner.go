package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/carebook/internal/metrics"
)

const deleteExpiredTokens = `DELETE FROM tokens WHERE expires_at < $1`

// CleanExpiredTokens removes every token that expired before now and
// reports how many were deleted.
func CleanExpiredTokens(ctx context.Context, db *sql.DB, now time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, deleteExpiredTokens, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StartExpiredTokenCleaner runs CleanExpiredTokens every interval until ctx
// is done. The returned channel is closed once the cleaner has stopped.
func StartExpiredTokenCleaner(ctx context.Context, db *sql.DB, interval time.Duration, log *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	ticker := time.NewTicker(interval)

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				removed, err := CleanExpiredTokens(ctx, db, now)
				switch {
				case err != nil:
					if ctx.Err() == nil {
						log.Error("failed to clean expired tokens", zap.Error(err))
					}
				case removed > 0:
					metrics.ExpiredTokensDeletedTotal.Add(float64(removed))
					log.Info("cleaned expired tokens", zap.Int64("removed", removed))
				}
			}
		}
	}()
	return done
}
