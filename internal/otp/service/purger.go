package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultPurgeInterval is how often expired codes are swept.
const DefaultPurgeInterval = 10 * time.Minute

// RunPurger deletes expired codes every interval until ctx is done. It always returns nil
// so it can run inside an errgroup without tearing the process down on a failed sweep.
func RunPurger(ctx context.Context, store *Store, interval time.Duration, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultPurgeInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			purgeOnce(ctx, store, logger)
		}
	}
}

func purgeOnce(ctx context.Context, store *Store, logger *zap.Logger) int64 {
	n, err := store.PurgeExpired(ctx)
	if err != nil {
		logger.Warn("otp: purge expired codes failed", zap.Error(err))
		return 0
	}
	if n > 0 {
		logger.Info("otp: purged expired codes", zap.Int64("count", n))
	}
	return n
}
