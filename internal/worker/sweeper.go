package worker

import (
	"context"
	"log/slog"
	"time"
)

type Sweeper interface {
	Sweep(ctx context.Context) int
}

// RunSweeper closes idle negotiations every interval until ctx is done.
func RunSweeper(ctx context.Context, sweeper Sweeper, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	logger(ctx).Info("sweeper started", slog.Duration("interval", every))

	for {
		select {
		case <-ctx.Done():
			logger(ctx).Info("sweeper stopped")
			return nil
		case <-ticker.C:
			if n := sweeper.Sweep(ctx); n > 0 {
				logger(ctx).Debug("idle negotiations closed", slog.Int("count", n))
			}
		}
	}
}
