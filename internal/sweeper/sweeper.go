package sweeper

import (
	"context"
	"log/slog"
	"time"
)

const DefaultInterval = time.Minute

type Expirer interface {
	ExpireStale(ctx context.Context)
}

// Sweeper calls ExpireStale on a fixed interval until its context is done.
// Sweeps run on the Run goroutine, so a slow sweep delays the next one and
// the ticker drops the ticks it missed.
type Sweeper struct {
	expirer  Expirer
	interval time.Duration
	logger   *slog.Logger
}

func New(expirer Expirer, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{expirer: expirer, interval: interval, logger: logger}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("order sweeper started", slog.Duration("interval", s.interval))
	for {
		select {
		case <-ticker.C:
			s.expirer.ExpireStale(ctx)
		case <-ctx.Done():
			s.logger.Info("order sweeper stopped")
			return
		}
	}
}
