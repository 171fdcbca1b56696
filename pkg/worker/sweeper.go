package worker

import (
	"context"
	"time"

	"github.com/citamed/scheduling-api/pkg/logger"
)

// Expirer is any job that reclaims stale state and reports how many
// items it touched.
type Expirer interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Sweeper runs an Expirer on a fixed interval until its context is
// cancelled. One run failing never stops the loop.
type Sweeper struct {
	expirer  Expirer
	interval time.Duration
	logger   *logger.Logger
}

func NewSweeper(expirer Expirer, interval time.Duration, logger *logger.Logger) *Sweeper {
	return &Sweeper{
		expirer:  expirer,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled. It sweeps once immediately so a
// restart never extends the effective offer lifetime by one interval.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	reclaimed, err := s.expirer.SweepExpired(ctx)
	if err != nil {
		s.logger.Error(err, "expiry sweep failed")
		return
	}
	if reclaimed > 0 {
		s.logger.Info("expiry sweep reclaimed offers", "count", reclaimed)
	}
}
