package services

import (
	"context"
	"time"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/session"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Sweeper periodically tears down candidate sessions nobody has touched
// for longer than the idle timeout, releasing their timers and devices.
type Sweeper struct {
	log      *zap.Logger
	registry *session.Registry
	clock    clock.Clock
	interval time.Duration
	ttl      time.Duration
}

func NewSweeper(log *zap.Logger, registry *session.Registry, clk clock.Clock, interval, ttl time.Duration) *Sweeper {
	if clk == nil {
		clk = clock.New()
	}
	return &Sweeper{
		log:      log.Named("sweeper"),
		registry: registry,
		clock:    clk,
		interval: interval,
		ttl:      ttl,
	}
}

// Start runs the sweeper in a goroutine until ctx is done.
func (s *Sweeper) Start(ctx context.Context) {
	s.log.Info("Starting idle session sweeper...",
		zap.Duration("interval", s.interval),
		zap.Duration("idle_timeout", s.ttl),
	)
	ticker := s.clock.Ticker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runSweep()
			}
		}
	}()
}

func (s *Sweeper) runSweep() {
	closed := s.registry.Sweep(s.ttl)
	if len(closed) > 0 {
		s.log.Info("Closed idle interview sessions", zap.Strings("sessions", closed))
		return
	}
	s.log.Debug("Sweep found no idle sessions", zap.Int("live", s.registry.Len()))
}
