package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/patientshare/internal/logger"
	"github.com/MrSnakeDoc/patientshare/internal/metrics"
	"github.com/MrSnakeDoc/patientshare/internal/store"
)

// Sweeper periodically purges share records that are past their retention.
// Reads already purge expired records, so the sweeper only reclaims memory
// for records nobody asks for again.
type Sweeper struct {
	store    store.Store
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
	done     chan struct{}
}

// NewSweeper creates a sweeper. A non-positive interval disables Start.
func NewSweeper(st store.Store, log logger.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    st,
		logger:   log.With(logger.String("component", "sweeper")),
		interval: interval,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the periodic sweep in the background.
func (s *Sweeper) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	if s.interval <= 0 {
		s.logger.Info("share sweeper disabled")
		close(s.done)
		return
	}

	ticker := time.NewTicker(s.interval)
	go func() {
		defer close(s.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := s.Sweep(ctx); err != nil {
					s.logger.Error("share sweep failed", logger.Error(err))
				}
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	s.logger.Info("share sweeper started", logger.Duration("interval", s.interval))
}

// Stop halts the sweeper and waits for an in-flight sweep to finish.
// It is safe to call more than once.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	if s.started.Load() {
		<-s.done
	}
}

// Sweep runs a single pass and returns how many records were removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	removed, err := s.store.Sweep(ctx)
	if err != nil {
		return removed, err
	}

	metrics.Swept(removed)
	if removed > 0 {
		s.logger.Info("share sweep completed", logger.Int("removed", removed))
	} else {
		s.logger.Debug("no shares to sweep")
	}
	return removed, nil
}
