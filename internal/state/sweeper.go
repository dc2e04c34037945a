package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrSweeperRunning is returned by Start when the loop is already active.
var ErrSweeperRunning = errors.New("sweeper is already running")

// Sweeper prunes a Store on a fixed interval, independent of request
// traffic. It follows a ticker + done channel lifecycle.
type Sweeper struct {
	store    *Store
	interval time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	running bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewSweeper returns a stopped Sweeper. An interval <= 0 uses the store TTL.
func NewSweeper(store *Store, interval time.Duration, log zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = store.TTL()
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		log:      log.With().Str("component", "state_sweeper").Logger(),
	}
}

// Start launches the sweep loop. It returns immediately.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrSweeperRunning
	}
	s.running = true
	s.done = make(chan struct{})

	s.log.Info().Dur("interval", s.interval).Dur("ttl", s.store.TTL()).Msg("sweeper starting")

	s.wg.Add(1)
	go s.runLoop(ctx, s.done)
	return nil
}

// Stop signals the loop to exit and waits for the current pass. Safe to
// call more than once.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.done)
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info().Msg("sweeper stopped")
}

// Run starts the loop and blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

// RunNow performs one sweep immediately using the store clock.
func (s *Sweeper) RunNow() SweepResult {
	now := s.store.Clock().Now()
	removed := s.store.SweepExpired(now)
	sizes := s.store.Sizes()
	observeSweep(removed, sizes)

	if n := removed.Total(); n > 0 {
		s.log.Debug().Int("removed", n).Interface("by_index", removed).Msg("swept expired entries")
	}
	return removed
}

func (s *Sweeper) runLoop(ctx context.Context, done <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			s.RunNow()
		}
	}
}
