package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper evicts per-session view state unused for longer than idle.
type Sweeper interface {
	Sweep(idle time.Duration, now time.Time) int
	Len() int
}

// SessionSweepWorker periodically drops list and form controllers of
// sessions that went idle.
type SessionSweepWorker struct {
	registry Sweeper
	idle     time.Duration
	interval time.Duration
	now      func() time.Time
}

// NewSessionSweepWorker constructs a SessionSweepWorker.
func NewSessionSweepWorker(
	registry Sweeper,
	idle time.Duration,
	interval time.Duration,
) *SessionSweepWorker {
	return &SessionSweepWorker{
		registry: registry,
		idle:     idle,
		interval: interval,
		now:      time.Now,
	}
}

// Start begins the periodic sweep loop until context is canceled.
func (w *SessionSweepWorker) Start(ctx context.Context) {
	log.Info().
		Dur("interval", w.interval).
		Dur("idle_after", w.idle).
		Msg("Starting session sweep worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run()
		case <-ctx.Done():
			log.Info().Msg("Session sweep worker stopped")
			return
		}
	}
}

func (w *SessionSweepWorker) run() int {
	evicted := w.registry.Sweep(w.idle, w.now())
	if evicted > 0 {
		log.Info().
			Int("evicted", evicted).
			Int("remaining", w.registry.Len()).
			Msg("Evicted idle session views")
	}
	return evicted
}
