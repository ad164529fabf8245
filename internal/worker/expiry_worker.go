package worker

import (
	"context"
	"time"

	"github.com/lumilearn/assess-backend/internal/service"
	"github.com/rs/zerolog"
)

// ExpiryWorker periodically sweeps overdue in-progress sessions into
// TIMED_OUT. Candidate reads already expire lazily; the sweep catches
// sessions whose candidate simply walked away.
type ExpiryWorker struct {
	sessions *service.SessionService
	interval time.Duration
	log      zerolog.Logger
}

// NewExpiryWorker creates a new ExpiryWorker.
func NewExpiryWorker(sessions *service.SessionService, interval time.Duration, log zerolog.Logger) *ExpiryWorker {
	return &ExpiryWorker{
		sessions: sessions,
		interval: interval,
		log:      log.With().Str("component", "expiry_worker").Logger(),
	}
}

// Start runs the sweep loop until the context is cancelled. Overlapping
// sweeps are harmless: a session lost to a concurrent finalizer is skipped.
func (w *ExpiryWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("ExpiryWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("ExpiryWorker stopping")
			return
		case <-ticker.C:
			expired, err := w.sessions.ExpireSweep(ctx, time.Now())
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.log.Error().Err(err).Msg("expiry sweep failed")
				continue
			}
			if expired > 0 {
				w.log.Info().Int("expired", expired).Msg("expired overdue sessions")
			}
		}
	}
}
