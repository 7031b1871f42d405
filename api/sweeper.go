/*
sweeper.go - Periodic completion sweep

PURPOSE:
  Re-runs the completion check over all active obligations on an
  interval. The engine already re-checks after every payment; the sweep
  is a safety net against a payment whose post-commit check was never
  reached (process crash between the transaction commit and the check).

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Re-reads each active obligation's installments (full re-scan)
  - Never downgrades a terminal status

CONFIGURATION:
  - Interval: How often to sweep (default: 1 hour)

USAGE:
  sweeper := NewCompletionSweeper(store, log)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - obligation/completion.go: RecheckCompletion
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hoppiness/debt-engine/obligation"
)

// CompletionSweeper periodically re-checks active obligations for
// completion.
type CompletionSweeper struct {
	Store    obligation.TxStore
	Engine   *obligation.Engine
	Interval time.Duration
	Log      *logrus.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewCompletionSweeper creates a sweeper with the default interval.
func NewCompletionSweeper(store obligation.TxStore, log *logrus.Logger) *CompletionSweeper {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CompletionSweeper{
		Store:    store,
		Engine:   obligation.NewEngine(store),
		Interval: 1 * time.Hour,
		Log:      log,
	}
}

// Start launches the background sweep loop. Idempotent.
func (s *CompletionSweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.Interval)
	s.stop = make(chan struct{})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.ticker.C:
				s.Sweep(context.Background())
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop halts the sweep loop and waits for a running sweep to finish.
func (s *CompletionSweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
}

// Sweep runs one pass over all active obligations.
func (s *CompletionSweeper) Sweep(ctx context.Context) {
	ids, err := s.Store.ListActiveObligationIDs(ctx)
	if err != nil {
		s.Log.WithError(err).Error("completion sweep: listing active obligations failed")
		return
	}

	var completed int
	for _, id := range ids {
		done, err := s.Engine.RecheckCompletion(ctx, id)
		if err != nil {
			s.Log.WithError(err).WithField("obligation_id", id).
				Warn("completion sweep: re-check failed")
			continue
		}
		if done {
			completed++
			s.Log.WithField("obligation_id", id).Info("completion sweep: obligation completed")
		}
	}

	if completed > 0 {
		s.Log.WithFields(logrus.Fields{
			"scanned":   len(ids),
			"completed": completed,
		}).Info("completion sweep finished")
	}
}
