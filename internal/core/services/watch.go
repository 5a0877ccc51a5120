package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
	"github.com/rag4u/ingest/internal/core/ports/driving"
	"github.com/rag4u/ingest/internal/logger"
)

// Ensure WatchService implements the interface.
var _ driving.Watcher = (*WatchService)(nil)

// WatchService launches full ingestion runs when files are created in a
// directory. Bursts of events are coalesced into one run, run starts are
// rate limited, and at most MaxConcurrentRuns runs overlap.
type WatchService struct {
	ingestor   driving.Ingestor
	connect    driven.ConnectorBuilder
	settings   domain.WatchSettings
	initialRun bool
}

// WatchOption configures a WatchService.
type WatchOption func(*WatchService)

// WithInitialRun starts a run as soon as the watch is established.
func WithInitialRun() WatchOption {
	return func(w *WatchService) {
		w.initialRun = true
	}
}

// NewWatchService creates a watch-mode trigger around an ingestor.
func NewWatchService(
	ingestor driving.Ingestor,
	connect driven.ConnectorBuilder,
	settings domain.WatchSettings,
	opts ...WatchOption,
) *WatchService {
	if settings.MaxConcurrentRuns < 1 {
		settings.MaxConcurrentRuns = 1
	}
	w := &WatchService{
		ingestor: ingestor,
		connect:  connect,
		settings: settings,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch blocks until ctx is cancelled, the watch channel closes, or a run
// fails because the store is unreachable.
//
//nolint:gocognit // Event loop coordinating timers, limiter and runs
func (w *WatchService) Watch(ctx context.Context, dir string) error {
	conn := w.connect(dir)
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	changes, err := conn.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("Watching %s for new files", dir)

	limit := rate.Inf
	if w.settings.MinInterval > 0 {
		limit = rate.Every(w.settings.MinInterval)
	}
	limiter := rate.NewLimiter(limit, 1)

	done := make(chan error, w.settings.MaxConcurrentRuns)
	running := 0
	queued := false

	start := func() error {
		if running >= w.settings.MaxConcurrentRuns {
			queued = true
			logger.Debug("Run limit reached; queueing another run")
			return nil
		}
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		running++
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.ingestor.Run(ctx, dir)
			done <- err
		}()
		return nil
	}

	if w.initialRun {
		if err := start(); err != nil {
			return nil
		}
	}

	var (
		debounce *time.Timer
		fire     <-chan time.Time
		pending  int
	)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if change.Type != domain.ChangeCreated {
				logger.Debug("Ignoring %s event for %s", change.Type, change.Path)
				continue
			}
			logger.User("New file detected: %s", change.Path)
			pending++
			if debounce == nil {
				debounce = time.NewTimer(w.settings.Debounce)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(w.settings.Debounce)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			logger.Debug("Triggering run for %d new files", pending)
			pending = 0
			if err := start(); err != nil {
				return nil
			}

		case err := <-done:
			running--
			if err != nil {
				if errors.Is(err, domain.ErrStoreUnavailable) {
					return err
				}
				if ctx.Err() == nil {
					logger.Error("Run failed: %v", err)
				}
			}
			if queued {
				queued = false
				if err := start(); err != nil {
					return nil
				}
			}
		}
	}
}
