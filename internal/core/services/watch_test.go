package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rag4u/ingest/internal/connectors"
	"github.com/rag4u/ingest/internal/core/domain"
)

// countingIngestor records how many runs were started.
type countingIngestor struct {
	runs    atomic.Int32
	err     error
	delay   time.Duration
	mu      sync.Mutex
	active  int
	maxSeen int
}

func (c *countingIngestor) Run(ctx context.Context, dir string) (*domain.RunReport, error) {
	c.runs.Add(1)
	c.mu.Lock()
	c.active++
	if c.active > c.maxSeen {
		c.maxSeen = c.active
	}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.active--
		c.mu.Unlock()
	}()

	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
		}
	}
	return &domain.RunReport{Root: dir}, c.err
}

func TestWatchService_CoalescesBursts(t *testing.T) {
	captureLogs(t)
	dir := t.TempDir()
	ingestor := &countingIngestor{}
	svc := NewWatchService(ingestor, connectors.Filesystem, domain.WatchSettings{
		Debounce:          300 * time.Millisecond,
		MaxConcurrentRuns: 1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- svc.Watch(ctx, dir) }()

	// Give the watcher time to register.
	time.Sleep(200 * time.Millisecond)
	writeFile(t, dir, "a.txt", "one")
	writeFile(t, dir, "b.txt", "two")
	writeFile(t, dir, "c.txt", "three")

	assert.Eventually(t, func() bool { return ingestor.runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, int32(1), ingestor.runs.Load())

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchService_InitialRun(t *testing.T) {
	captureLogs(t)
	ingestor := &countingIngestor{}
	svc := NewWatchService(ingestor, connectors.Filesystem, domain.WatchSettings{}, WithInitialRun())

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- svc.Watch(ctx, t.TempDir()) }()

	assert.Eventually(t, func() bool { return ingestor.runs.Load() == 1 }, 3*time.Second, 20*time.Millisecond)
	cancel()
	assert.NoError(t, <-errc)
}

func TestWatchService_StopsOnStoreUnavailable(t *testing.T) {
	captureLogs(t)
	ingestor := &countingIngestor{err: domain.ErrStoreUnavailable}
	svc := NewWatchService(ingestor, connectors.Filesystem, domain.WatchSettings{}, WithInitialRun())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := svc.Watch(ctx, t.TempDir())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestWatchService_BoundsConcurrentRuns(t *testing.T) {
	captureLogs(t)
	dir := t.TempDir()
	ingestor := &countingIngestor{delay: 400 * time.Millisecond}
	svc := NewWatchService(ingestor, connectors.Filesystem, domain.WatchSettings{
		Debounce:          10 * time.Millisecond,
		MaxConcurrentRuns: 1,
	}, WithInitialRun())

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- svc.Watch(ctx, dir) }()

	require.Eventually(t, func() bool { return ingestor.runs.Load() == 1 }, 3*time.Second, 10*time.Millisecond)
	writeFile(t, dir, "late.txt", "arrives during a run")

	assert.Eventually(t, func() bool { return ingestor.runs.Load() == 2 }, 5*time.Second, 20*time.Millisecond)
	cancel()
	require.NoError(t, <-errc)

	ingestor.mu.Lock()
	defer ingestor.mu.Unlock()
	assert.Equal(t, 1, ingestor.maxSeen)
}

func TestWatchService_MissingDirectory(t *testing.T) {
	svc := NewWatchService(&countingIngestor{}, connectors.Filesystem, domain.WatchSettings{})

	err := svc.Watch(context.Background(), "/non/existent/path")
	assert.Error(t, err)
}
