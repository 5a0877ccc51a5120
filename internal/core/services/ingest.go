package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
	"github.com/rag4u/ingest/internal/core/ports/driving"
	"github.com/rag4u/ingest/internal/hasher"
	"github.com/rag4u/ingest/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

const (
	// lockStripes is the number of per-key upsert locks.
	lockStripes = 64

	// knownDigests bounds the skip-unchanged cache.
	knownDigests = 4096
)

// IngestService runs files through detection, extraction and the
// post-processor pipeline, then upserts the resulting records.
// Concurrent runs over the same store are safe; records converge because
// upserts are keyed by content digest.
type IngestService struct {
	store      driven.DocumentStore
	detector   driven.TypeDetector
	extractors driven.ExtractorRegistry
	pipeline   driven.PostProcessorPipeline
	connect    driven.ConnectorBuilder
	collection string
	settings   domain.IngestSettings

	known *lru.Cache[string, struct{}]
	locks [lockStripes]sync.Mutex
}

// NewIngestService creates an ingestion orchestrator writing into collection.
func NewIngestService(
	store driven.DocumentStore,
	detector driven.TypeDetector,
	extractors driven.ExtractorRegistry,
	pipeline driven.PostProcessorPipeline,
	connect driven.ConnectorBuilder,
	collection string,
	settings domain.IngestSettings,
) *IngestService {
	if settings.Workers < 1 {
		settings.Workers = 1
	}
	known, _ := lru.New[string, struct{}](knownDigests)
	return &IngestService{
		store:      store,
		detector:   detector,
		extractors: extractors,
		pipeline:   pipeline,
		connect:    connect,
		collection: collection,
		settings:   settings,
		known:      known,
	}
}

// fileOutcome is how one file ended.
type fileOutcome int

const (
	outcomeProcessed fileOutcome = iota
	outcomeUnchanged
	outcomeFailed
)

// tally accumulates per-file results into a report.
type tally struct {
	mu     sync.Mutex
	report *domain.RunReport
}

func (t *tally) add(outcome fileOutcome, records, rejected int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch outcome {
	case outcomeProcessed:
		t.report.Processed++
	case outcomeUnchanged:
		t.report.Unchanged++
	case outcomeFailed:
		t.report.Failed++
	}
	t.report.Records += records
	t.report.Rejected += rejected
}

// Run processes every eligible file under dir.
func (s *IngestService) Run(ctx context.Context, dir string) (*domain.RunReport, error) {
	report := &domain.RunReport{
		RunID:     uuid.NewString(),
		Root:      dir,
		StartedAt: time.Now(),
	}
	logger.Section("Ingestion")
	logger.Info("Run %s: ingesting %s into %s", report.RunID, dir, s.collection)

	conn := s.connect(dir)
	defer conn.Close()

	t := &tally{report: report}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.settings.Workers)

	paths, scanErrs := conn.Scan(gctx)
	for path := range paths {
		report.Files++
		if gctx.Err() != nil {
			continue
		}
		g.Go(func() error {
			return s.ingestFile(gctx, path, t)
		})
	}

	runErr := g.Wait()
	for err := range scanErrs {
		if runErr == nil {
			runErr = err
		}
	}
	if runErr == nil {
		runErr = ctx.Err()
	}
	if runErr == nil {
		if err := s.store.EnsureTextIndex(ctx, s.collection, "content"); err != nil {
			runErr = fmt.Errorf("ensure text index: %w", err)
		}
	}

	report.FinishedAt = time.Now()
	if runErr != nil {
		logger.Error("Run %s aborted: %v", report.RunID, runErr)
		return report, runErr
	}

	logger.Info("Run %s: %d files, %d processed, %d unchanged, %d failed, %d records (%d rejected) in %s",
		report.RunID, report.Files, report.Processed, report.Unchanged, report.Failed,
		report.Records, report.Rejected, report.Duration().Round(time.Millisecond))
	return report, nil
}

// ingestFile handles one file. Only fatal errors (store connectivity,
// cancellation) are returned; everything else is counted.
//
//nolint:gocyclo // Pipeline orchestration with sequential steps
func (s *IngestService) ingestFile(ctx context.Context, path string, t *tally) error {
	// 1. FINGERPRINT
	digest, err := hasher.File(path)
	if err != nil {
		logger.Warn("Skipping %s: %v", path, err)
		t.add(outcomeFailed, 0, 0)
		return nil
	}

	// 2. SKIP UNCHANGED
	if s.settings.SkipUnchanged {
		stored, err := s.isStored(ctx, digest)
		if err != nil {
			return err
		}
		if stored {
			logger.Debug("Unchanged: %s", path)
			t.add(outcomeUnchanged, 0, 0)
			return nil
		}
	}

	// 3. DETECT + EXTRACT
	mediaType := s.detector.Detect(path)
	extraction := s.extractors.Extract(ctx, path, mediaType)
	if extraction.Failed() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		t.add(outcomeFailed, 0, 0)
		return nil
	}

	// 4. RUN POST-PROCESSOR PIPELINE
	doc := &domain.Document{
		Path:      path,
		MediaType: mediaType,
		Digest:    digest,
		Segments:  extraction.Segments,
	}
	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("Skipping %s: %v", path, err)
		t.add(outcomeFailed, 0, 0)
		return nil
	}
	if len(chunks) == 0 {
		// Extraction succeeded, the document simply has no text (an empty deck).
		logger.Debug("No records from %s", path)
		t.add(outcomeProcessed, 0, 0)
		return nil
	}

	// 5. UPSERT
	written, rejected := 0, 0
	for _, chunk := range chunks {
		rec := domain.Record{Content: chunk.Content, Metadata: chunk.Metadata}
		if err := s.upsert(ctx, rec); err != nil {
			if errors.Is(err, domain.ErrStoreUnavailable) || ctx.Err() != nil {
				return fmt.Errorf("upsert %s: %w", path, err)
			}
			logger.Error("Rejected chunk %d of %s: %v", chunk.Position, path, err)
			rejected++
			continue
		}
		written++
	}

	if written == 0 {
		t.add(outcomeFailed, 0, rejected)
		return nil
	}
	s.known.Add(digest, struct{}{})
	logger.Debug("Stored %d records from %s", written, path)
	t.add(outcomeProcessed, written, rejected)
	return nil
}

// upsert writes one record under its key lock.
func (s *IngestService) upsert(ctx context.Context, rec domain.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	key := rec.FileHash()
	mu := s.lockFor(key)
	mu.Lock()
	defer mu.Unlock()
	return s.store.Upsert(ctx, s.collection, domain.KeyField, key, rec)
}

// lockFor returns the stripe guarding key.
func (s *IngestService) lockFor(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &s.locks[h.Sum32()%lockStripes]
}

// isStored reports whether records for digest already exist.
// Connectivity failures are returned; other query errors count as "not stored".
func (s *IngestService) isStored(ctx context.Context, digest string) (bool, error) {
	if s.known.Contains(digest) {
		return true, nil
	}
	recs, err := s.store.Query(ctx, s.collection, map[string]any{
		"metadata." + domain.MetaSourceHash: digest,
	}, 1)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) || ctx.Err() != nil {
			return false, fmt.Errorf("skip-unchanged check: %w", err)
		}
		logger.Debug("skip-unchanged check failed for %s: %v", digest, err)
		return false, nil
	}
	if len(recs) == 0 {
		return false, nil
	}
	s.known.Add(digest, struct{}{})
	return true, nil
}

// Forget drops the skip-unchanged cache, e.g. after the collection is reset.
func (s *IngestService) Forget() {
	s.known.Purge()
}
