package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stash-ingest/core/cursor"
	"stash-ingest/core/logger"
	"stash-ingest/core/metrics"
	"stash-ingest/core/stream"
	"stash-ingest/feature/detector"
	"stash-ingest/feature/modifier"
	"stash-ingest/feature/output"

	"go.uber.org/zap"
)

// Enqueuer accepts assembled rows for asynchronous writing.
type Enqueuer interface {
	Enqueue(ctx context.Context, batchID string, rows output.Rows) error
	Pending() int64
}

// Options wires the service dependencies.
type Options struct {
	Fetcher       stream.Fetcher
	Stream        stream.Config
	Cursors       cursor.Store
	InitialCursor string
	Catalog       *modifier.Catalog
	RefreshEvery  time.Duration
	Pipeline      *detector.Pipeline
	Writer        Enqueuer
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
}

// Service drives the ingestion loop: feed pages to batches, batches to detections,
// detections to facts, facts to the writer, then commits the cursor.
type Service struct {
	opts   Options
	logger *zap.Logger
	status tracker
}

// NewService creates the service. The catalog must be initialised.
func NewService(opts Options) (*Service, error) {
	if opts.Catalog == nil || opts.Catalog.Current() == nil {
		return nil, &FatalConfigurationError{Reason: "modifier catalog not loaded", Err: modifier.ErrEmptyCatalog}
	}
	if opts.Fetcher == nil || opts.Cursors == nil || opts.Pipeline == nil || opts.Writer == nil {
		return nil, &FatalConfigurationError{Reason: "incomplete ingestion wiring"}
	}
	return &Service{opts: opts, logger: opts.Logger}, nil
}

// Status returns the current progress snapshot.
func (s *Service) Status() Status {
	st := s.status.snapshot()
	if m := s.opts.Catalog.Current(); m != nil {
		st.CatalogTemplates = m.Templates
		st.CatalogBuiltAt = m.BuiltAt
	}
	st.PendingWrites = s.opts.Writer.Pending()
	return st
}

// Run ingests until ctx is cancelled or a fatal error occurs.
//
// Cancellation stops the producer between page fetches; the pages fetched so far are
// processed and committed before Run returns nil. A producer or commit failure ends Run
// with an error; the next start resumes from the last committed cursor.
func (s *Service) Run(ctx context.Context) error {
	start, err := cursor.Resolve(ctx, s.opts.Cursors, s.opts.InitialCursor)
	if err != nil {
		return fmt.Errorf("failed to load cursor: %w", err)
	}

	s.status.update(func(st *Status) {
		st.Running = true
		st.StartedAt = time.Now().UTC()
		st.StartCursor = start
		st.CommittedCursor = start
	})
	defer s.status.update(func(st *Status) { st.Running = false })

	s.logger.Info("Ingestion started", zap.String("cursor", start))

	consumer := stream.NewConsumer(s.opts.Stream, s.opts.Fetcher, s.logger)
	produceCtx, stop := context.WithCancel(ctx)
	defer stop()
	go consumer.Produce(produceCtx, start)

	if s.opts.RefreshEvery > 0 {
		go s.refreshLoop(produceCtx)
	}

	// In-flight batches finish after cancellation
	work := context.WithoutCancel(ctx)
	for {
		b, err := consumer.Consume(work)
		if errors.Is(err, stream.ErrClosed) {
			s.logger.Info("Ingestion stopped", zap.String("cursor", s.status.snapshot().CommittedCursor))
			return nil
		}
		if err != nil {
			s.fail(err)
			return fmt.Errorf("feed producer: %w", err)
		}

		if err := s.process(work, b); err != nil {
			s.fail(err)
			return err
		}
	}
}

func (s *Service) fail(err error) {
	s.status.update(func(st *Status) { st.LastError = err.Error() })
}

// process handles one batch and commits its cursor.
func (s *Service) process(ctx context.Context, b *stream.Batch) error {
	l := logger.WithBatch(s.logger, b.ID)
	started := time.Now()

	if s.opts.Catalog.Promote() {
		l.Info("Promoted refreshed modifier catalog", zap.Int("templates", s.opts.Catalog.Current().Templates))
	}
	matcher := s.opts.Catalog.Current()

	result, err := s.opts.Pipeline.Run(ctx, b.Stashes)
	if err != nil {
		return err
	}

	ext := matcher.ExtractBatch(distinctItems(result))
	for _, mm := range ext.Mismatches {
		l.Warn("Affix matches no modifier template",
			zap.String("item_id", mm.ItemID),
			zap.String("scope", mm.Scope.String()),
			zap.String("text", mm.Text),
		)
	}
	for _, f := range ext.OutOfBounds {
		l.Warn("Roll outside template range, clamped",
			zap.String("item_id", f.ItemID),
			zap.Int("modifier_id", f.ModifierID),
			zap.Int("position", f.Position),
			zap.Float64("raw", *f.Raw),
			zap.String("text", f.Text),
		)
	}

	rows := output.Assemble(result, ext)
	if err := s.opts.Writer.Enqueue(ctx, b.ID, rows); err != nil {
		return fmt.Errorf("failed to enqueue batch output: %w", err)
	}

	if err := s.opts.Cursors.Save(ctx, b.Cursor); err != nil {
		return fmt.Errorf("failed to commit cursor: %w", err)
	}

	s.opts.Metrics.Batches.Inc()
	s.opts.Metrics.CursorCommits.Inc()
	s.opts.Metrics.Facts.Add(float64(len(ext.Facts)))
	s.opts.Metrics.CatalogMismatches.Add(float64(len(ext.Mismatches)))
	s.opts.Metrics.OutOfBounds.Add(float64(len(ext.OutOfBounds)))
	s.opts.Metrics.BatchDuration.Observe(time.Since(started).Seconds())

	s.status.update(func(st *Status) {
		st.CommittedCursor = b.Cursor
		st.LastBatchID = b.ID
		st.LastBatchAt = time.Now().UTC()
		st.Batches++
		st.Pages += int64(b.Pages)
		st.Items += int64(b.Items)
		st.Listings += int64(len(rows.Items))
		st.Facts += int64(len(ext.Facts))
		st.Mismatches += int64(len(ext.Mismatches))
		st.OutOfBounds += int64(len(ext.OutOfBounds))
	})

	l.Info("Batch committed",
		zap.String("cursor", b.Cursor),
		zap.Int("pages", b.Pages),
		zap.Int("items", b.Items),
		zap.Int("listings", len(rows.Items)),
		zap.Int("facts", len(ext.Facts)),
		zap.Duration("took", time.Since(started)),
	)
	return nil
}

// distinctItems lists each detected listing snapshot once, even when several variants
// matched it. The same item under a different note is a separate snapshot.
func distinctItems(result *detector.Result) []modifier.ItemAffixes {
	seen := make(map[string]bool)
	var out []modifier.ItemAffixes
	for _, v := range result.Variants {
		for _, l := range v.Listings {
			key := l.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			aff := modifier.AffixesOf(l.Item)
			aff.Fingerprint = key
			out = append(out, aff)
		}
	}
	return out
}

func (s *Service) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.RefreshEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Failures are logged by the catalog; the current snapshot stays
			_ = s.opts.Catalog.Refresh(ctx)
		}
	}
}
