package output

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"stash-ingest/core/logger"

	"go.uber.org/zap"
)

// ErrWriterClosed is returned by Enqueue after Close.
var ErrWriterClosed = errors.New("output writer closed")

// RowWriter writes assembled rows.
type RowWriter interface {
	Write(ctx context.Context, rows Rows) (Report, error)
}

type job struct {
	batchID string
	rows    Rows
}

// Writer decouples storage writes from ingestion: batches are queued and written by
// a background goroutine, so storage retries never hold back the feed.
type Writer struct {
	sink   RowWriter
	logger *zap.Logger
	queue  chan job

	mu     sync.RWMutex
	closed bool
	done   chan struct{}

	pending atomic.Int64
	totals  struct {
		sync.Mutex
		Report
	}
}

// NewWriter starts a writer with a queue of size batches.
func NewWriter(sink RowWriter, size int, log *zap.Logger) *Writer {
	if size <= 0 {
		size = 1
	}
	w := &Writer{
		sink:   sink,
		logger: log,
		queue:  make(chan job, size),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

// Enqueue hands rows to the writer. It blocks while the queue is full.
func (w *Writer) Enqueue(ctx context.Context, batchID string, rows Rows) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrWriterClosed
	}

	w.pending.Add(1)
	select {
	case w.queue <- job{batchID: batchID, rows: rows}:
		return nil
	case <-ctx.Done():
		w.pending.Add(-1)
		return ctx.Err()
	}
}

// Pending returns the number of batches queued or being written.
func (w *Writer) Pending() int64 { return w.pending.Load() }

// Totals returns the accumulated outcome of every written batch.
func (w *Writer) Totals() Report {
	w.totals.Lock()
	defer w.totals.Unlock()
	return w.totals.Report
}

// Close stops accepting batches and waits until the queue is drained.
func (w *Writer) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	<-w.done
}

func (w *Writer) run() {
	defer close(w.done)
	ctx := context.Background()

	for j := range w.queue {
		l := logger.WithBatch(w.logger, j.batchID)
		report, err := w.sink.Write(ctx, j.rows)
		if err != nil {
			l.Error("Batch write failed", zap.Error(err))
		}

		w.totals.Lock()
		w.totals.add(report)
		w.totals.Unlock()
		w.pending.Add(-1)

		l.Info("Batch written",
			zap.Int("written", report.Written),
			zap.Int("rejected", report.Rejected),
			zap.Int("spooled", report.Spooled),
			zap.Int("lost", report.Lost),
		)
	}
}
