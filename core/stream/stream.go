package stream

import (
	"context"
	"errors"
	"sync"
	"time"

	"stash-ingest/core/feed"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrClosed is returned by Consume once the producer stopped and every page was drained.
var ErrClosed = errors.New("stream: closed")

// Fetcher fetches one page of the feed.
type Fetcher interface {
	FetchPage(ctx context.Context, cursor string) (*feed.Page, error)
}

// Batch is a contiguous run of pages drained together.
type Batch struct {
	// ID correlates log entries of the batch.
	ID string
	// Stashes in upstream delivery order.
	Stashes []feed.Stash
	// Pages is the number of pages drained.
	Pages int
	// Items is the number of items across stashes.
	Items int
	// StartCursor is the cursor of the first page.
	StartCursor string
	// Cursor is the next cursor after the last page. Committing it resumes after this batch.
	Cursor string
}

// Consumer turns the page stream into batches.
// One producer goroutine walks the cursor chain; one consumer drains batches.
type Consumer struct {
	cfg     Config
	fetcher Fetcher
	logger  *zap.Logger

	pages chan *feed.Page

	mu  sync.Mutex
	err error
}

// NewConsumer creates a consumer.
func NewConsumer(cfg Config, fetcher Fetcher, logger *zap.Logger) *Consumer {
	return &Consumer{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  logger,
		pages:   make(chan *feed.Page, cfg.buffer()),
	}
}

// Produce fetches pages starting at cursor until ctx is done or a fetch fails
// permanently. It closes the page channel on return and must be called once.
func (c *Consumer) Produce(ctx context.Context, cursor string) {
	defer close(c.pages)

	for {
		if ctx.Err() != nil {
			return
		}

		page, err := c.fetcher.FetchPage(ctx, cursor)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Feed producer stopped", zap.String("cursor", cursor), zap.Error(err))
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
			return
		}

		select {
		case c.pages <- page:
		case <-ctx.Done():
			return
		}
		cursor = page.NextCursor
	}
}

// Err returns the error that stopped the producer, if any.
func (c *Consumer) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Consume blocks until a batch is ready and returns it.
//
// A batch closes when CheckpointPages pages or CheckpointItems items are buffered,
// or when MaxStalenessSeconds elapsed since its first page arrived. Once the producer
// stopped, the partial batch is returned first, then the producer error or ErrClosed.
func (c *Consumer) Consume(ctx context.Context) (*Batch, error) {
	var b *Batch
	var stale <-chan time.Time

	for {
		page, ok, err := c.next(ctx, stale)
		if err != nil {
			return nil, err
		}
		if !ok {
			if b != nil {
				return b, nil
			}
			if perr := c.Err(); perr != nil {
				return nil, perr
			}
			return nil, ErrClosed
		}
		if page == nil {
			// staleness deadline
			return b, nil
		}

		if b == nil {
			b = &Batch{ID: uuid.NewString(), StartCursor: page.Cursor}
			timer := time.NewTimer(c.cfg.staleness())
			defer timer.Stop()
			stale = timer.C
		}
		b.Stashes = append(b.Stashes, page.Stashes...)
		b.Pages++
		b.Items += page.Items()
		b.Cursor = page.NextCursor

		if c.full(b) {
			return b, nil
		}
	}
}

// next returns the next page, (nil, true) on staleness, or ok=false after close.
func (c *Consumer) next(ctx context.Context, stale <-chan time.Time) (*feed.Page, bool, error) {
	select {
	case page, ok := <-c.pages:
		return page, ok, nil
	case <-stale:
		return nil, true, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (c *Consumer) full(b *Batch) bool {
	if c.cfg.CheckpointPages > 0 && b.Pages >= c.cfg.CheckpointPages {
		return true
	}
	if c.cfg.CheckpointItems > 0 && b.Items >= c.cfg.CheckpointItems {
		return true
	}
	return false
}
