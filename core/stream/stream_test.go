package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"stash-ingest/core/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// chainFetcher serves pages "0" -> "1" -> ... with one stash of n items each.
type chainFetcher struct {
	mu      sync.Mutex
	items   int
	failAt  string
	err     error
	stopAt  string
	cursors []string
}

func (f *chainFetcher) FetchPage(ctx context.Context, cursor string) (*feed.Page, error) {
	f.mu.Lock()
	f.cursors = append(f.cursors, cursor)
	f.mu.Unlock()

	if cursor == f.failAt {
		return nil, f.err
	}
	if cursor == f.stopAt {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	var n int
	fmt.Sscanf(cursor, "%d", &n)
	items := make([]feed.Item, f.items)
	for i := range items {
		items[i] = feed.Item{ID: fmt.Sprintf("%s-%d", cursor, i)}
	}
	return &feed.Page{
		Cursor:     cursor,
		NextCursor: fmt.Sprint(n + 1),
		Stashes:    []feed.Stash{{ID: "stash-" + cursor, Items: items}},
	}, nil
}

func TestConsumePageThreshold(t *testing.T) {
	f := &chainFetcher{items: 1, stopAt: "100"}
	c := NewConsumer(Config{Buffer: 2, CheckpointPages: 3, MaxStalenessSeconds: 60}, f, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Produce(ctx, "0")

	b1, err := c.Consume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, b1.Pages)
	assert.Equal(t, "0", b1.StartCursor)
	assert.Equal(t, "3", b1.Cursor)
	assert.Equal(t, []string{"stash-0", "stash-1", "stash-2"}, []string{b1.Stashes[0].ID, b1.Stashes[1].ID, b1.Stashes[2].ID})

	b2, err := c.Consume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3", b2.StartCursor)
	assert.Equal(t, "6", b2.Cursor)
	assert.NotEqual(t, b1.ID, b2.ID)
}

func TestConsumeItemThreshold(t *testing.T) {
	f := &chainFetcher{items: 4, stopAt: "100"}
	c := NewConsumer(Config{CheckpointPages: 100, CheckpointItems: 10, MaxStalenessSeconds: 60}, f, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Produce(ctx, "0")

	b, err := c.Consume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, b.Pages)
	assert.Equal(t, 12, b.Items)
}

func TestConsumeStaleness(t *testing.T) {
	// The producer blocks after two pages; the batch must close on staleness.
	f := &chainFetcher{items: 1, stopAt: "2"}
	c := NewConsumer(Config{CheckpointPages: 100, MaxStalenessSeconds: 1}, f, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Produce(ctx, "0")

	start := time.Now()
	b, err := c.Consume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, b.Pages)
	assert.Equal(t, "2", b.Cursor)
	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
}

func TestConsumeProducerError(t *testing.T) {
	boom := errors.New("auth expired")
	f := &chainFetcher{items: 1, failAt: "2", err: boom}
	c := NewConsumer(Config{CheckpointPages: 100, MaxStalenessSeconds: 60}, f, zap.NewNop())

	go c.Produce(context.Background(), "0")

	b, err := c.Consume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, b.Pages)
	assert.Equal(t, "2", b.Cursor)

	_, err = c.Consume(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestConsumeAfterShutdown(t *testing.T) {
	f := &chainFetcher{items: 1, stopAt: "1"}
	c := NewConsumer(Config{CheckpointPages: 100, MaxStalenessSeconds: 60}, f, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Produce(ctx, "0")
		close(done)
	}()

	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.cursors) == 2
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	b, err := c.Consume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, b.Pages)
	assert.Equal(t, "1", b.Cursor)

	_, err = c.Consume(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, c.Err())
}

func TestConsumeContextCancelled(t *testing.T) {
	c := NewConsumer(Config{}, &chainFetcher{stopAt: "0"}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Consume(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
