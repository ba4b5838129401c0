package output

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSink struct {
	mu    sync.Mutex
	rows  []Rows
	block chan struct{}
}

func (r *recordingSink) Write(_ context.Context, rows Rows) (Report, error) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, rows)
	return Report{Written: rows.Len()}, nil
}

func TestWriterDrainsOnClose(t *testing.T) {
	sink := &recordingSink{}
	w := NewWriter(sink, 2, zap.NewNop())

	for i := 0; i < 5; i++ {
		require.NoError(t, w.Enqueue(context.Background(), "batch", Rows{Items: itemRows("a", "b")}))
	}
	w.Close()

	assert.Len(t, sink.rows, 5)
	assert.Equal(t, Report{Written: 10}, w.Totals())
	assert.Zero(t, w.Pending())
	assert.ErrorIs(t, w.Enqueue(context.Background(), "late", Rows{}), ErrWriterClosed)

	// Close is idempotent
	w.Close()
}

func TestWriterEnqueueRespectsContext(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	w := NewWriter(sink, 1, zap.NewNop())

	// One job in flight, one queued: the next Enqueue blocks
	require.NoError(t, w.Enqueue(context.Background(), "1", Rows{}))
	require.Eventually(t, func() bool { return len(w.queue) == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, w.Enqueue(context.Background(), "2", Rows{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Enqueue(ctx, "3", Rows{}), context.DeadlineExceeded)
	assert.Equal(t, int64(2), w.Pending())

	close(sink.block)
	w.Close()
	assert.Len(t, sink.rows, 2)
}
