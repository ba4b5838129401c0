// Package stream turns the feed's page chain into batches.
//
// The cursor chain is inherently sequential: page N+1 cannot be requested before page
// N returned its next cursor. A single producer goroutine therefore walks the chain and
// pushes pages into a bounded channel; backpressure from the channel pauses fetching
// while the consumer is busy.
//
// Consume drains the channel into a Batch until a page count, item count or staleness
// threshold is reached. Batch.Cursor is the cursor to commit once the batch has been
// processed. Stashes keep the upstream delivery order.
//
// Shutdown: cancelling the Produce context stops fetching between pages and closes the
// channel. Consume (called with a context that is not cancelled) then returns the
// buffered partial batch, followed by the producer error or ErrClosed.
package stream
