package ingest

import (
	"sync"
	"time"
)

// Status is a snapshot of the ingestion progress.
type Status struct {
	Running          bool      `json:"running"`
	StartedAt        time.Time `json:"startedAt"`
	StartCursor      string    `json:"startCursor"`
	CommittedCursor  string    `json:"committedCursor"`
	LastBatchID      string    `json:"lastBatchId"`
	LastBatchAt      time.Time `json:"lastBatchAt"`
	Batches          int64     `json:"batches"`
	Pages            int64     `json:"pages"`
	Items            int64     `json:"items"`
	Listings         int64     `json:"listings"`
	Facts            int64     `json:"facts"`
	Mismatches       int64     `json:"mismatches"`
	OutOfBounds      int64     `json:"outOfBounds"`
	CatalogTemplates int       `json:"catalogTemplates"`
	CatalogBuiltAt   time.Time `json:"catalogBuiltAt"`
	PendingWrites    int64     `json:"pendingWrites"`
	LastError        string    `json:"lastError,omitempty"`
}

type tracker struct {
	mu sync.RWMutex
	s  Status
}

func (t *tracker) update(fn func(*Status)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.s)
}

func (t *tracker) snapshot() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.s
}
