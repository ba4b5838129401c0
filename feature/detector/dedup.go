package detector

import (
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint identifies one listing snapshot: the volatile item id and its price note.
// A changed note on the same item yields a new fingerprint.
func Fingerprint(itemID, note string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(itemID)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(note)
	return d.Sum64()
}

// Key is the hex fingerprint of the listing snapshot, as written to storage.
func (l Listing) Key() string {
	return strconv.FormatUint(Fingerprint(l.Item.ID, l.Note), 16)
}

// Window is a bounded set of recently seen fingerprints.
// It holds the current batch and the last N rotated batches; older ones are evicted.
type Window struct {
	mu          sync.Mutex
	generations int
	prior       []map[uint64]struct{}
	current     map[uint64]struct{}
}

// NewWindow creates a window remembering generations prior batches (at least one).
func NewWindow(generations int) *Window {
	if generations < 1 {
		generations = 1
	}
	return &Window{
		generations: generations,
		current:     make(map[uint64]struct{}),
	}
}

// Filter drops listings whose fingerprint is in a retained window or already occurred
// in the current batch. Every fingerprint, kept or dropped, joins the current window.
func (w *Window) Filter(listings []Listing) ([]Listing, int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]Listing, 0, len(listings))
	dropped := 0
	for _, l := range listings {
		fp := Fingerprint(l.Item.ID, l.Note)
		if w.seen(fp) {
			dropped++
			w.current[fp] = struct{}{}
			continue
		}
		w.current[fp] = struct{}{}
		out = append(out, l)
	}
	return out, dropped
}

func (w *Window) seen(fp uint64) bool {
	if _, ok := w.current[fp]; ok {
		return true
	}
	for _, g := range w.prior {
		if _, ok := g[fp]; ok {
			return true
		}
	}
	return false
}

// Rotate closes the current window and evicts generations beyond the retention.
func (w *Window) Rotate() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.prior = append(w.prior, w.current)
	if len(w.prior) > w.generations {
		w.prior = w.prior[len(w.prior)-w.generations:]
	}
	w.current = make(map[uint64]struct{})
}

// Len returns the number of distinct fingerprints retained.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	seen := make(map[uint64]struct{}, len(w.current))
	for fp := range w.current {
		seen[fp] = struct{}{}
	}
	for _, g := range w.prior {
		for fp := range g {
			seen[fp] = struct{}{}
		}
	}
	return len(seen)
}
