package cursor

import (
	"context"
	"sync"
)

// Store persists the resume cursor. Save is only called after the batch that
// ends at the cursor has been fully processed.
type Store interface {
	// Load returns the last committed cursor, or "" when none was committed.
	Load(ctx context.Context) (string, error)
	// Save commits the cursor.
	Save(ctx context.Context, cursor string) error
}

// Resolve returns the cursor to resume from, falling back to initial when the
// store holds nothing.
func Resolve(ctx context.Context, s Store, initial string) (string, error) {
	c, err := s.Load(ctx)
	if err != nil {
		return "", err
	}
	if c == "" {
		return initial, nil
	}
	return c, nil
}

type override struct {
	Store
	mu    sync.Mutex
	value string
}

// WithOverride makes the first Load return value instead of the stored cursor.
// Saves go to the wrapped store, so the override is consumed once a batch commits.
func WithOverride(s Store, value string) Store {
	if value == "" {
		return s
	}
	return &override{Store: s, value: value}
}

func (o *override) Load(ctx context.Context) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.value != "" {
		return o.value, nil
	}
	return o.Store.Load(ctx)
}

func (o *override) Save(ctx context.Context, cursor string) error {
	if err := o.Store.Save(ctx, cursor); err != nil {
		return err
	}
	o.mu.Lock()
	o.value = ""
	o.mu.Unlock()
	return nil
}

// Memory is an in-process Store.
type Memory struct {
	mu     sync.Mutex
	cursor string
	saves  []string
}

// NewMemory returns a Memory store holding cursor.
func NewMemory(cursor string) *Memory {
	return &Memory{cursor: cursor}
}

func (m *Memory) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor, nil
}

func (m *Memory) Save(_ context.Context, cursor string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursor = cursor
	m.saves = append(m.saves, cursor)
	return nil
}

// Saves returns every committed cursor in order.
func (m *Memory) Saves() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.saves...)
}
