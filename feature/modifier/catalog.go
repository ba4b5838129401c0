package modifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"stash-ingest/core/metrics"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrEmptyCatalog is returned when the catalog holds no usable template.
var ErrEmptyCatalog = errors.New("modifier catalog is empty")

// Loader fetches the catalog rows.
type Loader interface {
	Load(ctx context.Context) ([]Template, error)
}

// HTTPLoader reads the catalog from the storage service.
type HTTPLoader struct {
	url         string
	client      *http.Client
	maxAttempts uint
}

// NewHTTPLoader creates a loader for <baseURL><cfg.Path>.
func NewHTTPLoader(baseURL string, cfg Config) *HTTPLoader {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	attempts := uint(3)
	if cfg.MaxAttempts > 0 {
		attempts = uint(cfg.MaxAttempts)
	}
	path := cfg.Path
	if path == "" {
		path = "/modifier/"
	}
	return &HTTPLoader{
		url:         strings.TrimRight(baseURL, "/") + path,
		client:      &http.Client{Timeout: timeout},
		maxAttempts: attempts,
	}
}

func (l *HTTPLoader) Load(ctx context.Context) ([]Template, error) {
	return backoff.Retry(ctx, func() ([]Template, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := l.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			err := fmt.Errorf("catalog request returned %d: %s", resp.StatusCode, b)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}

		var rows []Template
		if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
			return nil, fmt.Errorf("failed to decode catalog: %w", err)
		}
		return rows, nil
	}, backoff.WithMaxTries(l.maxAttempts))
}

// StaticLoader serves a fixed catalog.
type StaticLoader []Template

func (s StaticLoader) Load(context.Context) ([]Template, error) {
	return append([]Template(nil), s...), nil
}

// Catalog holds the compiled matcher used by the ingestion loop.
//
// Refresh compiles a new snapshot off the hot path into a pending slot; Promote swaps
// it in between batches. A batch reads Current once and uses that snapshot throughout.
type Catalog struct {
	loader  Loader
	logger  *zap.Logger
	metrics *metrics.Metrics

	current atomic.Pointer[Matcher]
	pending atomic.Pointer[Matcher]
	group   singleflight.Group

	mu      sync.Mutex
	lastErr error
}

// NewCatalog creates an empty catalog. Init must succeed before Current is used.
func NewCatalog(loader Loader, logger *zap.Logger, m *metrics.Metrics) *Catalog {
	return &Catalog{loader: loader, logger: logger, metrics: m}
}

// Init loads and installs the first snapshot. An empty or unreachable catalog is fatal.
func (c *Catalog) Init(ctx context.Context) error {
	m, err := c.build(ctx)
	if err != nil {
		return err
	}
	c.install(m)
	return nil
}

// Refresh compiles a new snapshot into the pending slot. Concurrent calls share one
// build. On failure the current snapshot stays in use.
func (c *Catalog) Refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("refresh", func() (any, error) {
		m, err := c.build(ctx)
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		if err != nil {
			c.logger.Warn("Catalog refresh failed, keeping current snapshot", zap.Error(err))
			return nil, err
		}
		c.pending.Store(m)
		c.logger.Info("Catalog snapshot prepared",
			zap.Int("templates", m.Templates),
			zap.Int("static", m.Static()),
			zap.Int("dynamic", m.Dynamic()),
		)
		return nil, nil
	})
	return err
}

// Promote installs the pending snapshot, if any. Call only between batches.
func (c *Catalog) Promote() bool {
	m := c.pending.Swap(nil)
	if m == nil {
		return false
	}
	c.install(m)
	return true
}

// Current returns the snapshot in use.
func (c *Catalog) Current() *Matcher {
	return c.current.Load()
}

// LastError returns the error of the last refresh.
func (c *Catalog) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Catalog) install(m *Matcher) {
	c.current.Store(m)
	c.metrics.CatalogTemplates.Set(float64(m.Templates))
}

func (c *Catalog) build(ctx context.Context) (*Matcher, error) {
	rows, err := c.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load modifier catalog: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyCatalog
	}

	m, errs := Compile(rows)
	for _, e := range errs {
		c.logger.Warn("Skipping modifier template", zap.Error(e))
	}
	if m.Empty() {
		return nil, ErrEmptyCatalog
	}
	return m, nil
}
