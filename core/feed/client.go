package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sync"
	"time"

	"stash-ingest/core/metrics"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client fetches pages of the public stash feed.
// It owns token refresh, request pacing and retry; it never persists the cursor.
type Client struct {
	cfg     Config
	http    *http.Client
	tokens  TokenSource
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	limiter   *rate.Limiter
	baseLimit rate.Limit
}

// NewClient creates a feed client. When tokens is nil the source is built from cfg.
func NewClient(cfg Config, tokens TokenSource, logger *zap.Logger, m *metrics.Metrics) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout: cfg.timeout(),
		Transport: &userAgentTransport{
			agent: cfg.UserAgent,
			base:  http.DefaultTransport,
		},
	}
	if tokens == nil {
		tokens = NewTokenSource(cfg, httpClient)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		cfg:       cfg,
		http:      httpClient,
		tokens:    tokens,
		logger:    logger,
		metrics:   m,
		limiter:   rate.NewLimiter(limit, 1),
		baseLimit: limit,
	}, nil
}

// FetchPage fetches the page at cursor. An empty cursor starts at the feed head.
//
// Transient failures are retried with exponential backoff using the same cursor.
// A 401/403 triggers one token refresh and an immediate retry; a second rejection
// returns ErrAuthExpired.
func (c *Client) FetchPage(ctx context.Context, cursor string) (*Page, error) {
	refreshed := false

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.cfg.backoffInitial()
	eb.MaxInterval = c.cfg.backoffMax()

	page, err := backoff.Retry(ctx, func() (*Page, error) {
		return c.attempt(ctx, cursor, &refreshed)
	},
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(c.cfg.maxAttempts()),
		backoff.WithMaxElapsedTime(c.cfg.maxElapsed()),
		backoff.WithNotify(func(err error, next time.Duration) {
			reason := "other"
			var te *TransientError
			if errors.As(err, &te) {
				reason = te.reason()
			}
			c.metrics.FetchRetries.WithLabelValues(reason).Inc()
			c.logger.Warn("Feed request failed, retrying",
				zap.String("cursor", cursor),
				zap.String("reason", reason),
				zap.Duration("retry_in", next),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("feed: fetch page %q: %w", cursor, err)
	}

	c.metrics.PagesFetched.Inc()
	for _, m := range page.Malformed {
		c.metrics.RecordsSkipped.Inc()
		c.logger.Warn("Skipping malformed feed record",
			zap.String("cursor", cursor),
			zap.String("stash_id", m.StashID),
			zap.String("item_id", m.ItemID),
			zap.Error(m.Err),
		)
	}
	return page, nil
}

// attempt performs one logical attempt, including the single auth refresh.
func (c *Client) attempt(ctx context.Context, cursor string, refreshed *bool) (*Page, error) {
	for {
		if err := c.wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}

		page, err := c.fetchOnce(ctx, cursor)
		if err == nil {
			return page, nil
		}

		var se *StatusError
		if errors.As(err, &se) && se.isAuth() {
			if *refreshed {
				return nil, backoff.Permanent(fmt.Errorf("%w: %v", ErrAuthExpired, se))
			}
			*refreshed = true
			c.tokens.Invalidate()
			c.logger.Info("Feed rejected token, refreshing", zap.Int("status", se.StatusCode))
			continue
		}

		var te *TransientError
		if errors.As(err, &te) {
			if te.RetryAfter > 0 {
				// Retry-After replaces the computed backoff delay
				return nil, errors.Join(te, backoff.RetryAfter(retryAfterSeconds(te.RetryAfter)))
			}
			return nil, te
		}
		return nil, backoff.Permanent(err)
	}
}

// retryAfterSeconds rounds a penalty up to whole seconds, never below one.
func retryAfterSeconds(d time.Duration) int {
	return max(1, int(math.Ceil(d.Seconds())))
}

func (c *Client) wait(ctx context.Context) error {
	c.mu.Lock()
	lim := c.limiter
	c.mu.Unlock()
	return lim.Wait(ctx)
}

// fetchOnce issues a single HTTP request.
func (c *Client) fetchOnce(ctx context.Context, cursor string) (*Page, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(cursor), nil)
	if err != nil {
		return nil, fmt.Errorf("feed: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	hint := parseRateLimit(resp.Header)
	c.adapt(hint)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		limit := c.cfg.maxResponseBytes()
		body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &TransientError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
		}
		if int64(len(body)) > limit {
			return nil, fmt.Errorf("%w (%d MB)", ErrPageTooLarge, limit>>20)
		}
		page, err := decodePage(body)
		if err != nil {
			// A truncated or garbled page is refetched with the same cursor
			return nil, &TransientError{StatusCode: resp.StatusCode, Err: err}
		}
		page.Cursor = cursor
		page.RateLimit = hint
		return page, nil

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &TransientError{
			StatusCode: resp.StatusCode,
			RetryAfter: hint.Penalty(),
			Err:        errors.New(readSnippet(resp.Body)),
		}

	default:
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: readSnippet(resp.Body)}
	}
}

func (c *Client) pageURL(cursor string) string {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return c.cfg.URL
	}
	q := u.Query()
	if c.cfg.Query != "" {
		q.Set("query", c.cfg.Query)
	}
	if cursor != "" {
		param := c.cfg.CursorParam
		if param == "" {
			param = "id"
		}
		q.Set(param, cursor)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// adapt slows the limiter down to the pace the feed reports, never above the configured rate.
func (c *Client) adapt(h RateLimitHint) {
	iv := h.Interval()
	if iv <= 0 {
		return
	}
	target := rate.Every(iv)
	if target > c.baseLimit {
		target = c.baseLimit
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.limiter.Limit() != target {
		c.limiter.SetLimit(target)
		c.logger.Debug("Adjusted feed request rate",
			zap.Float64("requests_per_second", float64(target)),
			zap.String("policy", h.Policy),
		)
	}
}

// decodePage decodes a page, skipping stashes and items that do not decode.
func decodePage(body []byte) (*Page, error) {
	var raw rawPage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	if raw.NextChangeID == nil {
		return nil, errors.New("decode page: next_change_id missing")
	}

	page := &Page{
		NextCursor: *raw.NextChangeID,
		Stashes:    make([]Stash, 0, len(raw.Stashes)),
	}

	for _, rs := range raw.Stashes {
		var s rawStash
		if err := json.Unmarshal(rs, &s); err != nil {
			page.Malformed = append(page.Malformed, &MalformedRecordError{Err: err})
			continue
		}
		if s.ID == "" {
			page.Malformed = append(page.Malformed, &MalformedRecordError{Err: errors.New("stash without id")})
			continue
		}

		stash := Stash{
			ID:     s.ID,
			Name:   s.Name,
			Type:   s.Type,
			Public: s.Public,
		}
		if s.AccountName != nil {
			stash.AccountName = *s.AccountName
		}
		if s.League != nil {
			stash.League = *s.League
		}

		stash.Items = make([]Item, 0, len(s.Items))
		for _, ri := range s.Items {
			var item Item
			if err := json.Unmarshal(ri, &item); err != nil {
				page.Malformed = append(page.Malformed, &MalformedRecordError{StashID: s.ID, Err: err})
				continue
			}
			if item.ID == "" {
				page.Malformed = append(page.Malformed, &MalformedRecordError{StashID: s.ID, Err: errors.New("item without id")})
				continue
			}
			stash.Items = append(stash.Items, item)
		}
		page.Stashes = append(page.Stashes, stash)
	}

	return page, nil
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return string(b)
}
