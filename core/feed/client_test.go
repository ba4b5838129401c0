package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"stash-ingest/core/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const samplePage = `{
  "next_change_id": "2-2",
  "stashes": [
    {"id": "s1", "accountName": "acc", "stash": "~b/o 5 chaos", "public": true, "league": "Standard",
     "items": [
       {"id": "i1", "name": "Tabula Rasa", "baseType": "Simple Robe", "rarity": "Unique", "identified": true, "ilvl": 70},
       {"id": 42}
     ]},
    {"id": 7},
    {"id": "s2", "accountName": null, "public": false, "league": null, "items": []}
  ]
}`

func testConfig(url string) Config {
	return Config{
		URL:                  url,
		CursorParam:          "id",
		UserAgent:            "OAuth stash-ingest/1.0 (contact: test@example.com)",
		Token:                "static-token",
		RequestsPerSecond:    0,
		MaxAttempts:          4,
		BackoffInitialMillis: 1,
		BackoffMaxMillis:     5,
		MaxElapsedSeconds:    5,
		TimeoutSeconds:       5,
	}
}

func newTestClient(t *testing.T, cfg Config, tokens TokenSource) (*Client, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	c, err := NewClient(cfg, tokens, zap.NewNop(), m)
	require.NoError(t, err)
	return c, m
}

// countingToken counts invalidations and hands out a new token after each one.
type countingToken struct {
	invalidated atomic.Int32
}

func (c *countingToken) Token(context.Context) (string, error) {
	if c.invalidated.Load() == 0 {
		return "old", nil
	}
	return "fresh", nil
}

func (c *countingToken) Invalidate() { c.invalidated.Add(1) }

func TestFetchPage(t *testing.T) {
	t.Run("DecodesAndSkipsMalformed", func(t *testing.T) {
		var gotQuery, gotAuth, gotAgent string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("id")
			gotAuth = r.Header.Get("Authorization")
			gotAgent = r.Header.Get("User-Agent")
			_, _ = w.Write([]byte(samplePage))
		}))
		defer srv.Close()

		c, m := newTestClient(t, testConfig(srv.URL), nil)
		page, err := c.FetchPage(context.Background(), "1-1")
		require.NoError(t, err)

		assert.Equal(t, "1-1", gotQuery)
		assert.Equal(t, "Bearer static-token", gotAuth)
		assert.Contains(t, gotAgent, "stash-ingest")

		assert.Equal(t, "1-1", page.Cursor)
		assert.Equal(t, "2-2", page.NextCursor)
		require.Len(t, page.Stashes, 2)
		assert.Equal(t, "s1", page.Stashes[0].ID)
		require.Len(t, page.Stashes[0].Items, 1)
		assert.Equal(t, "Tabula Rasa", page.Stashes[0].Items[0].Name)
		assert.Equal(t, "", page.Stashes[1].AccountName)
		assert.Len(t, page.Malformed, 2)
		assert.Equal(t, 1, page.Items())

		assert.Equal(t, float64(1), testutil.ToFloat64(m.PagesFetched))
		assert.Equal(t, float64(2), testutil.ToFloat64(m.RecordsSkipped))
	})

	t.Run("EmptyCursorOmitsParam", func(t *testing.T) {
		var hasID bool
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, hasID = r.URL.Query()["id"]
			_, _ = w.Write([]byte(`{"next_change_id":"0-1","stashes":[]}`))
		}))
		defer srv.Close()

		c, _ := newTestClient(t, testConfig(srv.URL), nil)
		page, err := c.FetchPage(context.Background(), "")
		require.NoError(t, err)
		assert.False(t, hasID)
		assert.Equal(t, "0-1", page.NextCursor)
		assert.Empty(t, page.Stashes)
	})

	t.Run("RetriesTransientWithSameCursor", func(t *testing.T) {
		var calls atomic.Int32
		var cursors []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cursors = append(cursors, r.URL.Query().Get("id"))
			switch calls.Add(1) {
			case 1:
				w.WriteHeader(http.StatusServiceUnavailable)
			case 2:
				w.WriteHeader(http.StatusTooManyRequests)
			case 3:
				_, _ = w.Write([]byte(`{"stashes":[`))
			default:
				_, _ = w.Write([]byte(`{"next_change_id":"9-9","stashes":[]}`))
			}
		}))
		defer srv.Close()

		c, m := newTestClient(t, testConfig(srv.URL), nil)
		page, err := c.FetchPage(context.Background(), "5-5")
		require.NoError(t, err)
		assert.Equal(t, "9-9", page.NextCursor)
		assert.Equal(t, []string{"5-5", "5-5", "5-5", "5-5"}, cursors)
		assert.Equal(t, float64(1), testutil.ToFloat64(m.FetchRetries.WithLabelValues("server_error")))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.FetchRetries.WithLabelValues("rate_limited")))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.FetchRetries.WithLabelValues("decode")))
	})

	t.Run("ExhaustedRetriesReturnTransientError", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c, _ := newTestClient(t, testConfig(srv.URL), nil)
		_, err := c.FetchPage(context.Background(), "1")
		require.Error(t, err)

		var te *TransientError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, http.StatusBadGateway, te.StatusCode)
		assert.Equal(t, int32(4), calls.Load())
	})

	t.Run("RefreshesTokenOnce", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer fresh" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"next_change_id":"2","stashes":[]}`))
		}))
		defer srv.Close()

		tokens := &countingToken{}
		c, _ := newTestClient(t, testConfig(srv.URL), tokens)
		page, err := c.FetchPage(context.Background(), "1")
		require.NoError(t, err)
		assert.Equal(t, "2", page.NextCursor)
		assert.Equal(t, int32(1), tokens.invalidated.Load())
	})

	t.Run("SecondAuthFailureIsAuthExpired", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		tokens := &countingToken{}
		c, _ := newTestClient(t, testConfig(srv.URL), tokens)
		_, err := c.FetchPage(context.Background(), "1")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAuthExpired)
		assert.Equal(t, int32(2), calls.Load())
		assert.Equal(t, int32(1), tokens.invalidated.Load())
	})

	t.Run("OtherClientErrorIsPermanent", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("invalid id"))
		}))
		defer srv.Close()

		c, _ := newTestClient(t, testConfig(srv.URL), nil)
		_, err := c.FetchPage(context.Background(), "bogus")
		require.Error(t, err)

		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusBadRequest, se.StatusCode)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("CancelledContext", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		c, _ := newTestClient(t, testConfig(srv.URL), nil)
		_, err := c.FetchPage(ctx, "1")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFetchPageTooLarge(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"next_change_id":"1-1","stashes":[],"pad":"`))
		_, _ = w.Write(make([]byte, 1<<20))
		_, _ = w.Write([]byte(`"}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxResponseMB = 1
	c, _ := newTestClient(t, cfg, nil)

	_, err := c.FetchPage(context.Background(), "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPageTooLarge)
	var te *TransientError
	assert.False(t, errors.As(err, &te))
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryAfterSeconds(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want int
	}{
		{"SubSecond", 200 * time.Millisecond, 1},
		{"Zero", 0, 1},
		{"Whole", 3 * time.Second, 3},
		{"RoundsUp", 2100 * time.Millisecond, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryAfterSeconds(tt.in))
		})
	}
}

func TestAdaptTightensOnly(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.RequestsPerSecond = 2
	c, _ := newTestClient(t, cfg, nil)

	c.adapt(RateLimitHint{Rules: []RateLimitRule{{MaxHits: 1, Period: 4e9}}})
	assert.InDelta(t, 0.25, float64(c.limiter.Limit()), 1e-9)

	c.adapt(RateLimitHint{Rules: []RateLimitRule{{MaxHits: 100, Period: 1e9}}})
	assert.InDelta(t, 2, float64(c.limiter.Limit()), 1e-9)
}

func TestNewClientValidation(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.UserAgent = ""
	_, err := NewClient(cfg, nil, zap.NewNop(), metrics.New())
	assert.ErrorIs(t, err, ErrConfig)
}
