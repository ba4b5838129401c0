package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stash-ingest/core/metrics"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const (
	KindItem     = "item"
	KindModifier = "itemModifier"
)

// rejectedError is a 4xx answer: the chunk holds a record the service refuses.
type rejectedError struct {
	status int
	body   string
}

func (e *rejectedError) Error() string {
	return fmt.Sprintf("storage rejected chunk with %d: %s", e.status, e.body)
}

// Report counts the rows of one Write by outcome.
type Report struct {
	Written  int
	Rejected int
	Spooled  int
	Lost     int
}

func (r *Report) add(o Report) {
	r.Written += o.Written
	r.Rejected += o.Rejected
	r.Spooled += o.Spooled
	r.Lost += o.Lost
}

// Sink posts rows to the storage service.
type Sink struct {
	cfg     Config
	http    *http.Client
	spool   Spool
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewSink creates a sink. spool may be nil, in which case undeliverable chunks are dropped.
func NewSink(cfg Config, spool Spool, logger *zap.Logger, m *metrics.Metrics) *Sink {
	return &Sink{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.timeout()},
		spool:   spool,
		logger:  logger,
		metrics: m,
	}
}

// Write posts item rows, then modifier rows, in chunks.
//
// A chunk failing with a transient error is retried with backoff and spooled when
// retries are exhausted. A chunk rejected with 4xx is split in halves until the
// offending records are isolated; those are logged and dropped, the rest is written.
func (s *Sink) Write(ctx context.Context, rows Rows) (Report, error) {
	var report Report

	items, err := encodeRows(rows.Items)
	if err != nil {
		return report, err
	}
	mods, err := encodeRows(rows.Modifiers)
	if err != nil {
		return report, err
	}

	for _, part := range []struct {
		kind string
		path string
		rows []json.RawMessage
	}{
		{KindItem, s.cfg.ItemPath, items},
		{KindModifier, s.cfg.ModifierPath, mods},
	} {
		r, err := s.writeKind(ctx, part.kind, part.path, part.rows)
		report.add(r)
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

func (s *Sink) writeKind(ctx context.Context, kind, path string, rows []json.RawMessage) (Report, error) {
	var report Report
	size := s.cfg.chunkSize()
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		r, err := s.writeChunk(ctx, kind, path, rows[start:end])
		report.add(r)
		if err != nil {
			return report, err
		}
	}

	s.metrics.OutputRows.WithLabelValues(kind, "written").Add(float64(report.Written))
	s.metrics.OutputRows.WithLabelValues(kind, "rejected").Add(float64(report.Rejected))
	s.metrics.OutputRows.WithLabelValues(kind, "spooled").Add(float64(report.Spooled))
	s.metrics.OutputRows.WithLabelValues(kind, "lost").Add(float64(report.Lost))
	return report, nil
}

func (s *Sink) writeChunk(ctx context.Context, kind, path string, chunk []json.RawMessage) (Report, error) {
	payload := joinRows(chunk)
	err := s.postWithRetry(ctx, path, payload)
	if err == nil {
		return Report{Written: len(chunk)}, nil
	}
	if ctx.Err() != nil {
		return Report{}, ctx.Err()
	}

	var rej *rejectedError
	if errors.As(err, &rej) {
		if len(chunk) == 1 {
			s.logger.Warn("Storage rejected record, dropping it",
				zap.String("kind", kind),
				zap.Int("status", rej.status),
				zap.String("body", rej.body),
				zap.ByteString("record", chunk[0]),
			)
			return Report{Rejected: 1}, nil
		}
		mid := len(chunk) / 2
		left, err := s.writeChunk(ctx, kind, path, chunk[:mid])
		if err != nil {
			return left, err
		}
		right, err := s.writeChunk(ctx, kind, path, chunk[mid:])
		left.add(right)
		return left, err
	}

	if s.spool == nil {
		s.logger.Error("Storage unavailable, chunk lost", zap.String("kind", kind), zap.Int("rows", len(chunk)), zap.Error(err))
		return Report{Lost: len(chunk)}, nil
	}
	key, serr := s.spool.Put(ctx, kind, payload)
	if serr != nil {
		s.logger.Error("Storage unavailable and spool failed, chunk lost",
			zap.String("kind", kind), zap.Int("rows", len(chunk)), zap.Error(err), zap.NamedError("spool_error", serr))
		return Report{Lost: len(chunk)}, nil
	}
	s.logger.Warn("Storage unavailable, chunk spooled",
		zap.String("kind", kind), zap.Int("rows", len(chunk)), zap.String("key", key), zap.Error(err))
	return Report{Spooled: len(chunk)}, nil
}

func (s *Sink) postWithRetry(ctx context.Context, path string, payload []byte) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.cfg.backoffInitial()
	eb.MaxInterval = s.cfg.backoffMax()

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := s.post(ctx, path, payload)
		var rej *rejectedError
		if errors.As(err, &rej) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(s.cfg.maxAttempts()),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.logger.Debug("Storage request failed, retrying", zap.String("path", path), zap.Duration("retry_in", next), zap.Error(err))
		}),
	)
	return err
}

func (s *Sink) post(ctx context.Context, path string, payload []byte) error {
	url := strings.TrimRight(s.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return &rejectedError{status: resp.StatusCode, body: string(b)}
	}
	return fmt.Errorf("storage returned %d: %s", resp.StatusCode, b)
}

func encodeRows[T any](rows []T) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, len(rows))
	for i := range rows {
		b, err := json.Marshal(rows[i])
		if err != nil {
			return nil, fmt.Errorf("failed to encode row: %w", err)
		}
		out[i] = b
	}
	return out, nil
}

func joinRows(rows []json.RawMessage) []byte {
	var b bytes.Buffer
	b.WriteByte('[')
	for i, r := range rows {
		if i > 0 {
			b.WriteByte(',')
		}
		b.Write(r)
	}
	b.WriteByte(']')
	return b.Bytes()
}
