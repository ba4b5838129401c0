package feed

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrAuthExpired is returned when the feed rejects credentials after a token refresh.
var ErrAuthExpired = errors.New("feed: authorization rejected after token refresh")

// ErrPageTooLarge is returned when a page body exceeds max_response_mb.
var ErrPageTooLarge = errors.New("feed: page exceeds max_response_mb")

// ErrConfig reports unusable feed client configuration.
var ErrConfig = errors.New("feed: invalid configuration")

// TransientError is a retryable failure: network errors, 429 and 5xx responses.
// The cursor of the failed request is reused on retry.
type TransientError struct {
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("feed: transient http %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("feed: transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// reason is the metrics label for the failure class.
func (e *TransientError) reason() string {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return "rate_limited"
	case e.StatusCode >= 500:
		return "server_error"
	case e.StatusCode != 0:
		return "decode"
	default:
		return "network"
	}
}

// StatusError is a non-retryable HTTP status returned by the feed.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("feed: http %d: %s", e.StatusCode, e.Body)
}

// isAuth reports whether the status asks for new credentials.
func (e *StatusError) isAuth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// MalformedRecordError describes one stash or item that could not be decoded.
// The record is skipped; the rest of the page is kept.
type MalformedRecordError struct {
	StashID string
	ItemID  string
	Err     error
}

func (e *MalformedRecordError) Error() string {
	if e.ItemID != "" || e.StashID != "" {
		return fmt.Sprintf("feed: malformed record stash=%s item=%s: %v", e.StashID, e.ItemID, e.Err)
	}
	return fmt.Sprintf("feed: malformed record: %v", e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }
