package feed

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds configuration for the public stash feed client.
type Config struct {
	// URL is the feed endpoint.
	URL string `mapstructure:"url" default:"https://api.pathofexile.com/public-stash-tabs"`
	// Query is sent as the "query" parameter when non-empty.
	Query string `mapstructure:"query" default:"{\"stashes\":{\"public\":true}}"`
	// CursorParam is the query parameter carrying the cursor.
	CursorParam string `mapstructure:"cursor_param" default:"id"`
	// InitialCursor is used on cold start when no cursor is persisted.
	InitialCursor string `mapstructure:"initial_cursor" default:""`
	// UserAgent is required by the feed operator and sent on every request.
	UserAgent string `mapstructure:"user_agent" default:""`
	// Token is a static bearer token. When empty, client credentials are used.
	Token string `mapstructure:"token" default:""`
	// TokenURL is the OAuth token endpoint for the client credentials grant.
	TokenURL string `mapstructure:"token_url" default:"https://www.pathofexile.com/oauth/token"`
	// ClientID is the OAuth client id.
	ClientID string `mapstructure:"client_id" default:""`
	// ClientSecret is the OAuth client secret.
	ClientSecret string `mapstructure:"client_secret" default:""`
	// Scope is the OAuth scope requested.
	Scope string `mapstructure:"scope" default:"service:psapi"`
	// RequestsPerSecond caps the request rate. Zero disables pacing.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" default:"1"`
	// MaxAttempts bounds attempts per page, including the first one.
	MaxAttempts int `mapstructure:"max_attempts" default:"6"`
	// BackoffInitialMillis is the first retry delay.
	BackoffInitialMillis int `mapstructure:"backoff_initial_millis" default:"1000"`
	// BackoffMaxMillis caps the retry delay.
	BackoffMaxMillis int `mapstructure:"backoff_max_millis" default:"60000"`
	// MaxElapsedSeconds caps the total time spent retrying one page.
	MaxElapsedSeconds int `mapstructure:"max_elapsed_seconds" default:"600"`
	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"60"`
	// MaxResponseMB caps the size of a decoded page.
	MaxResponseMB int `mapstructure:"max_response_mb" default:"64"`
}

// Validate checks the settings the client cannot run without.
func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("%w: feed url is empty", ErrConfig)
	}
	if _, err := url.Parse(c.URL); err != nil {
		return fmt.Errorf("%w: feed url: %v", ErrConfig, err)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("%w: user agent is required", ErrConfig)
	}
	if c.Token == "" && (c.ClientID == "" || c.ClientSecret == "") {
		return fmt.Errorf("%w: either a token or client credentials are required", ErrConfig)
	}
	return nil
}

func (c Config) maxAttempts() uint {
	if c.MaxAttempts <= 0 {
		return 6
	}
	return uint(c.MaxAttempts)
}

func (c Config) backoffInitial() time.Duration {
	if c.BackoffInitialMillis <= 0 {
		return time.Second
	}
	return time.Duration(c.BackoffInitialMillis) * time.Millisecond
}

func (c Config) backoffMax() time.Duration {
	if c.BackoffMaxMillis <= 0 {
		return time.Minute
	}
	return time.Duration(c.BackoffMaxMillis) * time.Millisecond
}

func (c Config) maxElapsed() time.Duration {
	if c.MaxElapsedSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.MaxElapsedSeconds) * time.Second
}

func (c Config) timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c Config) maxResponseBytes() int64 {
	if c.MaxResponseMB <= 0 {
		return 64 << 20
	}
	return int64(c.MaxResponseMB) << 20
}
