package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenSource provides the bearer token for feed requests.
type TokenSource interface {
	// Token returns a valid access token, fetching one when needed.
	Token(ctx context.Context) (string, error)
	// Invalidate drops the cached token so the next Token call fetches a new one.
	Invalidate()
}

// StaticToken is a fixed bearer token. Invalidate is a no-op.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

func (s StaticToken) Invalidate() {}

// clientCredentials runs the OAuth client credentials grant and caches the token
// until it expires or is invalidated.
type clientCredentials struct {
	conf       *clientcredentials.Config
	httpClient *http.Client

	mu  sync.Mutex
	src oauth2.TokenSource
}

// NewTokenSource returns the token source described by the configuration.
func NewTokenSource(cfg Config, httpClient *http.Client) TokenSource {
	if cfg.Token != "" {
		return StaticToken(cfg.Token)
	}
	var scopes []string
	if cfg.Scope != "" {
		scopes = []string{cfg.Scope}
	}
	return &clientCredentials{
		conf: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       scopes,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient: httpClient,
	}
}

func (c *clientCredentials) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.src == nil {
		// The token source outlives the request that created it
		base := context.WithoutCancel(ctx)
		if c.httpClient != nil {
			base = context.WithValue(base, oauth2.HTTPClient, c.httpClient)
		}
		c.src = c.conf.TokenSource(base)
	}

	tok, err := c.src.Token()
	if err != nil {
		c.src = nil
		return "", classifyTokenError(err)
	}
	return tok.AccessToken, nil
}

func (c *clientCredentials) Invalidate() {
	c.mu.Lock()
	c.src = nil
	c.mu.Unlock()
}

// classifyTokenError separates rejected credentials from token endpoint outages.
func classifyTokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		code := re.Response.StatusCode
		if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
			return fmt.Errorf("%w: token endpoint returned %d: %v", ErrAuthExpired, code, err)
		}
		return &TransientError{StatusCode: code, Err: fmt.Errorf("token endpoint: %w", err)}
	}
	return &TransientError{Err: fmt.Errorf("token endpoint: %w", err)}
}

// userAgentTransport stamps the configured User-Agent on every outgoing request.
type userAgentTransport struct {
	agent string
	base  http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.agent)
	return t.base.RoundTrip(r)
}
