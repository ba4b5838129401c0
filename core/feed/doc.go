// Package feed implements the client for the public stash feed.
//
// The feed is an append-only stream of stash tab snapshots addressed by an opaque
// cursor (next_change_id). Each request returns one page and the cursor of the next
// one; the next cursor advances even when a page carries no stashes.
//
// # Fetching
//
// Client.FetchPage performs one logical fetch:
//   - Requests are paced through a golang.org/x/time/rate limiter. Rate limit
//     headers reported by the feed tighten the limiter, never loosen it past the
//     configured rate.
//   - 429, 5xx and network failures are retried with exponential backoff
//     (cenkalti/backoff) and the same cursor. Retry-After overrides the computed delay.
//   - 401/403 invalidates the token and retries once. A second rejection is
//     ErrAuthExpired.
//   - Any other 4xx is permanent.
//
// # Decoding
//
// Stashes and items are decoded one by one. A record that does not decode is
// reported in Page.Malformed and skipped; the rest of the page is kept.
//
// # Authentication
//
// The bearer token comes from a TokenSource. A static token or the OAuth client
// credentials grant (golang.org/x/oauth2/clientcredentials) are supported.
//
// # Usage
//
//	client, err := feed.NewClient(cfg.Feed, nil, log, m)
//	page, err := client.FetchPage(ctx, cursor)
//	next := page.NextCursor
package feed
