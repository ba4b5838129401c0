package feed

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RateLimitRule is one window of a rate limit rule reported by the feed,
// e.g. "45:60:120" (max hits : period seconds : penalty seconds).
type RateLimitRule struct {
	Name          string
	MaxHits       int
	Period        time.Duration
	Penalty       time.Duration
	Hits          int
	ActivePenalty time.Duration
}

// RateLimitHint is the rate limit state reported with a response.
type RateLimitHint struct {
	Policy     string
	Rules      []RateLimitRule
	RetryAfter time.Duration
}

// Interval is the smallest spacing between requests that stays within every rule.
func (h RateLimitHint) Interval() time.Duration {
	var worst time.Duration
	for _, r := range h.Rules {
		if r.MaxHits <= 0 {
			continue
		}
		if iv := r.Period / time.Duration(r.MaxHits); iv > worst {
			worst = iv
		}
	}
	return worst
}

// Penalty is the longest active penalty across rules or the Retry-After header.
func (h RateLimitHint) Penalty() time.Duration {
	p := h.RetryAfter
	for _, r := range h.Rules {
		if r.ActivePenalty > p {
			p = r.ActivePenalty
		}
	}
	return p
}

// parseRateLimit reads the X-Rate-Limit-* and Retry-After headers.
func parseRateLimit(h http.Header) RateLimitHint {
	hint := RateLimitHint{
		Policy:     h.Get("X-Rate-Limit-Policy"),
		RetryAfter: parseRetryAfter(h.Get("Retry-After")),
	}

	for _, name := range splitList(h.Get("X-Rate-Limit-Rules")) {
		limits := splitList(h.Get("X-Rate-Limit-" + name))
		states := splitList(h.Get("X-Rate-Limit-" + name + "-State"))
		for i, l := range limits {
			parts := strings.Split(l, ":")
			if len(parts) != 3 {
				continue
			}
			rule := RateLimitRule{
				Name:    name,
				MaxHits: atoi(parts[0]),
				Period:  seconds(parts[1]),
				Penalty: seconds(parts[2]),
			}
			if i < len(states) {
				if sp := strings.Split(states[i], ":"); len(sp) == 3 {
					rule.Hits = atoi(sp[0])
					rule.ActivePenalty = seconds(sp[2])
				}
			}
			hint.Rules = append(hint.Rules, rule)
		}
	}
	return hint
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func seconds(s string) time.Duration {
	return time.Duration(atoi(s)) * time.Second
}
