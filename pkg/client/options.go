package client

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Option configures a Client at construction.
type Option func(*Client)

// WithHTTPClient replaces the transport.  A nil client is ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each attempt.  The HTTP client is copied so a shared
// client passed to WithHTTPClient is left untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			return
		}
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithLogger routes request tracing to l.  A nil logger is ignored.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRetryMax sets how many times a failed request is repeated.  Negative
// values are ignored; zero disables retries.
func WithRetryMax(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retryMax = n
		}
	}
}

// WithRetryWait sets the backoff bounds.  A max below min is raised to min.
func WithRetryWait(min, max time.Duration) Option {
	return func(c *Client) {
		if min <= 0 {
			return
		}
		if max < min {
			max = min
		}
		c.retryWaitMin, c.retryWaitMax = min, max
	}
}

// WithApplication prefixes the User-Agent with the calling application,
// e.g. "menu-sync/2.0 yumzoom-go-sdk/0.1.0".
func WithApplication(name string) Option {
	return func(c *Client) {
		if name = strings.TrimSpace(name); name != "" {
			c.userAgent = fmt.Sprintf("%s yumzoom-go-sdk/%s", name, Version)
		}
	}
}

// WithWaitOnRateLimit makes the client sleep out a 429 and retry when the
// server's Retry-After fits within the maximum retry wait.
func WithWaitOnRateLimit(enabled bool) Option {
	return func(c *Client) {
		c.waitOnLimit = enabled
	}
}

//Personal.AI order the ending
