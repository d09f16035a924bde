// Package client is the Go SDK for the YumZoom public API.  Every call is
// authenticated with an API key and counts against that key's hourly and
// daily quota; the quota reported by the server is kept on the Client.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/yumzoom/yumzoom/pkg/errors"
	"github.com/yumzoom/yumzoom/pkg/types/common"
)

const Version = "0.1.0"

// DefaultBasePath is where the server mounts the public API.
const DefaultBasePath = "/api/public/v1"

var ErrInvalidConfig = errors.New(errors.ErrCodeValidation, "invalid client configuration")

// Logger receives one line per attempt.  The default discards.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type discard struct{}

func (discard) Debugf(string, ...interface{}) {}
func (discard) Infof(string, ...interface{})  {}
func (discard) Errorf(string, ...interface{}) {}

// RateLimit is the quota of the tighter period as of the last response.
type RateLimit struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	userAgent  string
	logger     Logger

	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	waitOnLimit  bool

	mu        sync.RWMutex
	rateLimit *RateLimit

	analytics *AnalyticsClient
}

// NewClient returns a client for the server at baseURL.  The public API
// base path is appended unless baseURL already ends with it.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if baseURL == "" || apiKey == "" {
		return nil, ErrInvalidConfig
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid baseURL: %v", ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: baseURL scheme must be http or https", ErrInvalidConfig)
	}
	base := strings.TrimSuffix(baseURL, "/")
	if !strings.HasSuffix(base, DefaultBasePath) {
		base += DefaultBasePath
	}

	c := &Client{
		baseURL:      base,
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		userAgent:    "yumzoom-go-sdk/" + Version,
		logger:       discard{},
		retryMax:     3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.analytics = &AnalyticsClient{client: c}
	return c, nil
}

// Analytics returns the family analytics endpoints.
func (c *Client) Analytics() *AnalyticsClient { return c.analytics }

// RateLimit returns a copy of the last reported quota, or nil before the
// first response carrying one.
func (c *Client) RateLimit() *RateLimit {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.rateLimit == nil {
		return nil
	}
	rl := *c.rateLimit
	return &rl
}

// Usage returns the hour and day consumption of the key, including this
// call.
func (c *Client) Usage(ctx context.Context) (*Usage, error) {
	var resp common.APIResponse[*Usage]
	if err := c.get(ctx, "/usage", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

//Personal.AI order the ending
