package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yumzoom/yumzoom/pkg/errors"
)

type response struct {
	status int
	header http.Header
	body   []byte
}

// do sends the request, retrying transport failures and 5xx answers with
// exponential backoff.  A 429 is retried only with WithWaitOnRateLimit,
// after the server's Retry-After.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, accept string) (*response, error) {
	target := c.baseURL + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		resp, err := c.send(ctx, method, target, accept)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		wait, retry := c.retryAfter(err, attempt)
		if !retry {
			return nil, lastErr
		}
		c.logger.Debugf("retrying %s %s in %v (attempt %d)", method, path, wait, attempt+1)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// send performs one attempt.  Responses of 400 and above come back as
// *APIError.
func (c *Client) send(ctx context.Context, method, target, accept string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Errorf("%s %s failed: %v", method, req.URL.Path, err)
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	c.logger.Debugf("%s %s %d (%v)", method, req.URL.Path, resp.StatusCode, time.Since(start))
	c.recordRateLimit(resp.Header)

	if resp.StatusCode >= 400 {
		return nil, newAPIError(resp.StatusCode, resp.Header, body, requestID)
	}
	return &response{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

// retryAfter decides whether err after attempt is worth another try and
// how long to wait first.
func (c *Client) retryAfter(err error, attempt int) (time.Duration, bool) {
	if attempt >= c.retryMax {
		return 0, false
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return c.backoff(attempt + 1), true
	}
	switch {
	case apiErr.IsServerError():
		if apiErr.RetryAfter > 0 {
			return apiErr.RetryAfter, true
		}
		return c.backoff(attempt + 1), true
	case apiErr.IsRateLimited():
		ok := c.waitOnLimit && apiErr.RetryAfter > 0 && apiErr.RetryAfter <= c.retryWaitMax
		return apiErr.RetryAfter, ok
	default:
		return 0, false
	}
}

// backoff doubles from retryWaitMin up to retryWaitMax and adds up to a
// quarter of jitter.
func (c *Client) backoff(retry int) time.Duration {
	d := c.retryWaitMin << uint(retry-1)
	if d > c.retryWaitMax || d <= 0 {
		d = c.retryWaitMax
	}
	if q := int64(d / 4); q > 0 {
		d += time.Duration(rand.Int63n(q))
	}
	return d
}

func (c *Client) recordRateLimit(h http.Header) {
	limit, err := strconv.Atoi(h.Get("X-RateLimit-Limit"))
	if err != nil {
		return
	}
	rl := &RateLimit{Limit: limit}
	rl.Remaining, _ = strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	if reset, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		rl.Reset = time.Unix(reset, 0).UTC()
	}
	c.mu.Lock()
	c.rateLimit = rl
	c.mu.Unlock()
}

func (c *Client) get(ctx context.Context, path string, query url.Values, result interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, "application/json")
	if err != nil || result == nil || len(resp.body) == 0 {
		return err
	}
	return decode(resp.body, result)
}

func decode(body []byte, result interface{}) error {
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

//Personal.AI order the ending
