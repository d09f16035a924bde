package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/yumzoom/yumzoom/pkg/types/common"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int           `json:"status_code"`
	Code       string        `json:"code"`
	Message    string        `json:"message"`
	RequestID  string        `json:"request_id"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yumzoom: %s (HTTP %d): %s [request_id=%s]", e.Code, e.StatusCode, e.Message, e.RequestID)
}

func (e *APIError) IsNotFound() bool     { return e.StatusCode == http.StatusNotFound }
func (e *APIError) IsUnauthorized() bool { return e.StatusCode == http.StatusUnauthorized }
func (e *APIError) IsRateLimited() bool  { return e.StatusCode == http.StatusTooManyRequests }
func (e *APIError) IsServerError() bool  { return e.StatusCode >= 500 && e.StatusCode < 600 }

// newAPIError reads the handler envelope {"success":false,"error":{...}},
// the bare {"code","message"} of the API key gate, or falls back to the
// raw body.
func newAPIError(status int, h http.Header, body []byte, requestID string) *APIError {
	e := &APIError{StatusCode: status, RequestID: requestID}
	if secs, err := strconv.Atoi(h.Get("Retry-After")); err == nil && secs > 0 {
		e.RetryAfter = time.Duration(secs) * time.Second
	}
	if len(body) == 0 {
		return e
	}

	var envelope common.ErrorResponse
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Code != "" {
		e.Code, e.Message = envelope.Error.Code, envelope.Error.Message
		return e
	}
	var bare common.ErrorDetail
	if json.Unmarshal(body, &bare) == nil && bare.Code != "" {
		e.Code, e.Message = bare.Code, bare.Message
		return e
	}
	e.Message = string(bytes.TrimSpace(body))
	return e
}

//Personal.AI order the ending
