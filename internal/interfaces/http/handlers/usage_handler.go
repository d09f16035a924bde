package handlers

import (
	"net/http"

	"github.com/yumzoom/yumzoom/internal/application/ratelimit"
	"github.com/yumzoom/yumzoom/internal/interfaces/http/middleware"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

// UsageHandler reports the calling application's rate limit usage.
type UsageHandler struct {
	limiter ratelimit.Service
}

// NewUsageHandler creates a UsageHandler.
func NewUsageHandler(limiter ratelimit.Service) *UsageHandler {
	return &UsageHandler{limiter: limiter}
}

// GetUsage handles GET /usage.  The request that asks is itself counted, so
// the reported figures include it.
func (h *UsageHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	app := middleware.ContextGetApplication(r.Context())
	if app == nil {
		writeAppError(w, errors.New(errors.ErrCodeMissingAPIKey, "API key is required"))
		return
	}
	d, err := h.limiter.Usage(r.Context(), app)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeSuccess(w, d)
}

//Personal.AI order the ending
