package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/prometheus"
)

// HealthChecker is a dependency checked by /readyz.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// Optional marks c as non-critical: its failure is reported but leaves the
// service ready.  Used for object storage, which only exports depend on.
func Optional(c HealthChecker) HealthChecker { return optionalChecker{c} }

type optionalChecker struct{ HealthChecker }

// Check results.
const (
	StatusUp       = "up"
	StatusDown     = "down"
	StatusReady    = "ready"
	StatusDegraded = "degraded"
	StatusNotReady = "not_ready"
)

const readinessTimeout = 5 * time.Second

// HealthHandler serves /healthz and /readyz.
type HealthHandler struct {
	checkers []HealthChecker
	version  string
	started  time.Time
	metrics  *prometheus.AppMetrics
}

// NewHealthHandler creates a HealthHandler over checkers.
func NewHealthHandler(version string, metrics *prometheus.AppMetrics, checkers ...HealthChecker) *HealthHandler {
	if metrics == nil {
		metrics = prometheus.NewNoopAppMetrics()
	}
	return &HealthHandler{checkers: checkers, version: version, started: time.Now(), metrics: metrics}
}

// LivenessResponse is the /healthz body.
type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the /readyz body.
type ReadinessResponse struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version"`
	Components map[string]ComponentStatus `json:"components"`
}

// ComponentStatus is the outcome of one check.
type ComponentStatus struct {
	Status   string `json:"status"`
	Optional bool   `json:"optional,omitempty"`
	Latency  string `json:"latency"`
	Error    string `json:"error,omitempty"`
}

// Liveness answers 200 while the process runs.  Dependencies are not checked.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{
		Status:  StatusUp,
		Version: h.version,
		Uptime:  time.Since(h.started).Truncate(time.Second).String(),
	})
}

// Readiness checks every dependency concurrently.  A critical failure
// answers 503 not_ready; an optional failure answers 200 degraded.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	resp := ReadinessResponse{Status: StatusReady, Version: h.version, Components: h.checkAll(ctx)}
	code := http.StatusOK
	for _, c := range resp.Components {
		if c.Status == StatusUp {
			continue
		}
		if !c.Optional {
			resp.Status, code = StatusNotReady, http.StatusServiceUnavailable
			break
		}
		resp.Status = StatusDegraded
	}
	writeJSON(w, code, resp)
}

func (h *HealthHandler) checkAll(ctx context.Context) map[string]ComponentStatus {
	var (
		mu  sync.Mutex
		g   errgroup.Group
		out = make(map[string]ComponentStatus, len(h.checkers))
	)
	for _, c := range h.checkers {
		c := c
		g.Go(func() error {
			_, optional := c.(optionalChecker)
			start := time.Now()
			err := c.Check(ctx)
			st := ComponentStatus{
				Status:   StatusUp,
				Optional: optional,
				Latency:  time.Since(start).Truncate(time.Microsecond).String(),
			}
			up := 1.0
			if err != nil {
				st.Status, st.Error, up = StatusDown, err.Error(), 0
			}
			h.metrics.HealthCheckStatus.WithLabelValues(c.Name()).Set(up)

			mu.Lock()
			out[c.Name()] = st
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

//Personal.AI order the ending
