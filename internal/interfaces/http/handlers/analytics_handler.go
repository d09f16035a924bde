package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/yumzoom/yumzoom/internal/application/analytics"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

// AnalyticsHandler serves the family analytics views.  The family owner is
// taken from the request context, so the same handler serves both session
// and API-key routes.
type AnalyticsHandler struct {
	service  analytics.Service
	exporter *analytics.Exporter
	logger   logging.Logger
}

// NewAnalyticsHandler creates an AnalyticsHandler.  exporter may be nil, in
// which case the export route answers 501.
func NewAnalyticsHandler(service analytics.Service, exporter *analytics.Exporter, logger logging.Logger) *AnalyticsHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AnalyticsHandler{service: service, exporter: exporter, logger: logger.Named("analytics_handler")}
}

// query builds the analytics query for r and validates every parameter
// before any data is loaded.  The range token is passed through unvalidated;
// unknown ranges resolve to the default window.
func (h *AnalyticsHandler) query(r *http.Request) (analytics.Query, error) {
	params := r.URL.Query()
	q := analytics.Query{
		UserID: getUserIDFromContext(r),
		Range:  params.Get("range"),
	}
	if q.UserID == "" {
		return q, errors.Unauthorized("authentication required")
	}
	var err error
	if q.Limit, err = positiveParam(params, "limit", 0); err != nil {
		return q, err
	}
	if v := params.Get("compare"); v != "" {
		if q.Compare, err = strconv.ParseBool(v); err != nil {
			return q, errors.InvalidParam("compare must be true or false").WithDetail(v)
		}
	}
	if params.Has("member_id") {
		if q.MemberID = strings.TrimSpace(params.Get("member_id")); q.MemberID == "" {
			return q, errors.InvalidParam("member_id must not be empty")
		}
	}
	if q.Page, q.PageSize, err = parsePagination(r); err != nil {
		return q, err
	}
	return q, nil
}

// GetDashboard handles GET /analytics/dashboard.
func (h *AnalyticsHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	q, err := h.query(r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	d, err := h.service.GetDashboard(r.Context(), q)
	if err != nil {
		h.fail(w, "dashboard", q, err)
		return
	}
	writeSuccess(w, d)
}

// GetInsights handles GET /analytics/insights.
func (h *AnalyticsHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	q, err := h.query(r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	in, err := h.service.GetInsights(r.Context(), q)
	if err != nil {
		h.fail(w, "insights", q, err)
		return
	}
	writeSuccess(w, in)
}

// GetPopularRestaurants handles GET /analytics/popular-restaurants.
func (h *AnalyticsHandler) GetPopularRestaurants(w http.ResponseWriter, r *http.Request) {
	q, err := h.query(r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	list, err := h.service.GetPopularRestaurants(r.Context(), q)
	if err != nil {
		h.fail(w, "popular_restaurants", q, err)
		return
	}
	writeSuccess(w, list)
}

// GetCuisinePreferences handles GET /analytics/cuisine-preferences.
func (h *AnalyticsHandler) GetCuisinePreferences(w http.ResponseWriter, r *http.Request) {
	q, err := h.query(r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	list, err := h.service.GetCuisinePreferences(r.Context(), q)
	if err != nil {
		h.fail(w, "cuisine_preferences", q, err)
		return
	}
	writeSuccess(w, list)
}

// GetMemberActivity handles GET /analytics/member-activity.  The member list
// is paginated with page and page_size; member_id selects a single member.
func (h *AnalyticsHandler) GetMemberActivity(w http.ResponseWriter, r *http.Request) {
	q, err := h.query(r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	page, err := h.service.GetMemberActivity(r.Context(), q)
	if err != nil {
		h.fail(w, "member_activity", q, err)
		return
	}
	writePage(w, page.Members, page.Pagination)
}

// Export handles GET /analytics/export.  With an object store configured the
// response describes a presigned download link; otherwise the file is
// streamed inline as an attachment.
func (h *AnalyticsHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		writeAppError(w, errors.New(errors.ErrCodeNotImplemented, "export is not enabled"))
		return
	}
	q, err := h.query(r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	format, err := analytics.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	res, err := h.exporter.Export(r.Context(), q, format)
	if err != nil {
		h.fail(w, "export", q, err)
		return
	}
	if res.URL != "" {
		writeSuccess(w, res)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.FileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(res.Size))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}

func (h *AnalyticsHandler) fail(w http.ResponseWriter, view string, q analytics.Query, err error) {
	h.logger.Warn("analytics request failed",
		logging.String("view", view),
		logging.String("user_id", q.UserID),
		logging.String("range", q.Range),
		logging.Err(err))
	writeAppError(w, err)
}

//Personal.AI order the ending
