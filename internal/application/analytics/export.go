package analytics

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/yumzoom/yumzoom/internal/domain/analytics"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/prometheus"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

// ExportFormat is an output encoding of the dashboard.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// ParseExportFormat validates a format token.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", errors.New(errors.ErrCodeExportFormat, "unsupported export format").WithDetail(s)
	}
}

func (f ExportFormat) contentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv; charset=utf-8"
}

// ExportStore keeps rendered exports and hands out time-limited links.
type ExportStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// ExportResult describes one rendered export.  Data is always populated;
// URL is set only when an ExportStore is configured.
type ExportResult struct {
	FileName    string       `json:"file_name"`
	Format      ExportFormat `json:"format"`
	ContentType string       `json:"content_type"`
	Size        int          `json:"size"`
	Key         string       `json:"key,omitempty"`
	URL         string       `json:"url,omitempty"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
	Data        []byte       `json:"-"`
}

// Exporter renders dashboards to files.
type Exporter struct {
	service Service
	store   ExportStore
	expiry  time.Duration
	logger  logging.Logger
	metrics *prometheus.AppMetrics
	now     func() time.Time
}

// NewExporter creates an Exporter.  store may be nil, in which case exports
// are returned inline only.
func NewExporter(service Service, store ExportStore, expiry time.Duration, logger logging.Logger, metrics *prometheus.AppMetrics) *Exporter {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNoopAppMetrics()
	}
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &Exporter{
		service: service,
		store:   store,
		expiry:  expiry,
		logger:  logger.Named("export"),
		metrics: metrics,
		now:     time.Now,
	}
}

// Export renders the dashboard for q.
func (e *Exporter) Export(ctx context.Context, q Query, format ExportFormat) (*ExportResult, error) {
	res, err := e.export(ctx, q, format)
	status := "success"
	if err != nil {
		status = "failure"
	}
	e.metrics.AnalyticsExportsTotal.WithLabelValues(string(format), status).Inc()
	return res, err
}

func (e *Exporter) export(ctx context.Context, q Query, format ExportFormat) (*ExportResult, error) {
	if q.UserID == "" {
		return nil, errors.Unauthorized("authentication required")
	}
	d, err := e.service.GetDashboard(ctx, q)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(d, "", "  ")
	case FormatCSV:
		data, err = RenderCSV(d)
	default:
		return nil, errors.New(errors.ErrCodeExportFormat, "unsupported export format").WithDetail(string(format))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExportFailed, "failed to render export")
	}

	now := e.now().UTC()
	res := &ExportResult{
		FileName:    fmt.Sprintf("family-analytics-%s-%s.%s", d.Window.Range, now.Format("20060102"), format),
		Format:      format,
		ContentType: format.contentType(),
		Size:        len(data),
		Data:        data,
	}
	if e.store == nil {
		return res, nil
	}

	res.Key = fmt.Sprintf("exports/%s/%s/%s", q.UserID, uuid.NewString(), res.FileName)
	if err := e.store.Put(ctx, res.Key, res.ContentType, data); err != nil {
		e.logger.Error("export upload failed", logging.String("key", res.Key), logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeExportFailed, "failed to store export")
	}
	url, err := e.store.PresignedURL(ctx, res.Key, e.expiry)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExportFailed, "failed to sign export link")
	}
	expires := now.Add(e.expiry)
	res.URL, res.ExpiresAt = url, &expires

	e.logger.Info("export stored",
		logging.String("key", res.Key),
		logging.Int("bytes", res.Size),
		logging.String("format", string(format)))
	return res, nil
}

// RenderCSV writes the dashboard as consecutive CSV tables separated by a
// blank line, each introduced by a header row.
func RenderCSV(d *domain.Dashboard) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	f1 := func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }
	ts := func(t time.Time) string { return t.UTC().Format(time.RFC3339) }

	rows := [][]string{
		{"period_start", "period_end", "total_restaurants", "total_ratings", "average_family_rating", "estimated_spending", "total_family_members", "active_members"},
		{d.Window.StartISO(), d.Window.EndISO(),
			strconv.Itoa(d.Insights.TotalRestaurants), strconv.Itoa(d.Insights.TotalRatings),
			f1(d.Insights.AverageFamilyRating), strconv.FormatFloat(d.Insights.EstimatedSpending, 'f', 2, 64),
			strconv.Itoa(d.Insights.TotalFamilyMembers), strconv.Itoa(d.Insights.ActiveMembers)},
		nil,
		{"restaurant_id", "restaurant_name", "cuisine_type", "visit_frequency", "average_rating", "last_visit"},
	}
	for _, p := range d.PopularRestaurants {
		rows = append(rows, []string{p.RestaurantID, p.RestaurantName, p.CuisineType,
			strconv.Itoa(p.VisitFrequency), f1(p.AverageRating), ts(p.LastVisit)})
	}
	rows = append(rows, nil, []string{"cuisine_type", "rating_count", "average_rating", "percentage", "trend"})
	for _, c := range d.CuisinePreferences {
		rows = append(rows, []string{c.CuisineType, strconv.Itoa(c.RatingCount), f1(c.AverageRating),
			f1(c.Percentage), string(c.Trend)})
	}
	rows = append(rows, nil, []string{"member_id", "member_name", "relationship", "rating_count", "average_rating",
		"most_recent_activity", "favorite_restaurant", "favorite_cuisine", "engagement_trend"})
	for _, m := range d.MemberActivity {
		rows = append(rows, []string{m.MemberID, m.MemberName, m.Relationship, strconv.Itoa(m.RatingCount),
			f1(m.AverageRating), ts(m.MostRecentActivity), m.FavoriteRestaurant, m.FavoriteCuisine,
			string(m.EngagementTrend)})
	}

	for _, row := range rows {
		if row == nil {
			// Blank separator between tables.
			w.Flush()
			buf.WriteString("\n")
			continue
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

//Personal.AI order the ending
