package client

import (
	"context"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/yumzoom/yumzoom/pkg/types/common"
)

// Range selects the analytics window.
type Range string

const (
	RangeWeek    Range = "week"
	RangeMonth   Range = "month"
	RangeQuarter Range = "quarter"
	RangeYear    Range = "year"
)

// Trend is a period-over-period direction.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// Query narrows an analytics request.  Zero values use the server defaults.
type Query struct {
	Range Range
	Limit int
	// Compare asks for trends against the previous window.
	Compare bool
	// MemberID narrows MemberActivity to one family member.
	MemberID string
}

func (q Query) values() url.Values {
	v := url.Values{}
	if q.Range != "" {
		v.Set("range", string(q.Range))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Compare {
		v.Set("compare", "true")
	}
	if q.MemberID != "" {
		v.Set("member_id", q.MemberID)
	}
	return v
}

// Window is the time span a view covers.
type Window struct {
	Range Range     `json:"range"`
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// Insights are the family's headline numbers.
type Insights struct {
	TotalRestaurants    int       `json:"total_restaurants"`
	TotalRatings        int       `json:"total_ratings"`
	AverageFamilyRating float64   `json:"average_family_rating"`
	EstimatedSpending   float64   `json:"estimated_spending"`
	TotalFamilyMembers  int       `json:"total_family_members"`
	ActiveMembers       int       `json:"active_members"`
	PeriodStart         time.Time `json:"period_start"`
	PeriodEnd           time.Time `json:"period_end"`
}

// PopularRestaurant is one entry of the most visited list.
type PopularRestaurant struct {
	RestaurantID   string    `json:"restaurant_id"`
	RestaurantName string    `json:"restaurant_name"`
	CuisineType    string    `json:"cuisine_type"`
	VisitFrequency int       `json:"visit_frequency"`
	AverageRating  float64   `json:"average_rating"`
	LastVisit      time.Time `json:"last_visit"`
	TotalRatings   int       `json:"total_ratings"`
}

// CuisinePreference is one cuisine's share of the family's ratings.
type CuisinePreference struct {
	CuisineType   string  `json:"cuisine_type"`
	RatingCount   int     `json:"rating_count"`
	AverageRating float64 `json:"average_rating"`
	Percentage    float64 `json:"percentage"`
	Trend         Trend   `json:"trend"`
}

// MemberActivity summarises one family member.
type MemberActivity struct {
	MemberID           string    `json:"member_id"`
	MemberName         string    `json:"member_name"`
	Relationship       string    `json:"relationship"`
	RatingCount        int       `json:"rating_count"`
	AverageRating      float64   `json:"average_rating"`
	MostRecentActivity time.Time `json:"most_recent_activity"`
	FavoriteRestaurant string    `json:"favorite_restaurant"`
	FavoriteCuisine    string    `json:"favorite_cuisine"`
	EngagementTrend    Trend     `json:"engagement_trend"`
}

// Dashboard combines every view.
type Dashboard struct {
	Window             Window              `json:"window"`
	Insights           Insights            `json:"insights"`
	PopularRestaurants []PopularRestaurant `json:"popular_restaurants"`
	CuisinePreferences []CuisinePreference `json:"cuisine_preferences"`
	MemberActivity     []MemberActivity    `json:"member_activity"`
}

// MemberPage is one page of member activity.
type MemberPage struct {
	Items      []MemberActivity
	Pagination common.Pagination
}

// Usage is the quota state of the client's key.
type Usage struct {
	ApplicationID  string    `json:"application_id"`
	Allowed        bool      `json:"allowed"`
	HourLimit      int       `json:"hour_limit"`
	HourUsed       int64     `json:"hour_used"`
	HourRemaining  int64     `json:"hour_remaining"`
	DayLimit       int       `json:"day_limit"`
	DayUsed        int64     `json:"day_used"`
	DayRemaining   int64     `json:"day_remaining"`
	ExceededPeriod string    `json:"exceeded_period,omitempty"`
	ResetAt        time.Time `json:"reset_at"`
}

// Export is a rendered dashboard.  Data is set for inline exports, URL for
// exports stored server side.
type Export struct {
	FileName    string     `json:"file_name"`
	Format      string     `json:"format"`
	ContentType string     `json:"content_type"`
	Size        int        `json:"size"`
	URL         string     `json:"url,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Data        []byte     `json:"-"`
}

// AnalyticsClient reads the family analytics of the key's owner.
type AnalyticsClient struct {
	client *Client
}

// Dashboard returns every view in one call.
func (a *AnalyticsClient) Dashboard(ctx context.Context, q Query) (*Dashboard, error) {
	var resp common.APIResponse[*Dashboard]
	if err := a.client.get(ctx, "/analytics/dashboard", q.values(), &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Insights returns the headline numbers.
func (a *AnalyticsClient) Insights(ctx context.Context, q Query) (*Insights, error) {
	var resp common.APIResponse[*Insights]
	if err := a.client.get(ctx, "/analytics/insights", q.values(), &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// PopularRestaurants returns the most visited restaurants.
func (a *AnalyticsClient) PopularRestaurants(ctx context.Context, q Query) ([]PopularRestaurant, error) {
	var resp common.APIResponse[[]PopularRestaurant]
	if err := a.client.get(ctx, "/analytics/popular-restaurants", q.values(), &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CuisinePreferences returns the cuisine distribution.
func (a *AnalyticsClient) CuisinePreferences(ctx context.Context, q Query) ([]CuisinePreference, error) {
	var resp common.APIResponse[[]CuisinePreference]
	if err := a.client.get(ctx, "/analytics/cuisine-preferences", q.values(), &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// MemberActivity returns one page of per-member activity.  Non-positive
// page and pageSize use the server defaults.
func (a *AnalyticsClient) MemberActivity(ctx context.Context, q Query, page, pageSize int) (*MemberPage, error) {
	v := q.values()
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		v.Set("page_size", strconv.Itoa(pageSize))
	}
	var resp common.APIResponse[[]MemberActivity]
	if err := a.client.get(ctx, "/analytics/member-activity", v, &resp); err != nil {
		return nil, err
	}
	out := &MemberPage{Items: resp.Data}
	if resp.Pagination != nil {
		out.Pagination = *resp.Pagination
	}
	return out, nil
}

// Export renders the dashboard as format ("csv" or "json").
func (a *AnalyticsClient) Export(ctx context.Context, q Query, format string) (*Export, error) {
	v := q.values()
	if format != "" {
		v.Set("format", format)
	}
	resp, err := a.client.do(ctx, http.MethodGet, "/analytics/export", v, "*/*")
	if err != nil {
		return nil, err
	}

	if disposition := resp.header.Get("Content-Disposition"); disposition != "" {
		out := &Export{
			Format:      format,
			ContentType: resp.header.Get("Content-Type"),
			Size:        len(resp.body),
			Data:        resp.body,
		}
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			out.FileName = params["filename"]
		}
		return out, nil
	}

	var stored common.APIResponse[*Export]
	if err := decode(resp.body, &stored); err != nil {
		return nil, err
	}
	return stored.Data, nil
}

//Personal.AI order the ending
