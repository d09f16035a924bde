package analytics

import (
	"math"
	"time"
)

// DefaultPopularLimit is the number of restaurants kept by RankPopular.
const DefaultPopularLimit = 10

// EpochZero is reported as the most recent activity of a member with no
// ratings in the window.
var EpochZero = time.Unix(0, 0).UTC()

// Trend describes the direction of a metric against the previous period.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// FamilyInsights summarises a family's ratings in a window.
type FamilyInsights struct {
	TotalRestaurants    int       `json:"total_restaurants"`
	TotalRatings        int       `json:"total_ratings"`
	AverageFamilyRating float64   `json:"average_family_rating"`
	EstimatedSpending   float64   `json:"estimated_spending"`
	TotalFamilyMembers  int       `json:"total_family_members"`
	ActiveMembers       int       `json:"active_members"`
	PeriodStart         time.Time `json:"period_start"`
	PeriodEnd           time.Time `json:"period_end"`
}

// PopularRestaurant is one row of the popularity ranking.  VisitFrequency
// counts ratings, not deduplicated visits.
type PopularRestaurant struct {
	RestaurantID   string    `json:"restaurant_id"`
	RestaurantName string    `json:"restaurant_name"`
	CuisineType    string    `json:"cuisine_type"`
	VisitFrequency int       `json:"visit_frequency"`
	AverageRating  float64   `json:"average_rating"`
	LastVisit      time.Time `json:"last_visit"`
	TotalRatings   int       `json:"total_ratings"`
}

// CuisinePreference is the family's share of ratings for one cuisine.
type CuisinePreference struct {
	CuisineType   string  `json:"cuisine_type"`
	RatingCount   int     `json:"rating_count"`
	AverageRating float64 `json:"average_rating"`
	Percentage    float64 `json:"percentage"`
	Trend         Trend   `json:"trend"`
}

// MemberActivity summarises one member's ratings in a window.
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

// Dashboard bundles every view for one window.
type Dashboard struct {
	Window             Window              `json:"window"`
	Insights           FamilyInsights      `json:"insights"`
	PopularRestaurants []PopularRestaurant `json:"popular_restaurants"`
	CuisinePreferences []CuisinePreference `json:"cuisine_preferences"`
	MemberActivity     []MemberActivity    `json:"member_activity"`
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

//Personal.AI order the ending
