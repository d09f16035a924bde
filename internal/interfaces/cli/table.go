package cli

import (
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	domain "github.com/yumzoom/yumzoom/internal/domain/analytics"
)

type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func fmtRating(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }

func fmtTime(t time.Time) string {
	if t.IsZero() || t.Unix() == 0 {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func colorTrend(t domain.Trend) string {
	switch t {
	case domain.TrendIncreasing:
		return color.GreenString(string(t))
	case domain.TrendDecreasing:
		return color.RedString(string(t))
	default:
		return string(t)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Views
// ─────────────────────────────────────────────────────────────────────────────

type insightsTable struct{ in *domain.FamilyInsights }

func (t insightsTable) MarshalJSON() ([]byte, error) { return json.Marshal(t.in) }

func (t insightsTable) TableHeaders() []string {
	return []string{"Restaurants", "Ratings", "Avg Rating", "Est. Spending", "Members", "Active"}
}

func (t insightsTable) TableRows() [][]string {
	if t.in == nil {
		return nil
	}
	return [][]string{{
		strconv.Itoa(t.in.TotalRestaurants),
		strconv.Itoa(t.in.TotalRatings),
		fmtRating(t.in.AverageFamilyRating),
		strconv.FormatFloat(t.in.EstimatedSpending, 'f', 2, 64),
		strconv.Itoa(t.in.TotalFamilyMembers),
		strconv.Itoa(t.in.ActiveMembers),
	}}
}

type popularTable []domain.PopularRestaurant

func (t popularTable) TableHeaders() []string {
	return []string{"Rank", "Restaurant", "Cuisine", "Visits", "Avg Rating", "Last Visit"}
}

func (t popularTable) TableRows() [][]string {
	rows := make([][]string, 0, len(t))
	for i, p := range t {
		rows = append(rows, []string{
			strconv.Itoa(i + 1), p.RestaurantName, p.CuisineType,
			strconv.Itoa(p.VisitFrequency), fmtRating(p.AverageRating), fmtTime(p.LastVisit),
		})
	}
	return rows
}

type cuisineTable []domain.CuisinePreference

func (t cuisineTable) TableHeaders() []string {
	return []string{"Cuisine", "Ratings", "Avg Rating", "Share %", "Trend"}
}

func (t cuisineTable) TableRows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, c := range t {
		rows = append(rows, []string{
			c.CuisineType, strconv.Itoa(c.RatingCount), fmtRating(c.AverageRating),
			fmtRating(c.Percentage), colorTrend(c.Trend),
		})
	}
	return rows
}

type memberTable []domain.MemberActivity

func (t memberTable) TableHeaders() []string {
	return []string{"Member", "Relationship", "Ratings", "Avg Rating", "Last Active", "Favorite Restaurant", "Favorite Cuisine", "Trend"}
}

func (t memberTable) TableRows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, m := range t {
		rows = append(rows, []string{
			m.MemberName, m.Relationship, strconv.Itoa(m.RatingCount), fmtRating(m.AverageRating),
			fmtTime(m.MostRecentActivity), orDash(m.FavoriteRestaurant), orDash(m.FavoriteCuisine),
			colorTrend(m.EngagementTrend),
		})
	}
	return rows
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

//Personal.AI order the ending
