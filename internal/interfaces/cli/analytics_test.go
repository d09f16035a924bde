package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yumzoom/yumzoom/internal/application/analytics"
	domain "github.com/yumzoom/yumzoom/internal/domain/analytics"
	"github.com/yumzoom/yumzoom/internal/domain/family"
	"github.com/yumzoom/yumzoom/internal/domain/rating"
	"github.com/yumzoom/yumzoom/internal/testutil"
)

var cliNow = time.Date(2024, 3, 31, 18, 0, 0, 0, time.UTC)

func cliRecord(id, restaurant, cuisine string, value int, member string) rating.Record {
	return rating.Record{
		Rating: rating.Rating{
			ID: id, Value: value, UserID: "user-1", FamilyMemberID: member,
			CreatedAt: cliNow.Add(-time.Hour),
		},
		Price:          12,
		RestaurantID:   restaurant,
		RestaurantName: "Place " + restaurant,
		CuisineType:    cuisine,
	}
}

func analyticsServices() *Services {
	svc, _ := analyticsServicesWithRatings()
	return svc
}

func analyticsServicesWithRatings() (*Services, *testutil.MockRatingRepository) {
	records := []rating.Record{
		cliRecord("r1", "A", "Italian", 8, "m1"),
		cliRecord("r2", "A", "Italian", 10, "m2"),
		cliRecord("r3", "B", "Thai", 6, "m1"),
	}
	members := []family.Member{
		{ID: "m1", UserID: "user-1", Name: "Ana", Relationship: family.RelationshipParent},
		{ID: "m2", UserID: "user-1", Name: "Leo", Relationship: family.RelationshipChild},
	}
	ratings := new(testutil.MockRatingRepository)
	fam := new(testutil.MockFamilyRepository)
	ratings.On("ListByUser", mock.Anything, "user-1", mock.Anything, mock.Anything).Return(records, nil)
	split := domain.SplitByMember(records)
	for _, m := range members {
		ratings.On("ListByMember", mock.Anything, "user-1", m.ID, mock.Anything, mock.Anything).Return(split[m.ID], nil)
	}
	fam.On("ListByUser", mock.Anything, "user-1").Return(members, nil)
	fam.On("CountByUser", mock.Anything, "user-1").Return(len(members), nil)

	svc := analytics.NewService(ratings, fam, nil, analytics.WithClock(func() time.Time { return cliNow }))
	return &Services{Analytics: svc, Exporter: analytics.NewExporter(svc, nil, 0, nil, nil)}, ratings
}

func TestAnalyticsCmd_RequiresUser(t *testing.T) {
	_, err := runCLI(t, staticFactory(analyticsServices()), "analytics", "insights")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--user is required")
}

func TestAnalyticsCmd_InsightsJSON(t *testing.T) {
	out, err := runCLI(t, staticFactory(analyticsServices()), "analytics", "insights", "-u", "user-1", "-o", "json")
	require.NoError(t, err)

	var in domain.FamilyInsights
	require.NoError(t, json.Unmarshal([]byte(out), &in))
	assert.Equal(t, 8.0, in.AverageFamilyRating)
	assert.Equal(t, 2, in.TotalRestaurants)
}

func TestAnalyticsCmd_PopularTable(t *testing.T) {
	out, err := runCLI(t, staticFactory(analyticsServices()), "analytics", "popular", "-u", "user-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Place A")
	assert.Contains(t, out, "9.0")
}

func TestAnalyticsCmd_Dashboard(t *testing.T) {
	out, err := runCLI(t, staticFactory(analyticsServices()), "analytics", "dashboard", "-u", "user-1", "-r", "week")
	require.NoError(t, err)
	assert.Contains(t, out, "Family analytics (week)")
	assert.Contains(t, out, "Cuisine preferences")
	assert.Contains(t, out, "Italian")
	assert.Contains(t, out, "Ana")
}

func TestAnalyticsCmd_ExportWritesFile(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, staticFactory(analyticsServices()), "analytics", "export", "-u", "user-1", "--format", "json", "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "OK:")

	matches, err := filepath.Glob(filepath.Join(dir, "family-analytics-month-*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"popular_restaurants"`)
}

func TestAnalyticsCmd_RejectsUnknownRange(t *testing.T) {
	_, err := runCLI(t, staticFactory(analyticsServices()), "analytics", "insights", "-u", "user-1", "-r", "fortnight")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--range must be")
}

func TestAnalyticsCmd_CompareQueriesPreviousWindow(t *testing.T) {
	services, ratings := analyticsServicesWithRatings()
	_, err := runCLI(t, staticFactory(services), "analytics", "cuisines", "-u", "user-1", "-r", "week", "--compare", "-o", "json")
	require.NoError(t, err)

	prev := domain.ResolveWindow("week", cliNow).Previous()
	ratings.AssertCalled(t, "ListByUser", mock.Anything, "user-1", prev.Start, prev.End)
}

func TestAnalyticsCmd_MembersSingleMember(t *testing.T) {
	out, err := runCLI(t, staticFactory(analyticsServices()), "analytics", "members", "-u", "user-1", "--member", "m2", "-o", "json")
	require.NoError(t, err)

	var members []domain.MemberActivity
	require.NoError(t, json.Unmarshal([]byte(out), &members))
	require.Len(t, members, 1)
	assert.Equal(t, "Leo", members[0].MemberName)

	_, err = runCLI(t, staticFactory(analyticsServices()), "analytics", "members", "-u", "user-1", "--member", "m9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MEMBER_NOT_FOUND")
}

func TestAnalyticsCmd_NotConfigured(t *testing.T) {
	_, err := runCLI(t, staticFactory(&Services{}), "analytics", "members", "-u", "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analytics is not configured")
}

//Personal.AI order the ending
