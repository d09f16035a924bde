package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yumzoom/yumzoom/internal/application/analytics"
	domain "github.com/yumzoom/yumzoom/internal/domain/analytics"
	"github.com/yumzoom/yumzoom/internal/domain/family"
	"github.com/yumzoom/yumzoom/internal/domain/rating"
	"github.com/yumzoom/yumzoom/internal/interfaces/http/middleware"
	"github.com/yumzoom/yumzoom/internal/testutil"
	"github.com/yumzoom/yumzoom/pkg/types/common"
)

var handlerNow = time.Date(2024, 3, 31, 18, 0, 0, 0, time.UTC)

func handlerRecord(id, restaurant, cuisine string, value int, member string) rating.Record {
	return rating.Record{
		Rating: rating.Rating{
			ID: id, Value: value, UserID: "user-1", FamilyMemberID: member,
			CreatedAt: handlerNow.Add(-time.Hour),
		},
		MenuItemName:   "Dish " + id,
		Price:          10,
		RestaurantID:   restaurant,
		RestaurantName: "Place " + restaurant,
		CuisineType:    cuisine,
	}
}

func handlerRecords() []rating.Record {
	return []rating.Record{
		handlerRecord("r1", "A", "Italian", 8, "m1"),
		handlerRecord("r2", "A", "Italian", 10, "m2"),
		handlerRecord("r3", "B", "Thai", 6, "m1"),
	}
}

type analyticsFixture struct {
	ratings *testutil.MockRatingRepository
	members *testutil.MockFamilyRepository
	handler *AnalyticsHandler
}

func newAnalyticsFixture(store analytics.ExportStore) *analyticsFixture {
	f := &analyticsFixture{
		ratings: new(testutil.MockRatingRepository),
		members: new(testutil.MockFamilyRepository),
	}
	svc := analytics.NewService(f.ratings, f.members, nil,
		analytics.WithClock(func() time.Time { return handlerNow }))
	exporter := analytics.NewExporter(svc, store, time.Minute, nil, nil)
	f.handler = NewAnalyticsHandler(svc, exporter, testutil.NewMockLogger())
	return f
}

func (f *analyticsFixture) expectFamily() {
	members := []family.Member{
		{ID: "m1", UserID: "user-1", Name: "Ana", Relationship: family.RelationshipParent},
		{ID: "m2", UserID: "user-1", Name: "Leo", Relationship: family.RelationshipChild},
	}
	split := domain.SplitByMember(handlerRecords())
	f.ratings.On("ListByUser", mock.Anything, "user-1", mock.Anything, mock.Anything).Return(handlerRecords(), nil)
	f.members.On("ListByUser", mock.Anything, "user-1").Return(members, nil)
	f.members.On("CountByUser", mock.Anything, "user-1").Return(len(members), nil)
	for _, m := range members {
		f.ratings.On("ListByMember", mock.Anything, "user-1", m.ID, mock.Anything, mock.Anything).
			Return(split[m.ID], nil)
	}
}

func serve(h http.HandlerFunc, target, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if userID != "" {
		req = req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) common.ErrorResponse {
	t.Helper()
	var resp common.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAnalyticsHandler_RequiresUser(t *testing.T) {
	f := newAnalyticsFixture(nil)
	for _, h := range []http.HandlerFunc{
		f.handler.GetDashboard, f.handler.GetInsights, f.handler.GetPopularRestaurants,
		f.handler.GetCuisinePreferences, f.handler.GetMemberActivity, f.handler.Export,
	} {
		w := serve(h, "/analytics", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, w).Error.Code)
	}
	f.ratings.AssertNotCalled(t, "ListByUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyticsHandler_GetInsights(t *testing.T) {
	f := newAnalyticsFixture(nil)
	f.expectFamily()

	w := serve(f.handler.GetInsights, "/analytics/insights?range=week", "user-1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp common.APIResponse[domain.FamilyInsights]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 8.0, resp.Data.AverageFamilyRating)
	assert.Equal(t, 2, resp.Data.TotalRestaurants)
	assert.Equal(t, 3, resp.Data.TotalRatings)
	assert.Nil(t, resp.Pagination)
}

func TestAnalyticsHandler_GetPopularRestaurants(t *testing.T) {
	f := newAnalyticsFixture(nil)
	f.expectFamily()

	w := serve(f.handler.GetPopularRestaurants, "/analytics/popular-restaurants?limit=1", "user-1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp common.APIResponse[[]domain.PopularRestaurant]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "A", resp.Data[0].RestaurantID)
	assert.Equal(t, 2, resp.Data[0].VisitFrequency)
	assert.Equal(t, 9.0, resp.Data[0].AverageRating)
}

func TestAnalyticsHandler_InvalidLimit(t *testing.T) {
	f := newAnalyticsFixture(nil)
	w := serve(f.handler.GetPopularRestaurants, "/analytics/popular-restaurants?limit=-3", "user-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BAD_REQUEST", decodeError(t, w).Error.Code)
}

func TestAnalyticsHandler_GetCuisinePreferences(t *testing.T) {
	f := newAnalyticsFixture(nil)
	f.expectFamily()

	w := serve(f.handler.GetCuisinePreferences, "/analytics/cuisine-preferences", "user-1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp common.APIResponse[[]domain.CuisinePreference]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "Italian", resp.Data[0].CuisineType)
	assert.Equal(t, 66.7, resp.Data[0].Percentage)
	assert.Equal(t, 33.3, resp.Data[1].Percentage)
}

func TestAnalyticsHandler_GetMemberActivity_Paginated(t *testing.T) {
	f := newAnalyticsFixture(nil)
	f.expectFamily()

	w := serve(f.handler.GetMemberActivity, "/analytics/member-activity?page=2&page_size=1", "user-1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp common.APIResponse[[]domain.MemberActivity]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, 2, resp.Pagination.Page)
	assert.Equal(t, 2, resp.Pagination.Total)
	assert.Equal(t, 2, resp.Pagination.TotalPages)
	assert.Equal(t, "m2", resp.Data[0].MemberID)
	f.ratings.AssertNotCalled(t, "ListByMember", mock.Anything, "user-1", "m1", mock.Anything, mock.Anything)
}

func TestAnalyticsHandler_GetMemberActivity_SingleMember(t *testing.T) {
	f := newAnalyticsFixture(nil)
	f.expectFamily()

	w := serve(f.handler.GetMemberActivity, "/analytics/member-activity?member_id=m1", "user-1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp common.APIResponse[[]domain.MemberActivity]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "m1", resp.Data[0].MemberID)
	assert.Equal(t, 2, resp.Data[0].RatingCount)
	assert.Equal(t, 1, resp.Pagination.Total)
}

func TestAnalyticsHandler_GetMemberActivity_UnknownMember(t *testing.T) {
	f := newAnalyticsFixture(nil)
	f.expectFamily()

	w := serve(f.handler.GetMemberActivity, "/analytics/member-activity?member_id=m9", "user-1")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "MEMBER_NOT_FOUND", decodeError(t, w).Error.Code)
}

func TestAnalyticsHandler_RejectsInvalidParameters(t *testing.T) {
	f := newAnalyticsFixture(nil)
	for _, target := range []string{
		"/analytics/member-activity?page=0",
		"/analytics/member-activity?page=two",
		"/analytics/member-activity?page_size=-5",
		"/analytics/member-activity?member_id=",
		"/analytics/member-activity?member_id=%20",
		"/analytics/cuisine-preferences?compare=maybe",
	} {
		w := serve(f.handler.GetMemberActivity, target, "user-1")
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.Equal(t, "BAD_REQUEST", decodeError(t, w).Error.Code, target)
	}
	f.members.AssertNotCalled(t, "ListByUser", mock.Anything, mock.Anything)
	f.ratings.AssertNotCalled(t, "ListByUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyticsHandler_CompareLoadsPreviousWindow(t *testing.T) {
	f := newAnalyticsFixture(nil)
	f.expectFamily()

	w := serve(f.handler.GetCuisinePreferences, "/analytics/cuisine-preferences?range=week&compare=true", "user-1")
	require.Equal(t, http.StatusOK, w.Code)

	current := domain.ResolveWindow("week", handlerNow)
	prev := current.Previous()
	f.ratings.AssertCalled(t, "ListByUser", mock.Anything, "user-1", current.Start, current.End)
	f.ratings.AssertCalled(t, "ListByUser", mock.Anything, "user-1", prev.Start, prev.End)

	w = serve(f.handler.GetCuisinePreferences, "/analytics/cuisine-preferences?range=week&compare=false", "user-1")
	require.Equal(t, http.StatusOK, w.Code)
	f.ratings.AssertNumberOfCalls(t, "ListByUser", 3)
}

func TestAnalyticsHandler_LoadFailureIsGeneric(t *testing.T) {
	f := newAnalyticsFixture(nil)
	f.ratings.On("ListByUser", mock.Anything, "user-1", mock.Anything, mock.Anything).
		Return(nil, stderrors.New("connection refused"))
	f.members.On("ListByUser", mock.Anything, "user-1").Return([]family.Member{}, nil)

	w := serve(f.handler.GetDashboard, "/analytics/dashboard", "user-1")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	resp := decodeError(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "ANALYTICS_UNAVAILABLE", resp.Error.Code)
	assert.Equal(t, analytics.LoadFailedMessage, resp.Error.Message)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestAnalyticsHandler_GetDashboard(t *testing.T) {
	f := newAnalyticsFixture(nil)
	f.expectFamily()

	w := serve(f.handler.GetDashboard, "/analytics/dashboard?range=bogus", "user-1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp common.APIResponse[domain.Dashboard]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.RangeMonth, resp.Data.Window.Range)
	assert.Len(t, resp.Data.MemberActivity, 2)
	assert.Len(t, resp.Data.PopularRestaurants, 2)
}

func TestAnalyticsHandler_ExportInline(t *testing.T) {
	f := newAnalyticsFixture(nil)
	f.expectFamily()

	w := serve(f.handler.Export, "/analytics/export?format=csv", "user-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), `attachment; filename="family-analytics-month-`))
	assert.Contains(t, w.Body.String(), "restaurant_id,restaurant_name")
}

func TestAnalyticsHandler_ExportUnsupportedFormat(t *testing.T) {
	f := newAnalyticsFixture(nil)
	w := serve(f.handler.Export, "/analytics/export?format=pdf", "user-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "EXPORT_FORMAT_UNSUPPORTED", decodeError(t, w).Error.Code)
}

type stubExportStore struct {
	keys []string
}

func (s *stubExportStore) Put(_ context.Context, key, _ string, _ []byte) error {
	s.keys = append(s.keys, key)
	return nil
}

func (s *stubExportStore) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://exports.example.com/" + key, nil
}

func TestAnalyticsHandler_ExportPresigned(t *testing.T) {
	store := &stubExportStore{}
	f := newAnalyticsFixture(store)
	f.expectFamily()

	w := serve(f.handler.Export, "/analytics/export?format=json", "user-1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp common.APIResponse[analytics.ExportResult]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, store.keys, 1)
	assert.Equal(t, analytics.FormatJSON, resp.Data.Format)
	assert.Equal(t, "https://exports.example.com/"+store.keys[0], resp.Data.URL)
	assert.NotNil(t, resp.Data.ExpiresAt)
}

func TestAnalyticsHandler_ExportDisabled(t *testing.T) {
	h := NewAnalyticsHandler(nil, nil, nil)
	w := serve(h.Export, "/analytics/export", "user-1")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

//Personal.AI order the ending
