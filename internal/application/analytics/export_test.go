package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domain "github.com/yumzoom/yumzoom/internal/domain/analytics"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

type mockExportStore struct {
	mock.Mock
}

func (m *mockExportStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	return m.Called(ctx, key, contentType, data).Error(0)
}

func (m *mockExportStore) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}

func dashboardFixture() *fixture {
	f := newFixture()
	records := exampleRecords()
	f.ratings.On("ListByUser", mock.Anything, "user-1", mock.Anything, mock.Anything).Return(records, nil)
	f.members.On("ListByUser", mock.Anything, "user-1").Return(familyMembers(), nil)
	f.expectMemberRecords(records)
	return f
}

func TestParseExportFormat(t *testing.T) {
	f, err := ParseExportFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseExportFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseExportFormat("pdf")
	assert.True(t, errors.IsCode(err, errors.ErrCodeExportFormat))
}

func TestExport_CSVInline(t *testing.T) {
	f := dashboardFixture()
	exp := NewExporter(f.svc, nil, 0, nil, nil)
	exp.now = func() time.Time { return testNow }

	res, err := exp.Export(context.Background(), Query{UserID: "user-1", Range: "quarter"}, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "family-analytics-quarter-20240331.csv", res.FileName)
	assert.Equal(t, "text/csv; charset=utf-8", res.ContentType)
	assert.Empty(t, res.URL)
	assert.Nil(t, res.ExpiresAt)

	body := string(res.Data)
	assert.Equal(t, len(res.Data), res.Size)
	assert.Contains(t, body, "restaurant_id,restaurant_name,cuisine_type,visit_frequency,average_rating,last_visit\n")
	assert.Contains(t, body, "A,Trattoria A,Italian,2,9.0,")
	assert.Contains(t, body, "Italian,2,9.0,66.7,stable\n")
	assert.Contains(t, body, "Thai,1,6.0,33.3,stable\n")
	assert.Equal(t, 3, strings.Count(body, "\n\n"))
}

func TestExport_JSONUploadedAndSigned(t *testing.T) {
	f := dashboardFixture()
	store := new(mockExportStore)
	store.On("Put", mock.Anything, mock.MatchedBy(func(k string) bool {
		return strings.HasPrefix(k, "exports/user-1/") && strings.HasSuffix(k, ".json")
	}), "application/json", mock.Anything).Return(nil)
	store.On("PresignedURL", mock.Anything, mock.Anything, 5*time.Minute).
		Return("https://minio.local/yumzoom-exports/x?X-Amz-Signature=abc", nil)

	exp := NewExporter(f.svc, store, 5*time.Minute, nil, nil)
	exp.now = func() time.Time { return testNow }

	res, err := exp.Export(context.Background(), Query{UserID: "user-1"}, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, res.URL, "X-Amz-Signature")
	require.NotNil(t, res.ExpiresAt)
	assert.Equal(t, testNow.Add(5*time.Minute), *res.ExpiresAt)

	var d domain.Dashboard
	require.NoError(t, json.Unmarshal(res.Data, &d))
	assert.Equal(t, 8.0, d.Insights.AverageFamilyRating)
	store.AssertExpectations(t)
}

func TestExport_UploadFailure(t *testing.T) {
	f := dashboardFixture()
	store := new(mockExportStore)
	store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(fmt.Errorf("bucket missing"))

	exp := NewExporter(f.svc, store, time.Minute, nil, nil)
	_, err := exp.Export(context.Background(), Query{UserID: "user-1"}, FormatCSV)
	assert.True(t, errors.IsCode(err, errors.ErrCodeExportFailed))
	store.AssertNotCalled(t, "PresignedURL", mock.Anything, mock.Anything, mock.Anything)
}

func TestExport_RequiresUser(t *testing.T) {
	exp := NewExporter(newFixture().svc, nil, 0, nil, nil)
	_, err := exp.Export(context.Background(), Query{}, FormatCSV)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnauthorized))
}

func TestExport_UnsupportedFormat(t *testing.T) {
	f := dashboardFixture()
	exp := NewExporter(f.svc, nil, 0, nil, nil)
	_, err := exp.Export(context.Background(), Query{UserID: "user-1"}, ExportFormat("pdf"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeExportFormat))
}

//Personal.AI order the ending
