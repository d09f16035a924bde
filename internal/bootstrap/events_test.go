package bootstrap

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	segkafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yumzoom/yumzoom/internal/application/ratelimit"
	"github.com/yumzoom/yumzoom/internal/infrastructure/messaging/kafka"
	"github.com/yumzoom/yumzoom/internal/testutil"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

type recordingWriter struct {
	mu       sync.Mutex
	messages []segkafka.Message
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...segkafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestUsagePublisher_PublishesEnvelope(t *testing.T) {
	w := &recordingWriter{}
	pub := NewUsagePublisher(kafka.NewProducerWithWriter(w, nil, nil), "")

	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	ev := &ratelimit.UsageEvent{
		EventID: "evt-1", ApplicationID: "app-1", Method: "GET", Path: "/api/public/v1/usage",
		StatusCode: 200, Allowed: true, HourUsed: 3, DayUsed: 40, OccurredAt: at,
	}
	require.NoError(t, pub.PublishUsage(context.Background(), ev))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, kafka.TopicAPIUsage, msg.Topic)
	assert.Equal(t, "app-1", string(msg.Key))

	var env kafka.EventEnvelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, "evt-1", env.EventID)
	assert.Equal(t, kafka.EventTypeAPIUsage, env.EventType)

	var got ratelimit.UsageEvent
	require.NoError(t, env.DecodePayload(&got))
	assert.Equal(t, int64(40), got.DayUsed)
	assert.True(t, got.OccurredAt.Equal(at))
}

func TestUsagePublisher_KeysRejectedKeysByPrefix(t *testing.T) {
	w := &recordingWriter{}
	pub := NewUsagePublisher(kafka.NewProducerWithWriter(w, nil, nil), "custom.usage")

	require.NoError(t, pub.PublishUsage(context.Background(), &ratelimit.UsageEvent{KeyPrefix: "yz_live_", ErrorCode: "INVALID_API_KEY"}))
	require.Len(t, w.messages, 1)
	assert.Equal(t, "custom.usage", w.messages[0].Topic)
	assert.Equal(t, "yz_live_", string(w.messages[0].Key))
}

func usageMessage(t *testing.T, eventType string, payload interface{}) *kafka.Message {
	t.Helper()
	env, err := kafka.NewEventEnvelope(eventType, "test", payload)
	require.NoError(t, err)
	msg, err := env.ToMessage(kafka.TopicAPIUsage, "app-1")
	require.NoError(t, err)
	return msg
}

func TestUsageEventHandler_IncrementsLedger(t *testing.T) {
	repo := new(testutil.MockUsageRepository)
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	repo.On("Increment", mock.Anything, "app-1", mock.MatchedBy(at.Equal), false).Return(nil).Once()
	handler := UsageEventHandler(ratelimit.NewUsageLedger(repo, nil, nil), testutil.NewMockLogger())

	msg := usageMessage(t, kafka.EventTypeAPIUsage, ratelimit.UsageEvent{ApplicationID: "app-1", Allowed: false, StatusCode: 429, OccurredAt: at})
	require.NoError(t, handler(context.Background(), msg))
	repo.AssertExpectations(t)
}

func TestUsageEventHandler_SkipsUnusableMessages(t *testing.T) {
	repo := new(testutil.MockUsageRepository)
	logger := testutil.NewMockLogger()
	handler := UsageEventHandler(ratelimit.NewUsageLedger(repo, nil, nil), logger)

	require.NoError(t, handler(context.Background(), &kafka.Message{Topic: kafka.TopicAPIUsage, Value: []byte("not json")}))
	require.NoError(t, handler(context.Background(), usageMessage(t, "restaurant.created", map[string]string{"id": "r1"})))
	require.NoError(t, handler(context.Background(), usageMessage(t, kafka.EventTypeAPIUsage, []int{1, 2})))

	repo.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.True(t, logger.HasMessage("warn", "skipping malformed usage message"))
	assert.True(t, logger.HasMessage("warn", "skipping undecodable usage event"))
}

func TestUsageEventHandler_StoreErrorIsRetryable(t *testing.T) {
	repo := new(testutil.MockUsageRepository)
	repo.On("Increment", mock.Anything, "app-1", mock.Anything, true).
		Return(errors.New(errors.ErrCodeDatabaseError, "database error"))
	handler := UsageEventHandler(ratelimit.NewUsageLedger(repo, nil, nil), nil)

	err := handler(context.Background(), usageMessage(t, kafka.EventTypeAPIUsage, ratelimit.UsageEvent{ApplicationID: "app-1", Allowed: true}))
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
}

//Personal.AI order the ending
