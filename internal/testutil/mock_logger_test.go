package testutil_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/internal/testutil"
)

func TestMockLogger_CapturesChildLoggers(t *testing.T) {
	logger := testutil.NewMockLogger()

	logger.Named("ratelimit").
		With(logging.String("application_id", "app-1")).
		Info("rate limit exceeded", logging.Int64("hour_used", 100))

	messages := logger.GetMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, "info", messages[0].Level)
	assert.Equal(t, "ratelimit", messages[0].Logger)
	assert.Equal(t, "app-1", messages[0].Fields["application_id"])
	assert.EqualValues(t, 100, messages[0].Fields["hour_used"])
}

func TestMockLogger_HasMessageAndClear(t *testing.T) {
	logger := testutil.NewMockLogger()

	logger.Error("bucket acquire failed", logging.Err(errors.New("redis down")))
	assert.True(t, logger.HasMessage("error", "bucket acquire failed"))
	assert.False(t, logger.HasMessage("warn", "bucket acquire failed"))

	logger.Clear()
	assert.Empty(t, logger.GetMessages())
}

func TestMockLogger_FatalPanics(t *testing.T) {
	logger := testutil.NewMockLogger()
	assert.Panics(t, func() { logger.Fatal("cannot start") })
	assert.True(t, logger.HasMessage("fatal", "cannot start"))
}

//Personal.AI order the ending
