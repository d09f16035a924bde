package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumzoom/yumzoom/pkg/errors"
)

func TestAppError_ErrorFormat(t *testing.T) {
	ae := errors.New(errors.ErrCodeInvalidAPIKey, "invalid API key")
	assert.Equal(t, "[INVALID_API_KEY] invalid API key", ae.Error())

	withDetail := ae.WithDetail("prefix=yz_live")
	assert.Equal(t, "[INVALID_API_KEY] invalid API key: prefix=yz_live", withDetail.Error())
	assert.Empty(t, ae.Detail, "WithDetail must not mutate the receiver")
}

func TestAppError_HTTPStatus(t *testing.T) {
	assert.Equal(t, 429, errors.New(errors.ErrCodeRateLimitExceeded, "slow down").HTTPStatus())
	assert.Equal(t, 401, errors.New(errors.ErrCodeMissingAPIKey, "x").HTTPStatus())
	assert.Equal(t, 400, errors.InvalidParam("bad range").HTTPStatus())
	assert.Equal(t, 401, errors.Unauthorized("no token").HTTPStatus())
}

func TestWithDetail_NilReceiver(t *testing.T) {
	var ae *errors.AppError
	assert.Nil(t, ae.WithDetail("x"))
	assert.Nil(t, ae.WithCause(stderrors.New("x")))
}

func TestWrap(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "nothing"))
	})

	t.Run("unknown keeps inner code", func(t *testing.T) {
		inner := errors.New(errors.ErrCodeMemberNotFound, "member m1 not found")
		outer := errors.Wrap(inner, errors.CodeUnknown, "loading activity")

		require.NotNil(t, outer)
		assert.Equal(t, errors.ErrCodeMemberNotFound, outer.Code)
		assert.True(t, stderrors.Is(outer, inner))
	})

	t.Run("overrides code", func(t *testing.T) {
		cause := stderrors.New("connection refused")
		ae := errors.Wrap(cause, errors.ErrCodeAnalyticsUnavailable, "failed to load analytics")

		assert.Equal(t, errors.ErrCodeAnalyticsUnavailable, ae.Code)
		assert.Same(t, cause, ae.Unwrap())
	})
}

func TestIsCode_TraversesChain(t *testing.T) {
	base := errors.New(errors.ErrCodeRateLimitExceeded, "daily limit reached")
	wrapped := fmt.Errorf("middleware: %w", errors.Wrap(base, errors.ErrCodeInternal, "gate"))

	assert.True(t, errors.IsCode(wrapped, errors.ErrCodeRateLimitExceeded))
	assert.True(t, errors.IsCode(wrapped, errors.CodeInternal))
	assert.False(t, errors.IsCode(wrapped, errors.ErrCodeCacheError))
	assert.False(t, errors.IsCode(nil, errors.CodeInternal))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, errors.IsNotFound(errors.New(errors.CodeNotFound, "x")))
	assert.True(t, errors.IsNotFound(errors.New(errors.ErrCodeApplicationNotFound, "x")))
	assert.True(t, errors.IsNotFound(fmt.Errorf("wrap: %w", errors.New(errors.ErrCodeMemberNotFound, "x"))))
	assert.False(t, errors.IsNotFound(errors.New(errors.CodeInternal, "x")))
	assert.False(t, errors.IsNotFound(stderrors.New("plain")))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeConflict, errors.GetCode(errors.New(errors.ErrCodeConflict, "dup")))
}

func TestPublic(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   errors.ErrorCode
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "client error keeps message",
			err:        errors.InvalidParam("range must be week, month, quarter or year"),
			wantCode:   errors.CodeInvalidParam,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "range must be week, month, quarter or year",
		},
		{
			name:       "server error hides message",
			err:        errors.Wrap(stderrors.New("pq: timeout"), errors.ErrCodeDatabaseError, "query ratings for user-1"),
			wantCode:   errors.ErrCodeDatabaseError,
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "database error",
		},
		{
			name:       "empty message uses default",
			err:        errors.New(errors.ErrCodeMissingAPIKey, ""),
			wantCode:   errors.ErrCodeMissingAPIKey,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "API key is required",
		},
		{
			name:       "foreign error",
			err:        stderrors.New("boom"),
			wantCode:   errors.CodeInternal,
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "internal server error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, status, msg := errors.Public(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

//Personal.AI order the ending
