package errors

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusForCode(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeInternal, 500},
		{CodeInvalidParam, 400},
		{ErrCodeMissingAPIKey, 401},
		{ErrCodeInvalidAPIKey, 401},
		{ErrCodeRateLimitExceeded, 429},
		{ErrCodeMemberNotFound, 404},
		{ErrCodeExportFormat, 400},
		{ErrCodeExternalService, 502},
		{ErrorCode("SOMETHING_ELSE"), 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, HTTPStatusForCode(tt.code), string(tt.code))
	}
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "internal server error", DefaultMessageForCode(ErrCodeInternal))
	assert.Equal(t, "failed to load analytics", DefaultMessageForCode(ErrCodeAnalyticsUnavailable))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("SOMETHING_ELSE")))
}

func TestCodes_NamingConvention(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z]+(_[A-Z]+)*$`)
	all := Codes()
	assert.Len(t, all, len(codes))
	for _, code := range all {
		assert.Regexp(t, re, code.String())
		assert.NotEqual(t, "unknown error", DefaultMessageForCode(code))
	}
}

//Personal.AI order the ending
