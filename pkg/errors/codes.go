package errors

import "net/http"

// ErrorCode is emitted verbatim as the "code" field of API error bodies.
type ErrorCode string

func (c ErrorCode) String() string { return string(c) }

// Generic codes.
const (
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
	ErrCodeBadRequest         ErrorCode = "BAD_REQUEST"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeConflict           ErrorCode = "CONFLICT"
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeValidation         ErrorCode = "VALIDATION_FAILED"
	ErrCodeSerialization      ErrorCode = "SERIALIZATION_FAILED"
	ErrCodeDatabaseError      ErrorCode = "DATABASE_ERROR"
	ErrCodeCacheError         ErrorCode = "CACHE_ERROR"
	ErrCodeExternalService    ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeNotImplemented     ErrorCode = "NOT_IMPLEMENTED"
)

// Short names.  CodeOK and CodeUnknown never reach a client.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeUnauthorized = ErrCodeUnauthorized
	CodeNotFound     = ErrCodeNotFound
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
)

// Public API gateway codes.  Third-party clients branch on these.
const (
	ErrCodeMissingAPIKey     ErrorCode = "MISSING_API_KEY"
	ErrCodeInvalidAPIKey     ErrorCode = "INVALID_API_KEY"
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
)

// Analytics codes.
const (
	ErrCodeAnalyticsUnavailable ErrorCode = "ANALYTICS_UNAVAILABLE"
	ErrCodeMemberNotFound       ErrorCode = "MEMBER_NOT_FOUND"
	ErrCodeExportFailed         ErrorCode = "EXPORT_FAILED"
	ErrCodeExportFormat         ErrorCode = "EXPORT_FORMAT_UNSUPPORTED"
)

// ErrCodeApplicationNotFound is returned by the application registry.
const ErrCodeApplicationNotFound ErrorCode = "APPLICATION_NOT_FOUND"

type codeInfo struct {
	status  int
	message string
}

var codes = map[ErrorCode]codeInfo{
	ErrCodeInternal:           {http.StatusInternalServerError, "internal server error"},
	ErrCodeBadRequest:         {http.StatusBadRequest, "bad request"},
	ErrCodeUnauthorized:       {http.StatusUnauthorized, "unauthorized"},
	ErrCodeNotFound:           {http.StatusNotFound, "resource not found"},
	ErrCodeConflict:           {http.StatusConflict, "resource conflict"},
	ErrCodeServiceUnavailable: {http.StatusServiceUnavailable, "service unavailable"},
	ErrCodeValidation:         {http.StatusBadRequest, "validation failed"},
	ErrCodeSerialization:      {http.StatusInternalServerError, "serialization failed"},
	ErrCodeDatabaseError:      {http.StatusInternalServerError, "database error"},
	ErrCodeCacheError:         {http.StatusInternalServerError, "cache error"},
	ErrCodeExternalService:    {http.StatusBadGateway, "external service error"},
	ErrCodeNotImplemented:     {http.StatusNotImplemented, "not implemented"},

	ErrCodeMissingAPIKey:     {http.StatusUnauthorized, "API key is required"},
	ErrCodeInvalidAPIKey:     {http.StatusUnauthorized, "invalid API key"},
	ErrCodeRateLimitExceeded: {http.StatusTooManyRequests, "rate limit exceeded"},

	ErrCodeAnalyticsUnavailable: {http.StatusInternalServerError, "failed to load analytics"},
	ErrCodeMemberNotFound:       {http.StatusNotFound, "family member not found"},
	ErrCodeExportFailed:         {http.StatusInternalServerError, "failed to export analytics"},
	ErrCodeExportFormat:         {http.StatusBadRequest, "unsupported export format"},

	ErrCodeApplicationNotFound: {http.StatusNotFound, "API application not found"},
}

// HTTPStatusForCode returns the status for code, 500 when unregistered.
func HTTPStatusForCode(code ErrorCode) int {
	if info, ok := codes[code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the client-facing fallback message.
func DefaultMessageForCode(code ErrorCode) string {
	if info, ok := codes[code]; ok {
		return info.message
	}
	return "unknown error"
}

// Codes lists every registered code.
func Codes() []ErrorCode {
	out := make([]ErrorCode, 0, len(codes))
	for c := range codes {
		out = append(out, c)
	}
	return out
}

//Personal.AI order the ending
