package apperrors

// ErrorCode - machine readable error code returned to API clients
type ErrorCode string

const (
	// System and unknown errors
	CodeInternalError ErrorCode = "INTERNAL_ERROR"

	// Request level errors
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Discovery errors (remote image search)
	CodeUpstreamStatus     ErrorCode = "UPSTREAM_STATUS"
	CodeNetworkError       ErrorCode = "NETWORK_ERROR"
	CodeDiscoveryExhausted ErrorCode = "DISCOVERY_EXHAUSTED"
)
