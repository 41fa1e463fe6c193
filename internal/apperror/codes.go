package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Sourcing-specific error codes
const (
	// Input errors, rejected before any provider call
	CodeInvalidBudget       Code = "INVALID_BUDGET"
	CodeInvalidCandidate    Code = "INVALID_CANDIDATE"
	CodeInvalidCostOverride Code = "INVALID_COST_OVERRIDE"
	CodeInvalidRow          Code = "INVALID_ROW"

	// Provider errors
	CodeProviderRequestFailed Code = "PROVIDER_REQUEST_FAILED"
	CodeProviderNotFound      Code = "PROVIDER_NOT_FOUND"
	CodeProviderMalformed     Code = "PROVIDER_MALFORMED_RESPONSE"
	CodeUnknownProvider       Code = "UNKNOWN_PROVIDER"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"

	// Output errors
	CodeTabularWriteFailed Code = "TABULAR_WRITE_FAILED"
	CodeTabularReadFailed  Code = "TABULAR_READ_FAILED"
)
