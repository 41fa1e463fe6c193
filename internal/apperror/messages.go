package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	CodeInvalidBudget:       "Budget must be a positive decimal amount",
	CodeInvalidCandidate:    "Candidate has neither a valid identifier nor a title",
	CodeInvalidCostOverride: "Supplier cost override is invalid",
	CodeInvalidRow:          "Tabular row is invalid",

	CodeProviderRequestFailed: "Product data provider request failed",
	CodeProviderNotFound:      "Product not found at provider",
	CodeProviderMalformed:     "Product data provider returned a malformed response",
	CodeUnknownProvider:       "Unknown product data provider",

	CodeCircuitOpen: "Circuit breaker is open",

	CodeTabularWriteFailed: "Failed to write tabular output",
	CodeTabularReadFailed:  "Failed to read tabular input",
}
