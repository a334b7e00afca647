package decisions

import "errors"

// ErrNotFound covers both missing records and records owned by another
// user; callers cannot tell the two apart.
var ErrNotFound = errors.New("decision not found")

const (
	ErrorCodeValidation       = "VALIDATION_ERROR"
	ErrorCodeLLMTimeout       = "LLM_TIMEOUT"
	ErrorCodeLLMRateLimited   = "LLM_RATE_LIMITED"
	ErrorCodeLLMOutputInvalid = "LLM_OUTPUT_INVALID"
	ErrorCodeStorage          = "STORAGE_ERROR"
	ErrorCodeInternal         = "INTERNAL_ERROR"
)
