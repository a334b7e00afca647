// Package llm defines the provider-agnostic contract for decision
// analysis. Concrete providers live in the openai and anthropic
// subpackages; the service layer depends only on Client.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// DecisionInput carries the user-authored fields of a decision into a
// provider call. Reasoning may be empty.
type DecisionInput struct {
	Title     string
	Situation string
	Decision  string
	Reasoning string
}

// Analysis is the structured result a provider must return. Field names
// mirror the JSON keys the model is instructed to emit.
type Analysis struct {
	Category           string   `json:"category"`
	CognitiveBiases    []string `json:"cognitive_biases"`
	MissedAlternatives []string `json:"missed_alternatives"`
	Summary            string   `json:"summary"`
}

// Client performs a single analysis attempt. Implementations must not
// retry internally; retry policy belongs to the caller.
type Client interface {
	AnalyzeDecision(ctx context.Context, input DecisionInput) (Analysis, error)
}

// ProviderError wraps a failure from an upstream model API with enough
// structure for callers to classify it without string matching.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// RateLimited reports whether the provider rejected the call for quota
// reasons. Recognized by the shared cache/backoff helpers.
func (e *ProviderError) RateLimited() bool { return e.StatusCode == 429 }

// ErrNotConfigured is returned by PlaceholderClient and by constructors
// missing a required API key.
var ErrNotConfigured = errors.New("llm: provider not configured")

// PlaceholderClient fails every call. Used when no provider API key is
// present so the rest of the app still boots.
type PlaceholderClient struct{}

func (PlaceholderClient) AnalyzeDecision(context.Context, DecisionInput) (Analysis, error) {
	return Analysis{}, ErrNotConfigured
}
