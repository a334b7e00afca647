package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseAnalysis decodes a provider response body into an Analysis.
// Models occasionally wrap JSON in markdown fences even when asked not
// to, so fences are stripped before decoding.
func ParseAnalysis(raw string) (Analysis, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var out Analysis
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return Analysis{}, fmt.Errorf("parse analysis response: %w", err)
	}
	return out, nil
}
