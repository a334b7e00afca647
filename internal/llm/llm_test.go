package llm

import (
	"strings"
	"testing"
)

func TestBuildPromptIncludesFields(t *testing.T) {
	p := BuildPrompt(DecisionInput{
		Title:     "Switch jobs",
		Situation: "Current role is stagnant",
		Decision:  "Accept the offer",
		Reasoning: "Better growth",
	})
	for _, want := range []string{"Switch jobs", "Current role is stagnant", "Accept the offer", "Better growth"} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestBuildPromptEmptyReasoning(t *testing.T) {
	p := BuildPrompt(DecisionInput{Title: "t", Situation: "s", Decision: "d"})
	if !strings.Contains(p, "Reasoning: Not provided") {
		t.Fatalf("expected placeholder reasoning, got:\n%s", p)
	}
}

func TestParseAnalysis(t *testing.T) {
	raw := `{"category":"strategic","cognitive_biases":["anchoring"],"missed_alternatives":["wait a quarter"],"summary":"Reasonable call."}`
	got, err := ParseAnalysis(raw)
	if err != nil {
		t.Fatalf("ParseAnalysis: %v", err)
	}
	if got.Category != "strategic" || got.Summary != "Reasonable call." {
		t.Fatalf("unexpected result: %+v", got)
	}
	if len(got.CognitiveBiases) != 1 || got.CognitiveBiases[0] != "anchoring" {
		t.Fatalf("unexpected biases: %v", got.CognitiveBiases)
	}
}

func TestParseAnalysisStripsFences(t *testing.T) {
	raw := "```json\n{\"category\":\"emotional\",\"cognitive_biases\":[],\"missed_alternatives\":[],\"summary\":\"ok\"}\n```"
	got, err := ParseAnalysis(raw)
	if err != nil {
		t.Fatalf("ParseAnalysis: %v", err)
	}
	if got.Category != "emotional" {
		t.Fatalf("unexpected category %q", got.Category)
	}
}

func TestParseAnalysisRejectsGarbage(t *testing.T) {
	if _, err := ParseAnalysis("the decision was fine"); err == nil {
		t.Fatal("expected error for non-JSON response")
	}
}

func TestProviderErrorRateLimited(t *testing.T) {
	limited := &ProviderError{Provider: "openai", StatusCode: 429, Message: "slow down"}
	if !limited.RateLimited() {
		t.Fatal("429 should report rate limited")
	}
	server := &ProviderError{Provider: "openai", StatusCode: 500, Message: "boom"}
	if server.RateLimited() {
		t.Fatal("500 should not report rate limited")
	}
}
