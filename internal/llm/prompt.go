package llm

import (
	"fmt"
	"strings"
)

// SystemPrompt frames every analysis call regardless of provider.
const SystemPrompt = "You are an expert decision analyst. Your job is to analyze decisions and provide insights about cognitive biases, missed alternatives, and the quality of the decision-making process. Always respond with valid JSON."

const promptTemplate = `Analyze the following decision:

Title: %s
Situation: %s
Decision: %s
Reasoning: %s

Please provide:
1. A category for this decision (e.g., emotional, strategic, impulsive, etc.)
2. A list of potential cognitive biases that might have influenced this decision
3. Alternative options or considerations that might have been overlooked
4. A summary of the analysis

Format your response as JSON with the following structure:
{
  "category": "string",
  "cognitive_biases": ["string", "string", ...],
  "missed_alternatives": ["string", "string", ...],
  "summary": "string"
}`

// BuildPrompt renders the user message for one analysis attempt.
func BuildPrompt(input DecisionInput) string {
	reasoning := strings.TrimSpace(input.Reasoning)
	if reasoning == "" {
		reasoning = "Not provided"
	}
	return fmt.Sprintf(promptTemplate, input.Title, input.Situation, input.Decision, reasoning)
}
