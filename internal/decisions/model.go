package decisions

import "time"

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Decision is a journaled decision plus the state of its AI analysis.
// Analysis fields are only populated once Status is completed.
type Decision struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"userId"`
	Title              string    `json:"title"`
	Situation          string    `json:"situation"`
	Decision           string    `json:"decision"`
	Reasoning          string    `json:"reasoning,omitempty"`
	AnalysisStatus     string    `json:"analysisStatus"`
	AnalysisCategory   string    `json:"analysisCategory,omitempty"`
	CognitiveBiases    []string  `json:"cognitiveBiases,omitempty"`
	MissedAlternatives []string  `json:"missedAlternatives,omitempty"`
	AnalysisSummary    string    `json:"analysisSummary,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// AnalysisResult is the validated output of one provider call, ready to
// be written alongside a completed status.
type AnalysisResult struct {
	Category           string
	CognitiveBiases    []string
	MissedAlternatives []string
	Summary            string
}
