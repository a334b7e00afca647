package decisions

import "context"

// Repo defines persistence operations for decisions. Read operations
// are owner-scoped: a decision belonging to another user is reported
// as ErrNotFound. Write operations on the analysis columns are keyed
// by id alone because they run from the background worker.
type Repo interface {
	Create(ctx context.Context, decision Decision) error
	GetByID(ctx context.Context, userID, decisionID string) (Decision, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Decision, error)
	// MarkPending resets the analysis state, clearing any previous
	// result fields.
	MarkPending(ctx context.Context, decisionID string) error
	// CompleteAnalysis writes the result and the completed status in
	// one statement.
	CompleteAnalysis(ctx context.Context, decisionID string, result AnalysisResult) error
	MarkFailed(ctx context.Context, decisionID string) error
}
