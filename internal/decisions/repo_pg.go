package decisions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const decisionColumns = `
id, user_id, title, situation, decision, reasoning, analysis_status,
analysis_category, cognitive_biases, missed_alternatives, analysis_summary,
created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, decision Decision) error {
	const query = `
INSERT INTO decisions (id, user_id, title, situation, decision, reasoning, analysis_status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`
	_, err := r.DB.ExecContext(ctx, query,
		decision.ID,
		decision.UserID,
		decision.Title,
		decision.Situation,
		decision.Decision,
		nullableString(decision.Reasoning),
		decision.AnalysisStatus,
		decision.CreatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID, decisionID string) (Decision, error) {
	const query = `
SELECT ` + decisionColumns + `
FROM decisions
WHERE id = $1 AND user_id = $2
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, decisionID, userID)
	decision, err := scanDecision(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Decision{}, ErrNotFound
		}
		return Decision{}, err
	}
	return decision, nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Decision, error) {
	const query = `
SELECT ` + decisionColumns + `
FROM decisions
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Decision, 0)
	for rows.Next() {
		decision, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, decision)
	}
	return out, rows.Err()
}

func (r *PGRepo) MarkPending(ctx context.Context, decisionID string) error {
	const query = `
UPDATE decisions
SET analysis_status = $2,
    analysis_category = NULL,
    cognitive_biases = NULL,
    missed_alternatives = NULL,
    analysis_summary = NULL,
    updated_at = now()
WHERE id = $1`
	return r.execOne(ctx, query, decisionID, StatusPending)
}

func (r *PGRepo) CompleteAnalysis(ctx context.Context, decisionID string, result AnalysisResult) error {
	const query = `
UPDATE decisions
SET analysis_status = $2,
    analysis_category = $3,
    cognitive_biases = $4,
    missed_alternatives = $5,
    analysis_summary = $6,
    updated_at = now()
WHERE id = $1`
	biases, err := marshalStringList(result.CognitiveBiases)
	if err != nil {
		return err
	}
	alternatives, err := marshalStringList(result.MissedAlternatives)
	if err != nil {
		return err
	}
	return r.execOne(ctx, query, decisionID, StatusCompleted, result.Category, biases, alternatives, result.Summary)
}

func (r *PGRepo) MarkFailed(ctx context.Context, decisionID string) error {
	const query = `
UPDATE decisions
SET analysis_status = $2,
    updated_at = now()
WHERE id = $1`
	return r.execOne(ctx, query, decisionID, StatusFailed)
}

func (r *PGRepo) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDecision(row rowScanner) (Decision, error) {
	var d Decision
	var reasoning sql.NullString
	var category sql.NullString
	var biases sql.NullString
	var alternatives sql.NullString
	var summary sql.NullString
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.Title,
		&d.Situation,
		&d.Decision,
		&reasoning,
		&d.AnalysisStatus,
		&category,
		&biases,
		&alternatives,
		&summary,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return Decision{}, err
	}
	if reasoning.Valid {
		d.Reasoning = reasoning.String
	}
	if category.Valid {
		d.AnalysisCategory = category.String
	}
	if summary.Valid {
		d.AnalysisSummary = summary.String
	}
	if biases.Valid {
		if err := json.Unmarshal([]byte(biases.String), &d.CognitiveBiases); err != nil {
			d.CognitiveBiases = nil
		}
	}
	if alternatives.Valid {
		if err := json.Unmarshal([]byte(alternatives.String), &d.MissedAlternatives); err != nil {
			d.MissedAlternatives = nil
		}
	}
	return d, nil
}

func marshalStringList(list []string) ([]byte, error) {
	if list == nil {
		list = []string{}
	}
	return json.Marshal(list)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
