package decisions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	decision := Decision{
		ID:             "decision-1",
		UserID:         "user-1",
		Title:          "Switch jobs",
		Situation:      "Stagnant",
		Decision:       "Accept offer",
		Reasoning:      "Growth",
		AnalysisStatus: StatusPending,
		CreatedAt:      time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO decisions").
		WithArgs(
			decision.ID,
			decision.UserID,
			decision.Title,
			decision.Situation,
			decision.Decision,
			decision.Reasoning,
			decision.AnalysisStatus,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), decision); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCompleteAnalysis(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE decisions").
		WithArgs(
			"decision-1",
			StatusCompleted,
			"strategic",
			[]byte(`["anchoring"]`),
			[]byte(`[]`),
			"Fine call.",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CompleteAnalysis(context.Background(), "decision-1", AnalysisResult{
		Category:        "strategic",
		CognitiveBiases: []string{"anchoring"},
		Summary:         "Fine call.",
	})
	if err != nil {
		t.Fatalf("CompleteAnalysis: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoMarkFailedMissingRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE decisions").
		WithArgs("missing", StatusFailed).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.MarkFailed(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoGetByIDScansLists(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "title", "situation", "decision", "reasoning", "analysis_status",
		"analysis_category", "cognitive_biases", "missed_alternatives", "analysis_summary",
		"created_at", "updated_at",
	}).AddRow(
		"decision-1", "user-1", "t", "s", "d", nil, StatusCompleted,
		"strategic", `["anchoring"]`, `[]`, "ok",
		now, now,
	)
	mock.ExpectQuery("SELECT").WithArgs("decision-1", "user-1").WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "user-1", "decision-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.AnalysisStatus != StatusCompleted || got.AnalysisCategory != "strategic" {
		t.Fatalf("unexpected decision: %+v", got)
	}
	if len(got.CognitiveBiases) != 1 || got.CognitiveBiases[0] != "anchoring" {
		t.Fatalf("biases not decoded: %v", got.CognitiveBiases)
	}
	if got.MissedAlternatives == nil || len(got.MissedAlternatives) != 0 {
		t.Fatalf("expected empty alternatives, got %v", got.MissedAlternatives)
	}
	if got.Reasoning != "" {
		t.Fatalf("expected empty reasoning for NULL column, got %q", got.Reasoning)
	}
}
