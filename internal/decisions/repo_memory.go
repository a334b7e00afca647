package decisions

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo implements Repo in memory for local development and tests.
type MemoryRepo struct {
	mu        sync.RWMutex
	decisions map[string]Decision
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{decisions: make(map[string]Decision)}
}

func (r *MemoryRepo) Create(ctx context.Context, decision Decision) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if decision.UpdatedAt.IsZero() {
		decision.UpdatedAt = decision.CreatedAt
	}
	r.decisions[decision.ID] = decision
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID, decisionID string) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	decision, ok := r.decisions[decisionID]
	if !ok || decision.UserID != userID {
		return Decision{}, ErrNotFound
	}
	return decision, nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Decision, 0)
	for _, decision := range r.decisions {
		if decision.UserID == userID {
			all = append(all, decision)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []Decision{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemoryRepo) MarkPending(ctx context.Context, decisionID string) error {
	return r.update(ctx, decisionID, func(d *Decision) {
		d.AnalysisStatus = StatusPending
		d.AnalysisCategory = ""
		d.CognitiveBiases = nil
		d.MissedAlternatives = nil
		d.AnalysisSummary = ""
	})
}

func (r *MemoryRepo) CompleteAnalysis(ctx context.Context, decisionID string, result AnalysisResult) error {
	return r.update(ctx, decisionID, func(d *Decision) {
		d.AnalysisStatus = StatusCompleted
		d.AnalysisCategory = result.Category
		d.CognitiveBiases = result.CognitiveBiases
		d.MissedAlternatives = result.MissedAlternatives
		d.AnalysisSummary = result.Summary
	})
}

func (r *MemoryRepo) MarkFailed(ctx context.Context, decisionID string) error {
	return r.update(ctx, decisionID, func(d *Decision) {
		d.AnalysisStatus = StatusFailed
	})
}

func (r *MemoryRepo) update(ctx context.Context, decisionID string, apply func(*Decision)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	decision, ok := r.decisions[decisionID]
	if !ok {
		return ErrNotFound
	}
	apply(&decision)
	decision.UpdatedAt = time.Now().UTC()
	r.decisions[decisionID] = decision
	return nil
}
