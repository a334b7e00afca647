package decisions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mirror-backend/internal/llm"
	"mirror-backend/internal/shared/metrics"
	"mirror-backend/internal/shared/storage/cache"
	"mirror-backend/internal/shared/telemetry"
)

const defaultListLimit = 20

// Service contains business logic for decisions and drives the
// background analysis lifecycle.
type Service struct {
	Repo     Repo
	LLM      llm.Client
	Provider string
	Model    string

	listCache *cache.Cache[[]Decision]
}

// ServiceOptions tunes the cached list read path.
type ServiceOptions struct {
	ListCacheTTL     time.Duration
	StoreReadRetries int
	StoreRetryDelay  time.Duration
}

func NewService(repo Repo, llmClient llm.Client, provider, model string, opts ServiceOptions) *Service {
	return &Service{
		Repo:     repo,
		LLM:      llmClient,
		Provider: normalizeProvider(provider),
		Model:    model,
		listCache: cache.New[[]Decision](cache.Options{
			TTL:        opts.ListCacheTTL,
			MaxRetries: opts.StoreReadRetries,
			RetryDelay: opts.StoreRetryDelay,
		}),
	}
}

// SubmitInput carries the user-authored fields of a new decision.
type SubmitInput struct {
	Title     string
	Situation string
	Decision  string
	Reasoning string
}

// ValidationError reports which required fields were missing.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// Submit stores a new decision in the pending state and kicks off
// analysis in the background. The returned record reflects the state
// at submit time; callers poll for the analysis outcome.
func (s *Service) Submit(ctx context.Context, userID string, input SubmitInput) (Decision, error) {
	if userID == "" {
		return Decision{}, errors.New("userID is required")
	}
	if err := validateSubmit(input); err != nil {
		return Decision{}, err
	}

	now := time.Now().UTC()
	decision := Decision{
		ID:             uuid.NewString(),
		UserID:         userID,
		Title:          strings.TrimSpace(input.Title),
		Situation:      strings.TrimSpace(input.Situation),
		Decision:       strings.TrimSpace(input.Decision),
		Reasoning:      strings.TrimSpace(input.Reasoning),
		AnalysisStatus: StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.Repo.Create(ctx, decision); err != nil {
		return Decision{}, err
	}
	metrics.IncDecisionCreated()
	s.listCache.Invalidate(userID)

	go s.analyzeAsync(backgroundWithRequestID(ctx), decision)

	return decision, nil
}

// Get returns one decision. Cross-owner access reads as not found.
func (s *Service) Get(ctx context.Context, userID, decisionID string) (Decision, error) {
	if userID == "" || decisionID == "" {
		return Decision{}, errors.New("userID and decisionID are required")
	}
	return s.Repo.GetByID(ctx, userID, decisionID)
}

// List returns the user's decisions newest-first. The first page is
// served through a short-lived cache with rate-limit-aware retries;
// other pages go straight to the store.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Decision, error) {
	if userID == "" {
		return nil, errors.New("userID is required")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	if limit == defaultListLimit && offset == 0 {
		return s.listCache.Fetch(ctx, userID, func(ctx context.Context) ([]Decision, error) {
			return s.Repo.ListByUser(ctx, userID, limit, offset)
		})
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Retry resets the analysis to pending and starts a fresh background
// attempt with the stored fields. Only the owner can retry; there is
// no cooldown and no restriction on the current state, so a retry
// racing an in-flight analysis resolves last-write-wins.
func (s *Service) Retry(ctx context.Context, userID, decisionID string) (Decision, error) {
	if userID == "" || decisionID == "" {
		return Decision{}, errors.New("userID and decisionID are required")
	}
	decision, err := s.Repo.GetByID(ctx, userID, decisionID)
	if err != nil {
		return Decision{}, err
	}
	if err := s.Repo.MarkPending(ctx, decisionID); err != nil {
		return Decision{}, err
	}
	metrics.IncAnalysisRetried()
	s.listCache.Invalidate(userID)

	decision.AnalysisStatus = StatusPending
	decision.AnalysisCategory = ""
	decision.CognitiveBiases = nil
	decision.MissedAlternatives = nil
	decision.AnalysisSummary = ""

	go s.analyzeAsync(backgroundWithRequestID(ctx), decision)

	return decision, nil
}

func validateSubmit(input SubmitInput) error {
	var missing []string
	if strings.TrimSpace(input.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(input.Situation) == "" {
		missing = append(missing, "situation")
	}
	if strings.TrimSpace(input.Decision) == "" {
		missing = append(missing, "decision")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

func normalizeProvider(provider string) string {
	if strings.TrimSpace(provider) == "" {
		return "openai"
	}
	return provider
}

// analyzeAsync runs one analysis attempt end to end. It never retries
// the provider call; a failure parks the decision in the failed state
// until the user asks for a retry.
func (s *Service) analyzeAsync(ctx context.Context, decision Decision) {
	defer func() {
		if r := recover(); r != nil {
			s.failAnalysis(ctx, decision, fmt.Errorf("panic: %v", r), nil)
		}
	}()
	startedAt := time.Now().UTC()

	// Reaffirm pending so a crash between submit and here is visible
	// as a stuck-pending record rather than a silent miss.
	if err := s.Repo.MarkPending(ctx, decision.ID); err != nil {
		s.failAnalysis(ctx, decision, fmt.Errorf("set pending failed: %w", err), &startedAt)
		return
	}
	metrics.IncAnalysisStarted()
	telemetry.Info("analysis.status", map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"user_id":     decision.UserID,
		"decision_id": decision.ID,
		"status":      StatusPending,
		"provider":    s.Provider,
	})

	if s.LLM == nil {
		s.failAnalysis(ctx, decision, errors.New("missing llm client"), &startedAt)
		return
	}

	analysis, err := s.LLM.AnalyzeDecision(ctx, llm.DecisionInput{
		Title:     decision.Title,
		Situation: decision.Situation,
		Decision:  decision.Decision,
		Reasoning: decision.Reasoning,
	})
	if err != nil {
		s.failAnalysis(ctx, decision, fmt.Errorf("llm analyze: %w", err), &startedAt)
		return
	}

	result, err := validateAnalysis(analysis)
	if err != nil {
		s.failAnalysis(ctx, decision, fmt.Errorf("llm output invalid: %w", err), &startedAt)
		return
	}

	if err := s.Repo.CompleteAnalysis(ctx, decision.ID, result); err != nil {
		s.failAnalysis(ctx, decision, fmt.Errorf("set analysis result failed: %w", err), &startedAt)
		return
	}
	completedAt := time.Now().UTC()
	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(durationMs(&startedAt, &completedAt))
	s.listCache.Invalidate(decision.UserID)
	telemetry.Info("analysis.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           decision.UserID,
		"decision_id":       decision.ID,
		"status":            StatusCompleted,
		"status_transition": "pending->completed",
		"duration_ms":       durationMs(&startedAt, &completedAt),
	})
}

// failAnalysis is best effort: the failed write uses a fresh context so
// a cancelled request cannot leave the record stuck in pending.
func (s *Service) failAnalysis(ctx context.Context, decision Decision, err error, startedAt *time.Time) {
	code := classifyFailure(err)
	msg := sanitizeError(err)
	completedAt := time.Now().UTC()
	if updateErr := s.Repo.MarkFailed(context.Background(), decision.ID); updateErr != nil {
		telemetry.Error("analysis.fail_write_failed", map[string]any{
			"request_id":  requestIDFromContext(ctx),
			"decision_id": decision.ID,
			"error":       sanitizeError(updateErr),
			"orig_error":  msg,
		})
	}
	metrics.IncAnalysisFailed()
	if startedAt != nil {
		metrics.ObserveAnalysisDurationMs(durationMs(startedAt, &completedAt))
	}
	s.listCache.Invalidate(decision.UserID)
	telemetry.Error("analysis.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           decision.UserID,
		"decision_id":       decision.ID,
		"status":            StatusFailed,
		"status_transition": "pending->failed",
		"error_code":        code,
		"error":             msg,
		"duration_ms":       durationMs(startedAt, &completedAt),
	})
}

// validateAnalysis enforces the result shape: category and summary are
// required, the two lists may be empty but never absent.
func validateAnalysis(analysis llm.Analysis) (AnalysisResult, error) {
	if strings.TrimSpace(analysis.Category) == "" {
		return AnalysisResult{}, errors.New("missing category")
	}
	if strings.TrimSpace(analysis.Summary) == "" {
		return AnalysisResult{}, errors.New("missing summary")
	}
	biases := analysis.CognitiveBiases
	if biases == nil {
		biases = []string{}
	}
	alternatives := analysis.MissedAlternatives
	if alternatives == nil {
		alternatives = []string{}
	}
	return AnalysisResult{
		Category:           strings.TrimSpace(analysis.Category),
		CognitiveBiases:    biases,
		MissedAlternatives: alternatives,
		Summary:            strings.TrimSpace(analysis.Summary),
	}, nil
}

func classifyFailure(err error) string {
	if err == nil {
		return ErrorCodeInternal
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeLLMTimeout
	}
	var providerErr *llm.ProviderError
	if errors.As(err, &providerErr) && providerErr.RateLimited() {
		return ErrorCodeLLMRateLimited
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") {
		return ErrorCodeLLMTimeout
	}
	if strings.Contains(msg, "llm output invalid") || strings.Contains(msg, "parse analysis") {
		return ErrorCodeLLMOutputInvalid
	}
	if strings.Contains(msg, "set pending") || strings.Contains(msg, "set analysis result") {
		return ErrorCodeStorage
	}
	return ErrorCodeInternal
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}

func durationMs(startedAt, completedAt *time.Time) float64 {
	if startedAt == nil || completedAt == nil {
		return 0
	}
	return float64(completedAt.Sub(*startedAt).Microseconds()) / 1000.0
}
