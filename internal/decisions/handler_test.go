package decisions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T, svc *Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", "user-1")
		c.Next()
	})
	// Each test hits a decision id at most once, so the default poll
	// window never trips here; the throttle test injects its own clock.
	h := NewHandler(svc)
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateDecisionReturnsPending(t *testing.T) {
	repo := NewMemoryRepo()
	block := &blockingLLM{release: make(chan struct{})}
	t.Cleanup(func() { close(block.release) })
	r := newTestRouter(t, newTestService(repo, block))

	w := doJSON(t, r, http.MethodPost, "/api/v1/decisions",
		`{"title":"Switch jobs","situation":"Stagnant","decision":"Accept offer","reasoning":"Growth"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success  bool     `json:"success"`
		Message  string   `json:"message"`
		Decision Decision `json:"decision"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success true: %s", w.Body.String())
	}
	if resp.Decision.AnalysisStatus != StatusPending {
		t.Fatalf("expected pending decision, got %s", resp.Decision.AnalysisStatus)
	}
	if resp.Decision.ID == "" {
		t.Fatal("expected decision id in response")
	}
}

func TestCreateDecisionMissingFields(t *testing.T) {
	r := newTestRouter(t, newTestService(NewMemoryRepo(), &staticLLM{}))

	w := doJSON(t, r, http.MethodPost, "/api/v1/decisions", `{"title":"only title"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Error struct {
			Code    string              `json:"code"`
			Details []map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != "validation_error" {
		t.Fatalf("expected validation_error, got %s", resp.Error.Code)
	}
	if len(resp.Error.Details) != 2 {
		t.Fatalf("expected two missing fields, got %v", resp.Error.Details)
	}
}

func TestCreateDecisionBadBody(t *testing.T) {
	r := newTestRouter(t, newTestService(NewMemoryRepo(), &staticLLM{}))
	w := doJSON(t, r, http.MethodPost, "/api/v1/decisions", `{"title":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetDecision(t *testing.T) {
	repo := NewMemoryRepo()
	decision := pendingDecision("d1", "user-1")
	decision.AnalysisStatus = StatusCompleted
	decision.AnalysisCategory = "strategic"
	decision.CognitiveBiases = []string{"anchoring"}
	decision.MissedAlternatives = []string{"wait"}
	decision.AnalysisSummary = "Fine call."
	if err := repo.Create(context.Background(), decision); err != nil {
		t.Fatalf("create: %v", err)
	}
	r := newTestRouter(t, newTestService(repo, &staticLLM{}))

	w := doJSON(t, r, http.MethodGet, "/api/v1/decisions/d1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var got Decision
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.AnalysisStatus != StatusCompleted || got.AnalysisCategory != "strategic" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestGetDecisionOtherOwner404(t *testing.T) {
	repo := NewMemoryRepo()
	other := pendingDecision("d1", "user-2")
	if err := repo.Create(context.Background(), other); err != nil {
		t.Fatalf("create: %v", err)
	}
	r := newTestRouter(t, newTestService(repo, &staticLLM{}))

	w := doJSON(t, r, http.MethodGet, "/api/v1/decisions/d1", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for other owner, got %d", w.Code)
	}
}

func TestGetDecisionPollThrottled(t *testing.T) {
	repo := NewMemoryRepo()
	if err := repo.Create(context.Background(), pendingDecision("d1", "user-1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	svc := newTestService(repo, &staticLLM{})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", "user-1")
		c.Next()
	})
	now := time.Now()
	h := &Handler{Svc: svc, limiter: newPollLimiter(time.Second, func() time.Time { return now })}
	h.RegisterRoutes(r.Group("/api/v1"))

	first := doJSON(t, r, http.MethodGet, "/api/v1/decisions/d1", "")
	if first.Code != http.StatusOK {
		t.Fatalf("first poll: expected 200, got %d", first.Code)
	}
	second := doJSON(t, r, http.MethodGet, "/api/v1/decisions/d1", "")
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second poll: expected 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}

	now = now.Add(2 * time.Second)
	third := doJSON(t, r, http.MethodGet, "/api/v1/decisions/d1", "")
	if third.Code != http.StatusOK {
		t.Fatalf("third poll after window: expected 200, got %d", third.Code)
	}
}

func TestListDecisions(t *testing.T) {
	repo := NewMemoryRepo()
	first := pendingDecision("d1", "user-1")
	first.CreatedAt = time.Now().UTC().Add(-time.Hour)
	second := pendingDecision("d2", "user-1")
	foreign := pendingDecision("d3", "user-2")
	for _, d := range []Decision{first, second, foreign} {
		if err := repo.Create(context.Background(), d); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	r := newTestRouter(t, newTestService(repo, &staticLLM{}))

	w := doJSON(t, r, http.MethodGet, "/api/v1/decisions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got []Decision
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(got))
	}
	if got[0].ID != "d2" || got[1].ID != "d1" {
		t.Fatalf("expected newest-first ordering, got %s then %s", got[0].ID, got[1].ID)
	}
}

func TestRetryEndpoint(t *testing.T) {
	repo := NewMemoryRepo()
	failed := pendingDecision("d1", "user-1")
	failed.AnalysisStatus = StatusFailed
	if err := repo.Create(context.Background(), failed); err != nil {
		t.Fatalf("create: %v", err)
	}
	block := &blockingLLM{release: make(chan struct{})}
	t.Cleanup(func() { close(block.release) })
	r := newTestRouter(t, newTestService(repo, block))

	w := doJSON(t, r, http.MethodPost, "/api/v1/decisions/d1/retry", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		DecisionID     string `json:"decisionId"`
		AnalysisStatus string `json:"analysisStatus"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AnalysisStatus != StatusPending {
		t.Fatalf("expected pending, got %s", resp.AnalysisStatus)
	}
}

func TestRetryEndpointPendingAndNotFound(t *testing.T) {
	repo := NewMemoryRepo()
	if err := repo.Create(context.Background(), pendingDecision("d1", "user-1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	block := &blockingLLM{release: make(chan struct{})}
	t.Cleanup(func() { close(block.release) })
	r := newTestRouter(t, newTestService(repo, block))

	w := doJSON(t, r, http.MethodPost, "/api/v1/decisions/d1/retry", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202 for pending decision, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/decisions/missing/retry", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing, got %d", w.Code)
	}
}
