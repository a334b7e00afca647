package decisions

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mirror-backend/internal/shared/server/middleware"
	"mirror-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the decisions service.
type Handler struct {
	Svc     *Service
	limiter *pollLimiter
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{
		Svc:     svc,
		limiter: newPollLimiter(pollLimitWindow, time.Now),
	}
}

// RegisterRoutes attaches decision routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/decisions", h.createDecision)
	rg.GET("/decisions", h.listDecisions)
	rg.GET("/decisions/:id", h.getDecision)
	rg.POST("/decisions/:id/retry", h.retryAnalysis)
}

func (h *Handler) createDecision(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req createDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	decision, err := h.Svc.Submit(ctx, userID, SubmitInput{
		Title:     req.Title,
		Situation: req.Situation,
		Decision:  req.Decision,
		Reasoning: req.Reasoning,
	})
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			details := make([]map[string]string, 0, len(validationErr.Fields))
			for _, field := range validationErr.Fields {
				details = append(details, map[string]string{"field": field, "issue": "required"})
			}
			respond.Error(c, http.StatusBadRequest, "validation_error", "Missing required fields", details)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create decision", nil)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"success":  true,
		"decision": decision,
		"message":  "Decision created successfully. Analysis is starting in the background.",
	})
}

func (h *Handler) getDecision(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	decisionID := c.Param("id")
	if decisionID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "decision id is required", nil)
		return
	}

	if !h.limiter.Allow(userID, decisionID) {
		c.Header("Retry-After", strconv.Itoa(h.limiter.RetryAfterSeconds()))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "polling too fast", nil)
		return
	}

	decision, err := h.Svc.Get(c.Request.Context(), userID, decisionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "decision not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch decision", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, decision)
}

func (h *Handler) listDecisions(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := defaultListLimit
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	decisions, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list decisions", nil)
		return
	}

	respond.JSON(c, http.StatusOK, decisions)
}

func (h *Handler) retryAnalysis(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	decisionID := c.Param("id")
	if decisionID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "decision id is required", nil)
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	decision, err := h.Svc.Retry(ctx, userID, decisionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "decision not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to retry analysis", nil)
		}
		return
	}

	respond.JSON(c, http.StatusAccepted, gin.H{
		"decisionId":     decision.ID,
		"analysisStatus": decision.AnalysisStatus,
	})
}
