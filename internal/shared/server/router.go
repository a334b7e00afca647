package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	googleauth "mirror-backend/internal/auth"
	"mirror-backend/internal/decisions"
	"mirror-backend/internal/shared/config"
	"mirror-backend/internal/shared/metrics"
	"mirror-backend/internal/shared/server/middleware"
	"mirror-backend/internal/shared/server/respond"
	"mirror-backend/internal/users"
)

// RouterDeps carries the handlers the router mounts. Building them is
// the bootstrap package's job.
type RouterDeps struct {
	Config          config.Config
	DecisionHandler *decisions.Handler
	UserHandler     *users.Handler
	GoogleAuth      *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"WRITE": {Rate: 1, Burst: 5},
			},
			GroupFor: func(c *gin.Context) string {
				if c.Request.Method == http.MethodPost {
					return "WRITE"
				}
				return ""
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.DecisionHandler != nil {
		deps.DecisionHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
