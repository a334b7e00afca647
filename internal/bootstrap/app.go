// Package bootstrap wires configuration, storage, providers, and the
// HTTP surface into a runnable application.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "mirror-backend/internal/auth"
	"mirror-backend/internal/decisions"
	"mirror-backend/internal/llm"
	anthropicllm "mirror-backend/internal/llm/anthropic"
	openaillm "mirror-backend/internal/llm/openai"
	"mirror-backend/internal/shared/config"
	"mirror-backend/internal/shared/server"
	"mirror-backend/internal/shared/storage/db"
	"mirror-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB

	DecisionsRepo    decisions.Repo
	UsersRepo        users.Repo
	DecisionsService *decisions.Service
	UsersService     *users.Service
	DecisionHandler  *decisions.Handler
	UsersHandler     *users.Handler
	GoogleAuth       *googleauth.GoogleService
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
	}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		DecisionHandler: app.DecisionHandler,
		UserHandler:     app.UsersHandler,
		GoogleAuth:      app.GoogleAuth,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildServices(app *App) error {
	var decisionsRepo decisions.Repo
	var usersRepo users.Repo
	if app.DB != nil {
		decisionsRepo = &decisions.PGRepo{DB: app.DB}
		usersRepo = &users.PGRepo{DB: app.DB}
	} else {
		decisionsRepo = decisions.NewMemoryRepo()
		usersRepo = users.NewMemoryRepo()
	}

	llmClient, err := buildLLM(app.Config)
	if err != nil {
		return err
	}

	decisionsSvc := decisions.NewService(decisionsRepo, llmClient, app.Config.LLMProvider, app.Config.LLMModel, decisions.ServiceOptions{
		ListCacheTTL:     app.Config.ListCacheTTL,
		StoreReadRetries: app.Config.StoreReadRetries,
		StoreRetryDelay:  app.Config.StoreRetryDelay,
	})

	usersSvc := users.NewService(usersRepo)
	googleAuthSvc := googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		usersSvc,
	)

	app.DecisionsRepo = decisionsRepo
	app.UsersRepo = usersRepo
	app.DecisionsService = decisionsSvc
	app.UsersService = usersSvc
	app.DecisionHandler = decisions.NewHandler(decisionsSvc)
	app.UsersHandler = users.NewHandler(usersSvc)
	app.GoogleAuth = googleAuthSvc
	return nil
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if strings.TrimSpace(apiKey) == "" {
			log.Printf("bootstrap: ANTHROPIC_API_KEY empty; analyses will fail until configured")
			return llm.PlaceholderClient{}, nil
		}
		return anthropicllm.NewClient(apiKey, cfg.LLMModel, cfg.LLMTimeout)
	default:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if strings.TrimSpace(apiKey) == "" {
			log.Printf("bootstrap: OPENAI_API_KEY empty; analyses will fail until configured")
			return llm.PlaceholderClient{}, nil
		}
		return openaillm.NewClient(apiKey, cfg.LLMModel, cfg.LLMTimeout)
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
