package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JerePrograma/laburen-agent/internal/agent"
	"github.com/JerePrograma/laburen-agent/internal/config"
	"github.com/JerePrograma/laburen-agent/internal/crm"
	"github.com/JerePrograma/laburen-agent/internal/database"
	"github.com/JerePrograma/laburen-agent/internal/embedding"
	"github.com/JerePrograma/laburen-agent/internal/knowledge"
	"github.com/JerePrograma/laburen-agent/internal/llm"
	"github.com/JerePrograma/laburen-agent/internal/log"
	"github.com/JerePrograma/laburen-agent/internal/session"
	"github.com/JerePrograma/laburen-agent/internal/tools"
)

// application is the composition root shared by serve and chat.
type application struct {
	Config       *config.Config
	Logger       log.Logger
	Pool         *pgxpool.Pool
	Orchestrator *agent.Orchestrator

	cleanup func()
}

// setup loads configuration and assembles the full stack: database
// pool, stores, provider clients, tool registry and orchestrator.
func setup(ctx context.Context, logger log.Logger) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	pool, cleanup, err := database.NewPool(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sessions := session.New(pool, logger.With("component", "session"),
		session.WithHistoryLimit(cfg.HistoryLimit))
	crmStore := crm.New(pool, logger.With("component", "crm"))

	embedder, err := embedding.New(embedding.Config{
		BaseURL: cfg.EmbedderBaseURL,
		APIKey:  cfg.AIAPIKey,
		Model:   cfg.EmbedderModel,
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("creating embedding client: %w", err)
	}
	docs := knowledge.New(pool, embedder, logger.With("component", "knowledge"))

	completer, err := llm.New(llm.Config{
		BaseURL: cfg.AIBaseURL,
		APIKey:  cfg.AIAPIKey,
		Model:   cfg.ModelName,
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("creating completion client: %w", err)
	}

	registry, err := tools.NewRegistry(tools.Config{
		CRM:    crmStore,
		Docs:   docs,
		Logger: logger.With("component", "tools"),
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("building tool registry: %w", err)
	}

	orchestrator, err := agent.New(agent.Config{
		Sessions:      sessions,
		Registry:      registry,
		Completer:     completer,
		Logger:        logger.With("component", "agent"),
		MaxIterations: cfg.MaxIterations,
		Temperature:   cfg.Temperature,
		MaxTokens:     cfg.MaxTokens,
		StreamDelay:   time.Duration(cfg.StreamDelayMS) * time.Millisecond,
		ChunkSize:     cfg.ChunkSize,
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("building orchestrator: %w", err)
	}

	return &application{
		Config:       cfg,
		Logger:       logger,
		Pool:         pool,
		Orchestrator: orchestrator,
		cleanup:      cleanup,
	}, nil
}

// Close releases the application's resources.
func (a *application) Close() {
	if a.cleanup != nil {
		a.cleanup()
	}
}
