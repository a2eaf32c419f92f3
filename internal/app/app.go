// Package app provides application initialization and dependency wiring.
//
// Setup constructs every component exactly once at startup (Genkit,
// embedder, corpus index, session store, orchestrator) and injects them
// explicitly. There are no import-time singletons: the dependency graph is
// visible here and substitutable in tests.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/askdoc/askdoc/internal/chat"
	"github.com/askdoc/askdoc/internal/config"
	"github.com/askdoc/askdoc/internal/session"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	// Core services
	Genkit       *genkit.Genkit
	Embedder     ai.Embedder
	Sessions     *session.Store
	Orchestrator *chat.Orchestrator

	// Only set for the pgvector backend.
	dbPool *pgxpool.Pool

	// Lifecycle
	otelShutdown func()
}

// Close gracefully releases all resources.
func (a *App) Close() error {
	a.Logger.Info("shutting down application")

	if a.dbPool != nil {
		a.dbPool.Close()
		a.Logger.Info("database pool closed")
	}

	if a.otelShutdown != nil {
		a.otelShutdown()
	}

	return nil
}
