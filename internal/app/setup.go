package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/askdoc/askdoc/internal/chat"
	"github.com/askdoc/askdoc/internal/config"
	"github.com/askdoc/askdoc/internal/document"
	"github.com/askdoc/askdoc/internal/knowledge"
	"github.com/askdoc/askdoc/internal/session"
)

// retriever is the index surface Setup wires into the orchestrator; both
// knowledge backends satisfy it.
type retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]knowledge.Result, error)
}

// Setup creates and initializes the application.
// Returns an App with embedded cleanup; call Close() to release.
//
// Every failure here is a startup configuration problem: Setup aborting is
// the fail-fast path the config package's validation begins.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized.
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.otelShutdown = provideOtelShutdown(ctx, cfg, logger)

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder

	index, err := a.provideIndex(ctx, cfg, embedder, logger)
	if err != nil {
		return nil, err
	}

	a.Sessions = session.NewStore()

	prompts, err := chat.NewPromptBuilder(cfg.SystemMessage, cfg.UserTemplate, cfg.MaxHistoryTurns)
	if err != nil {
		return nil, fmt.Errorf("building prompt template: %w", err)
	}

	invoker, err := chat.NewGenkitInvoker(g, cfg.FullModelName(), cfg.Temperature, cfg.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("creating model invoker: %w", err)
	}

	orchestrator, err := chat.New(chat.Config{
		Sessions: a.Sessions,
		Retriever: chat.RetrieverFunc(func(ctx context.Context, query string, k int) ([]string, error) {
			results, err := index.Retrieve(ctx, query, k)
			if err != nil {
				return nil, err
			}
			return knowledge.Texts(results), nil
		}),
		Invoker: invoker,
		Prompts: prompts,
		Logger:  logger.With("component", "chat"),
		TopK:    cfg.TopK,
	})
	if err != nil {
		return nil, fmt.Errorf("creating orchestrator: %w", err)
	}
	a.Orchestrator = orchestrator

	return a, nil
}

// provideIndex loads the corpus, splits it, and builds the configured
// vector index. The index is read-only after this returns.
func (a *App) provideIndex(ctx context.Context, cfg *config.Config, embedder ai.Embedder, logger *slog.Logger) (retriever, error) {
	doc, err := document.Load(cfg.DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}

	chunks := document.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap).Split(doc)
	logger.Info("corpus loaded",
		"path", cfg.DocumentPath,
		"bytes", len(doc.Content),
		"chunks", len(chunks),
	)

	switch cfg.VectorStore {
	case config.VectorStorePGVector:
		pool, err := provideDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.dbPool = pool
		index := knowledge.NewPGVectorIndex(pool, embedder, logger.With("component", "knowledge"))
		if err := index.Build(ctx, chunks); err != nil {
			return nil, fmt.Errorf("building pgvector index: %w", err)
		}
		return index, nil

	default: // chromem; unknown values are rejected by config validation
		index, err := knowledge.NewChromemIndex(embedder, logger.With("component", "knowledge"))
		if err != nil {
			return nil, fmt.Errorf("creating index: %w", err)
		}
		if err := index.Build(ctx, chunks); err != nil {
			return nil, fmt.Errorf("building index: %w", err)
		}
		return index, nil
	}
}

// provideOtelShutdown sets up OTLP HTTP trace export before Genkit
// initialization so Genkit's TracerProvider is ready. Returns a shutdown
// function; tracing is disabled (noop shutdown) when no OTLP host is
// configured.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger *slog.Logger) func() {
	if cfg.OTLPHost == "" {
		return func() {}
	}

	// SAFETY: os.Setenv is not concurrent-safe, but this runs exactly once
	// during startup, before goroutines are spawned.
	if cfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}
	if cfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+cfg.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OTLPHost),
		otlptracehttp.WithInsecure(), // local agent, no TLS
	)
	if err != nil {
		logger.Warn("creating trace exporter, tracing disabled", "error", err)
		return func() {}
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideGenkit initializes Genkit with the configured AI provider plugin.
// Supports googleai (default), ollama, and openai providers.
func provideGenkit(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*genkit.Genkit, error) {
	var g *genkit.Genkit

	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit model registration (no auto-discovery)
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized Genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)

	case config.ProviderOpenAI:
		// The openai-go client honors OPENAI_BASE_URL, which is how
		// OpenAI-compatible endpoints (DashScope et al.) are targeted.
		if cfg.OpenAIBaseURL != "" {
			_ = os.Setenv("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
		}
		g = genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}
		logger.Info("initialized Genkit with openai provider", "model", cfg.ModelName)

	default: // googleai
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with googleai provider")
		}
		logger.Info("initialized Genkit with googleai provider", "model", cfg.ModelName)
	}

	return g, nil
}

// provideEmbedder looks up the embedder registered by the AI provider
// plugin. Each provider registers embedders differently:
//   - googleai: GoogleAIEmbedder(g, modelName)
//   - ollama: registered in provideGenkit, keyed by server address
//   - openai: auto-registered in Init(), looked up by model name
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.Embedder(g, cfg.OllamaHost)
	case config.ProviderOpenAI:
		return genkit.LookupEmbedder(g, api.NewName("openai", cfg.EmbedderModel))
	default:
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}

// provideDBPool creates the PostgreSQL connection pool for the pgvector
// backend, registering pgvector types on every connection.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresURL())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}
