// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.askdoc/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider, model, temperature, max tokens, embedder
//   - Corpus: document path/encoding, chunk size and overlap
//   - Retrieval: vector store backend, top-k
//   - Prompt: system message and user template
//   - Serve: CORS, proxy trust, rate limiting, observability
//
// All validation happens in Load (fail-fast). A configuration the validator
// rejects never reaches the rest of the application.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel errors for Go-idiomatic checking with errors.Is().
var (
	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidChunking indicates chunk size/overlap values are unusable.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrInvalidTopK indicates the retrieval top-k is out of range.
	ErrInvalidTopK = errors.New("invalid top-k")

	// ErrInvalidEncoding indicates an unsupported document encoding.
	ErrInvalidEncoding = errors.New("invalid document encoding")

	// ErrInvalidVectorStore indicates the vector store backend is unknown.
	ErrInvalidVectorStore = errors.New("invalid vector store")

	// ErrInvalidTemplate indicates the user template is missing a required
	// placeholder.
	ErrInvalidTemplate = errors.New("invalid user template")

	// ErrInvalidPostgres indicates unusable PostgreSQL connection settings.
	ErrInvalidPostgres = errors.New("invalid PostgreSQL configuration")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGoogleAI = "googleai"
	ProviderOllama   = "ollama"
	ProviderOpenAI   = "openai"
)

// Vector store backend identifiers used in Config.VectorStore.
const (
	VectorStoreChromem  = "chromem"
	VectorStorePGVector = "pgvector"
)

// Placeholders the user template must contain. The assembler substitutes
// these at request time; their absence would silently drop retrieved context
// or the question itself, so Load rejects such templates outright.
const (
	PlaceholderContext = "{context}"
	PlaceholderInput   = "{input}"
)

// Config stores application configuration.
type Config struct {
	// AI provider and model configuration
	Provider      string  `mapstructure:"provider"`
	ModelName     string  `mapstructure:"model_name"`
	Temperature   float32 `mapstructure:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens"`
	OllamaHost    string  `mapstructure:"ollama_host"`
	OpenAIBaseURL string  `mapstructure:"openai_base_url"`

	// Corpus configuration
	DocumentPath     string `mapstructure:"document_path"`
	DocumentEncoding string `mapstructure:"document_encoding"`
	ChunkSize        int    `mapstructure:"chunk_size"`
	ChunkOverlap     int    `mapstructure:"chunk_overlap"`

	// Retrieval configuration
	EmbedderModel string `mapstructure:"embedder_model"`
	VectorStore   string `mapstructure:"vector_store"`
	TopK          int    `mapstructure:"top_k"`

	// Prompt configuration
	SystemMessage string `mapstructure:"system_message"`
	UserTemplate  string `mapstructure:"user_template"`

	// Conversation history: 0 means unbounded, matching the demo-scale
	// behavior; set to bound prompt growth on long sessions.
	MaxHistoryTurns int `mapstructure:"max_history_turns"`

	// PostgreSQL (only used when vector_store is "pgvector")
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"` // SENSITIVE: never logged
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`

	// Serve configuration
	CORSOrigins []string `mapstructure:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy"`
	RateBurst   int      `mapstructure:"rate_burst"`

	// Observability (OTLP HTTP trace export; empty host disables)
	OTLPHost    string `mapstructure:"otlp_host"`
	ServiceName string `mapstructure:"service_name"`
	Environment string `mapstructure:"environment"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".askdoc")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // Also support current directory

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// AI defaults
	v.SetDefault("provider", ProviderGoogleAI)
	v.SetDefault("model_name", "gemini-2.5-flash")
	v.SetDefault("temperature", 0.3)
	v.SetDefault("max_tokens", 2048)
	v.SetDefault("ollama_host", "http://localhost:11434")
	v.SetDefault("openai_base_url", "")

	// Corpus defaults
	v.SetDefault("document_path", "docs/corpus.txt")
	v.SetDefault("document_encoding", "utf-8")
	v.SetDefault("chunk_size", 500)
	v.SetDefault("chunk_overlap", 100)

	// Retrieval defaults
	v.SetDefault("embedder_model", "gemini-embedding-001")
	v.SetDefault("vector_store", VectorStoreChromem)
	v.SetDefault("top_k", 4)

	// Prompt defaults
	v.SetDefault("system_message", DefaultSystemMessage)
	v.SetDefault("user_template", DefaultUserTemplate)
	v.SetDefault("max_history_turns", 0)

	// PostgreSQL defaults (matching docker-compose.yml)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "askdoc")
	v.SetDefault("postgres_password", "askdoc_dev_password")
	v.SetDefault("postgres_db_name", "askdoc")
	v.SetDefault("postgres_ssl_mode", "disable")

	// Serve defaults
	v.SetDefault("cors_origins", []string{})
	v.SetDefault("trust_proxy", false)
	v.SetDefault("rate_burst", 60)

	// Observability defaults
	v.SetDefault("otlp_host", "")
	v.SetDefault("service_name", "askdoc")
	v.SetDefault("environment", "dev")
}

// Default prompt texts, carried over from the demo corpus this service was
// built for. Operators localize them via config.
const (
	DefaultSystemMessage = "你是一个中文助手，需要根据用户的问题，从以下文本中回答问题。如果文本中没有答案，请如实回答不知道。"
	DefaultUserTemplate  = "以下是与问题相关的参考资料：\n{context}\n\n问题：{input}"
)

// bindEnvVariables binds environment variable overrides explicitly.
// API keys (GEMINI_API_KEY, OPENAI_API_KEY) are read directly by the Genkit
// plugins, not via Viper; Validate only checks their presence.
func bindEnvVariables(v *viper.Viper) {
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "ASKDOC_PROVIDER")
	mustBind("model_name", "ASKDOC_MODEL_NAME")
	mustBind("ollama_host", "ASKDOC_OLLAMA_HOST")
	mustBind("openai_base_url", "ASKDOC_OPENAI_BASE_URL")
	mustBind("document_path", "ASKDOC_DOCUMENT_PATH")
	mustBind("vector_store", "ASKDOC_VECTOR_STORE")
	mustBind("cors_origins", "ASKDOC_CORS_ORIGINS")
	mustBind("trust_proxy", "ASKDOC_TRUST_PROXY")
	mustBind("rate_burst", "ASKDOC_RATE_BURST")
	mustBind("otlp_host", "ASKDOC_OTLP_HOST")
	mustBind("postgres_password", "ASKDOC_POSTGRES_PASSWORD")
}

// FullModelName returns the provider-qualified model name for Genkit.
// Examples: "googleai/gemini-2.5-flash", "ollama/llama3.3", "openai/gpt-4o".
// If ModelName already contains a "/", it is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	switch c.Provider {
	case ProviderOllama:
		return ProviderOllama + "/" + c.ModelName
	case ProviderOpenAI:
		return ProviderOpenAI + "/" + c.ModelName
	default:
		return ProviderGoogleAI + "/" + c.ModelName
	}
}

// FullEmbedderName returns the provider-qualified embedder name for Genkit.
func (c *Config) FullEmbedderName() string {
	if strings.Contains(c.EmbedderModel, "/") {
		return c.EmbedderModel
	}
	switch c.Provider {
	case ProviderOllama:
		return ProviderOllama + "/" + c.EmbedderModel
	case ProviderOpenAI:
		return ProviderOpenAI + "/" + c.EmbedderModel
	default:
		return ProviderGoogleAI + "/" + c.EmbedderModel
	}
}

// PostgresURL assembles the connection string for the pgvector backend.
func (c *Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort,
		c.PostgresDBName, c.PostgresSSLMode)
}
