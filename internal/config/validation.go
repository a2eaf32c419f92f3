package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Validate checks the configuration for correctness.
// Called by Load immediately after unmarshaling (fail-fast): a request must
// never be the first place a bad template or an unknown backend shows up.
func (c *Config) Validate() error {
	if err := c.validateAI(); err != nil {
		return err
	}
	if err := c.validateCorpus(); err != nil {
		return err
	}
	if err := c.validateRetrieval(); err != nil {
		return err
	}
	return c.validatePrompt()
}

func (c *Config) validateAI() error {
	switch c.Provider {
	case ProviderGoogleAI, ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("%w: %q (supported: googleai, ollama, openai)", ErrInvalidProvider, c.Provider)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidProvider)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %v (must be in [0, 2])", ErrInvalidTemperature, c.Temperature)
	}

	// Ollama runs locally without credentials; the hosted providers need a key.
	switch c.Provider {
	case ProviderGoogleAI:
		if os.Getenv("GEMINI_API_KEY") == "" && os.Getenv("GOOGLE_API_KEY") == "" {
			return fmt.Errorf("%w: set GEMINI_API_KEY for provider %q", ErrMissingAPIKey, c.Provider)
		}
	case ProviderOpenAI:
		if os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("%w: set OPENAI_API_KEY for provider %q", ErrMissingAPIKey, c.Provider)
		}
	}
	return nil
}

// supportedExtensions limits the corpus to formats the loader understands.
// The original system also shipped pdf/docx loaders; those formats are out
// of scope here and rejected with the same unsupported-format error.
var supportedExtensions = map[string]struct{}{
	".txt": {},
	".md":  {},
}

func (c *Config) validateCorpus() error {
	if c.DocumentPath == "" {
		return fmt.Errorf("%w: document path must not be empty", ErrInvalidChunking)
	}

	ext := strings.ToLower(filepath.Ext(c.DocumentPath))
	if _, ok := supportedExtensions[ext]; !ok {
		return fmt.Errorf("unsupported document format %q (supported: .txt, .md)", ext)
	}

	enc := strings.ToLower(c.DocumentEncoding)
	if enc != "utf-8" && enc != "utf8" {
		return fmt.Errorf("%w: %q (only utf-8 is supported)", ErrInvalidEncoding, c.DocumentEncoding)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size %d must be positive", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap %d must be in [0, chunk_size)", ErrInvalidChunking, c.ChunkOverlap)
	}
	return nil
}

func (c *Config) validateRetrieval() error {
	switch c.VectorStore {
	case VectorStoreChromem:
	case VectorStorePGVector:
		if c.PostgresHost == "" || c.PostgresDBName == "" {
			return fmt.Errorf("%w: host and database name are required", ErrInvalidPostgres)
		}
		if c.PostgresPort < 1 || c.PostgresPort > 65535 {
			return fmt.Errorf("%w: port %d out of range", ErrInvalidPostgres, c.PostgresPort)
		}
	default:
		return fmt.Errorf("%w: %q (supported: chromem, pgvector)", ErrInvalidVectorStore, c.VectorStore)
	}

	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder model must not be empty", ErrInvalidVectorStore)
	}
	if c.TopK < 1 || c.TopK > 50 {
		return fmt.Errorf("%w: %d (must be in [1, 50])", ErrInvalidTopK, c.TopK)
	}
	return nil
}

func (c *Config) validatePrompt() error {
	if strings.TrimSpace(c.SystemMessage) == "" {
		return fmt.Errorf("%w: system message must not be empty", ErrInvalidTemplate)
	}
	for _, ph := range []string{PlaceholderContext, PlaceholderInput} {
		if !strings.Contains(c.UserTemplate, ph) {
			return fmt.Errorf("%w: missing %s placeholder", ErrInvalidTemplate, ph)
		}
	}
	if c.MaxHistoryTurns < 0 {
		return fmt.Errorf("%w: max_history_turns must not be negative", ErrInvalidTemplate)
	}
	return nil
}
