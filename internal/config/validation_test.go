package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a configuration that passes Validate. Tests mutate
// single fields to probe individual rules.
func validConfig() *Config {
	return &Config{
		Provider:         ProviderOllama, // no API key needed
		ModelName:        "qwen2.5",
		Temperature:      0.3,
		MaxTokens:        2048,
		OllamaHost:       "http://localhost:11434",
		DocumentPath:     "docs/corpus.txt",
		DocumentEncoding: "utf-8",
		ChunkSize:        500,
		ChunkOverlap:     100,
		EmbedderModel:    "nomic-embed-text",
		VectorStore:      VectorStoreChromem,
		TopK:             4,
		SystemMessage:    "You answer from the given context.",
		UserTemplate:     "Context: {context}\nQuestion: {input}",
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validConfig().Validate())
}

func TestValidate_AI(t *testing.T) {
	// Not parallel: the API key subtests mutate process env via t.Setenv.

	t.Run("unknown provider", func(t *testing.T) {
		t.Parallel()

		c := validConfig()
		c.Provider = "mistral"
		err := c.Validate()
		require.ErrorIs(t, err, ErrInvalidProvider)
	})

	t.Run("empty model name", func(t *testing.T) {
		t.Parallel()

		c := validConfig()
		c.ModelName = ""
		require.ErrorIs(t, c.Validate(), ErrInvalidProvider)
	})

	t.Run("temperature bounds", func(t *testing.T) {
		t.Parallel()

		for _, temp := range []float32{-0.1, 2.1} {
			c := validConfig()
			c.Temperature = temp
			assert.ErrorIs(t, c.Validate(), ErrInvalidTemperature, "temperature %v", temp)
		}

		for _, temp := range []float32{0, 1, 2} {
			c := validConfig()
			c.Temperature = temp
			assert.NoError(t, c.Validate(), "temperature %v", temp)
		}
	})

	t.Run("googleai requires API key", func(t *testing.T) {
		// Mutates process env: not parallel.
		t.Setenv("GEMINI_API_KEY", "")
		t.Setenv("GOOGLE_API_KEY", "")

		c := validConfig()
		c.Provider = ProviderGoogleAI
		require.ErrorIs(t, c.Validate(), ErrMissingAPIKey)

		t.Setenv("GEMINI_API_KEY", "test-key")
		require.NoError(t, c.Validate())
	})

	t.Run("openai requires API key", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")

		c := validConfig()
		c.Provider = ProviderOpenAI
		require.ErrorIs(t, c.Validate(), ErrMissingAPIKey)

		t.Setenv("OPENAI_API_KEY", "test-key")
		require.NoError(t, c.Validate())
	})
}

func TestValidate_Corpus(t *testing.T) {
	t.Parallel()

	t.Run("unsupported extension", func(t *testing.T) {
		t.Parallel()

		c := validConfig()
		c.DocumentPath = "docs/corpus.pdf"
		err := c.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported document format")
	})

	t.Run("markdown accepted", func(t *testing.T) {
		t.Parallel()

		c := validConfig()
		c.DocumentPath = "README.md"
		require.NoError(t, c.Validate())
	})

	t.Run("non-utf8 encoding rejected", func(t *testing.T) {
		t.Parallel()

		c := validConfig()
		c.DocumentEncoding = "gbk"
		require.ErrorIs(t, c.Validate(), ErrInvalidEncoding)
	})

	t.Run("chunking bounds", func(t *testing.T) {
		t.Parallel()

		c := validConfig()
		c.ChunkSize = 0
		require.ErrorIs(t, c.Validate(), ErrInvalidChunking)

		c = validConfig()
		c.ChunkOverlap = c.ChunkSize
		require.ErrorIs(t, c.Validate(), ErrInvalidChunking)

		c = validConfig()
		c.ChunkOverlap = -1
		require.ErrorIs(t, c.Validate(), ErrInvalidChunking)
	})
}

func TestValidate_Retrieval(t *testing.T) {
	t.Parallel()

	t.Run("unknown backend", func(t *testing.T) {
		t.Parallel()

		c := validConfig()
		c.VectorStore = "qdrant"
		require.ErrorIs(t, c.Validate(), ErrInvalidVectorStore)
	})

	t.Run("pgvector requires connection settings", func(t *testing.T) {
		t.Parallel()

		c := validConfig()
		c.VectorStore = VectorStorePGVector
		require.ErrorIs(t, c.Validate(), ErrInvalidPostgres)

		c.PostgresHost = "localhost"
		c.PostgresDBName = "askdoc"
		c.PostgresPort = 5432
		require.NoError(t, c.Validate())

		c.PostgresPort = 70000
		require.ErrorIs(t, c.Validate(), ErrInvalidPostgres)
	})

	t.Run("top-k bounds", func(t *testing.T) {
		t.Parallel()

		for _, k := range []int{0, 51} {
			c := validConfig()
			c.TopK = k
			assert.ErrorIs(t, c.Validate(), ErrInvalidTopK, "top-k %d", k)
		}
	})
}

func TestValidate_Prompt(t *testing.T) {
	t.Parallel()

	t.Run("missing placeholders", func(t *testing.T) {
		t.Parallel()

		c := validConfig()
		c.UserTemplate = "no placeholders at all"
		require.ErrorIs(t, c.Validate(), ErrInvalidTemplate)

		c.UserTemplate = "only {input}"
		require.ErrorIs(t, c.Validate(), ErrInvalidTemplate)

		c.UserTemplate = "only {context}"
		require.ErrorIs(t, c.Validate(), ErrInvalidTemplate)
	})

	t.Run("empty system message", func(t *testing.T) {
		t.Parallel()

		c := validConfig()
		c.SystemMessage = "   "
		require.ErrorIs(t, c.Validate(), ErrInvalidTemplate)
	})

	t.Run("negative history limit", func(t *testing.T) {
		t.Parallel()

		c := validConfig()
		c.MaxHistoryTurns = -1
		require.ErrorIs(t, c.Validate(), ErrInvalidTemplate)
	})
}

func TestPostgresURL(t *testing.T) {
	t.Parallel()

	c := validConfig()
	c.PostgresHost = "db.internal"
	c.PostgresPort = 5432
	c.PostgresUser = "askdoc"
	c.PostgresPassword = "secret"
	c.PostgresDBName = "askdoc"
	c.PostgresSSLMode = "disable"

	url := c.PostgresURL()
	assert.Contains(t, url, "db.internal:5432")
	assert.Contains(t, url, "sslmode=disable")
}

func TestFullModelName(t *testing.T) {
	t.Parallel()

	c := validConfig()
	c.Provider = ProviderGoogleAI
	c.ModelName = "gemini-2.5-flash"
	assert.Equal(t, "googleai/gemini-2.5-flash", c.FullModelName())

	c.Provider = ProviderOllama
	c.ModelName = "qwen2.5"
	assert.Equal(t, "ollama/qwen2.5", c.FullModelName())
}
