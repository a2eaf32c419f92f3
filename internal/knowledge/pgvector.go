package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/askdoc/askdoc/internal/document"
)

// PGVectorIndex stores chunk embeddings in PostgreSQL with the pgvector
// extension. Cosine distance ordering; the table is created on Build.
//
// The pool must have pgvector types registered on each connection (see
// pgxvector.RegisterTypes); app setup does this via AfterConnect.
//
// PGVectorIndex is safe for concurrent use by multiple goroutines.
type PGVectorIndex struct {
	pool     *pgxpool.Pool
	embedder ai.Embedder
	logger   *slog.Logger
}

// NewPGVectorIndex creates an index over the given connection pool.
func NewPGVectorIndex(pool *pgxpool.Pool, embedder ai.Embedder, logger *slog.Logger) *PGVectorIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &PGVectorIndex{pool: pool, embedder: embedder, logger: logger}
}

// Build creates the schema and upserts embeddings for the chunk set.
// Idempotent: re-running replaces rows by chunk ID, so a restart against an
// unchanged corpus converges to the same table.
func (x *PGVectorIndex) Build(ctx context.Context, chunks []document.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to index")
	}

	// The vector column dimension follows the embedder, discovered from the
	// first chunk.
	first, err := embedText(ctx, x.embedder, chunks[0].Content)
	if err != nil {
		return fmt.Errorf("probing embedder dimension: %w", err)
	}

	if err := x.createSchema(ctx, len(first)); err != nil {
		return err
	}

	for i, c := range chunks {
		var embedding []float32
		if i == 0 {
			embedding = first
		} else {
			embedding, err = embedText(ctx, x.embedder, c.Content)
			if err != nil {
				return fmt.Errorf("embedding chunk %q: %w", c.ID, err)
			}
		}

		metadataJSON, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling metadata for %q: %w", c.ID, err)
		}

		_, err = x.pool.Exec(ctx, `
			INSERT INTO askdoc_chunks (id, content, metadata, embedding)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET content = EXCLUDED.content,
			    metadata = EXCLUDED.metadata,
			    embedding = EXCLUDED.embedding`,
			c.ID, c.Content, metadataJSON, pgvector.NewVector(embedding))
		if err != nil {
			return fmt.Errorf("upserting chunk %q: %w", c.ID, err)
		}
	}

	x.logger.Info("vector index built", "backend", "pgvector", "chunks", len(chunks), "dimension", len(first))
	return nil
}

// createSchema sets up the extension and chunk table. One table, one DDL
// statement each; ON CONFLICT upserts make repeated startups idempotent.
func (x *PGVectorIndex) createSchema(ctx context.Context, dimension int) error {
	if _, err := x.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("creating vector extension: %w", err)
	}

	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS askdoc_chunks (
			id        text PRIMARY KEY,
			content   text NOT NULL,
			metadata  jsonb,
			embedding vector(%d) NOT NULL
		)`, dimension)
	if _, err := x.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("creating chunk table: %w", err)
	}
	return nil
}

// Retrieve returns the top-k chunks most similar to query, most relevant
// first (cosine similarity).
func (x *PGVectorIndex) Retrieve(ctx context.Context, query string, k int) ([]Result, error) {
	if k <= 0 {
		return nil, nil
	}

	queryEmbedding, err := embedText(ctx, x.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	rows, err := x.pool.Query(ctx, `
		SELECT content, metadata, 1 - (embedding <=> $1) AS similarity
		FROM askdoc_chunks
		ORDER BY embedding <=> $1
		LIMIT $2`,
		pgvector.NewVector(queryEmbedding), k)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var content string
		var metadataJSON []byte
		var similarity float64
		if err := rows.Scan(&content, &metadataJSON, &similarity); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}

		var metadata map[string]string
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
				x.logger.Warn("failed to parse chunk metadata", "error", err)
				metadata = map[string]string{}
			}
		}

		results = append(results, Result{
			Content:    content,
			Metadata:   metadata,
			Similarity: float32(similarity),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading results: %w", err)
	}
	return results, nil
}
