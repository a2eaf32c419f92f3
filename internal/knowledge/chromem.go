package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/firebase/genkit/go/ai"
	chromem "github.com/philippgille/chromem-go"

	"github.com/askdoc/askdoc/internal/document"
)

// collectionName identifies the single corpus collection.
const collectionName = "corpus"

// ChromemIndex is the default in-process vector index, backed by a
// chromem-go collection. Safe for concurrent use after Build.
type ChromemIndex struct {
	collection *chromem.Collection
	logger     *slog.Logger
}

// NewChromemIndex creates an empty index using the given Genkit embedder
// for both document and query embeddings.
func NewChromemIndex(embedder ai.Embedder, logger *slog.Logger) (*ChromemIndex, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection(collectionName, nil, NewEmbeddingFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	return &ChromemIndex{collection: collection, logger: logger}, nil
}

// Build embeds and stores the chunk set. Called once at startup; the index
// is read-only afterwards.
func (x *ChromemIndex) Build(ctx context.Context, chunks []document.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to index")
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:       c.ID,
			Content:  c.Content,
			Metadata: c.Metadata,
		}
	}

	if err := x.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("indexing chunks: %w", err)
	}

	x.logger.Info("vector index built", "backend", "chromem", "chunks", len(chunks))
	return nil
}

// Retrieve returns the top-k chunks most similar to query, most relevant
// first.
func (x *ChromemIndex) Retrieve(ctx context.Context, query string, k int) ([]Result, error) {
	// chromem rejects queries asking for more results than stored documents.
	if count := x.collection.Count(); k > count {
		k = count
	}
	if k <= 0 {
		return nil, nil
	}

	hits, err := x.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	results := make([]Result, len(hits))
	for i, h := range hits {
		results[i] = Result{
			Content:    h.Content,
			Metadata:   h.Metadata,
			Similarity: h.Similarity,
		}
	}
	return results, nil
}

// Len returns the number of indexed chunks.
func (x *ChromemIndex) Len() int {
	return x.collection.Count()
}
