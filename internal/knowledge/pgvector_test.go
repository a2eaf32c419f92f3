package knowledge

import (
	"context"
	"testing"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdoc/askdoc/internal/log"
	"github.com/askdoc/askdoc/internal/testutil"
)

// TestPGVectorIndex exercises the PostgreSQL backend end to end against a
// real pgvector container.
func TestPGVectorIndex(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	g := genkit.Init(ctx)
	embedder := newControlledEmbedder(t).Register(g)

	index := NewPGVectorIndex(db.Pool, embedder, log.NewNop())
	require.NoError(t, index.Build(ctx, testChunks()))

	t.Run("most similar first", func(t *testing.T) {
		results, err := index.Retrieve(ctx, "tell me about cats", 2)
		require.NoError(t, err)
		require.Len(t, results, 2)

		assert.Equal(t, "cats are independent pets", results[0].Content)
		assert.Equal(t, "dogs are loyal companions", results[1].Content)
		assert.Greater(t, results[0].Similarity, results[1].Similarity)
		assert.Equal(t, "corpus.txt", results[0].Metadata["source"])
	})

	t.Run("k larger than corpus", func(t *testing.T) {
		results, err := index.Retrieve(ctx, "tell me about cats", 50)
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})

	t.Run("rebuild is idempotent", func(t *testing.T) {
		require.NoError(t, index.Build(ctx, testChunks()))

		var count int
		require.NoError(t, db.Pool.QueryRow(ctx,
			"SELECT COUNT(*) FROM askdoc_chunks").Scan(&count))
		assert.Equal(t, 3, count)
	})

	t.Run("empty chunk set rejected", func(t *testing.T) {
		require.Error(t, index.Build(ctx, nil))
	})
}
