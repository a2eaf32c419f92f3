package knowledge

import (
	"context"
	"testing"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdoc/askdoc/internal/document"
	"github.com/askdoc/askdoc/internal/log"
	"github.com/askdoc/askdoc/internal/testutil"
)

func testChunks() []document.Chunk {
	return []document.Chunk{
		{ID: "corpus.txt:0", Content: "cats are independent pets", Metadata: map[string]string{"source": "corpus.txt", "chunk": "0"}},
		{ID: "corpus.txt:1", Content: "dogs are loyal companions", Metadata: map[string]string{"source": "corpus.txt", "chunk": "1"}},
		{ID: "corpus.txt:2", Content: "the weather is sunny today", Metadata: map[string]string{"source": "corpus.txt", "chunk": "2"}},
	}
}

// newControlledEmbedder pins vectors so cosine similarity is exact: the
// query about cats is closest to the cats chunk, then dogs, then weather.
func newControlledEmbedder(t *testing.T) *testutil.MockEmbedder {
	t.Helper()

	e := testutil.NewMockEmbedder(3)
	e.SetVector("cats are independent pets", []float32{1, 0, 0})
	e.SetVector("dogs are loyal companions", []float32{0.5, 0.5, 0})
	e.SetVector("the weather is sunny today", []float32{0, 0, 1})
	e.SetVector("tell me about cats", []float32{1, 0.1, 0})
	return e
}

func newTestIndex(t *testing.T) *ChromemIndex {
	t.Helper()

	g := genkit.Init(context.Background())
	embedder := newControlledEmbedder(t).Register(g)

	index, err := NewChromemIndex(embedder, log.NewNop())
	require.NoError(t, err)
	require.NoError(t, index.Build(context.Background(), testChunks()))
	return index
}

func TestChromemIndex_Build(t *testing.T) {
	t.Parallel()

	t.Run("indexes all chunks", func(t *testing.T) {
		t.Parallel()

		index := newTestIndex(t)
		assert.Equal(t, 3, index.Len())
	})

	t.Run("empty chunk set rejected", func(t *testing.T) {
		t.Parallel()

		g := genkit.Init(context.Background())
		embedder := testutil.NewMockEmbedder(3).Register(g)

		index, err := NewChromemIndex(embedder, log.NewNop())
		require.NoError(t, err)
		require.Error(t, index.Build(context.Background(), nil))
	})
}

func TestChromemIndex_Retrieve(t *testing.T) {
	t.Parallel()

	t.Run("most similar first", func(t *testing.T) {
		t.Parallel()

		index := newTestIndex(t)
		results, err := index.Retrieve(context.Background(), "tell me about cats", 3)
		require.NoError(t, err)
		require.Len(t, results, 3)

		assert.Equal(t, "cats are independent pets", results[0].Content)
		assert.Equal(t, "dogs are loyal companions", results[1].Content)
		assert.Equal(t, "the weather is sunny today", results[2].Content)
		assert.Greater(t, results[0].Similarity, results[1].Similarity)
		assert.Equal(t, "corpus.txt", results[0].Metadata["source"])
	})

	t.Run("k larger than corpus is clamped", func(t *testing.T) {
		t.Parallel()

		index := newTestIndex(t)
		results, err := index.Retrieve(context.Background(), "tell me about cats", 10)
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})

	t.Run("k limits results", func(t *testing.T) {
		t.Parallel()

		index := newTestIndex(t)
		results, err := index.Retrieve(context.Background(), "tell me about cats", 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "cats are independent pets", results[0].Content)
	})

	t.Run("deterministic ordering", func(t *testing.T) {
		t.Parallel()

		index := newTestIndex(t)
		first, err := index.Retrieve(context.Background(), "tell me about cats", 3)
		require.NoError(t, err)
		second, err := index.Retrieve(context.Background(), "tell me about cats", 3)
		require.NoError(t, err)
		assert.Equal(t, Texts(first), Texts(second))
	})
}

func TestTexts(t *testing.T) {
	t.Parallel()

	results := []Result{
		{Content: "first"},
		{Content: "second"},
	}
	assert.Equal(t, []string{"first", "second"}, Texts(results))
	assert.Empty(t, Texts(nil))
}
