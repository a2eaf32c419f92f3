package chat

import (
	"context"
	"testing"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdoc/askdoc/internal/testutil"
)

func TestGenkitInvoker_Generate(t *testing.T) {
	t.Parallel()

	g := genkit.Init(context.Background())
	mock := testutil.NewMockModel("no rule matched")
	mock.AddResponse("capital of france", "Paris")
	mock.Register(g)

	inv, err := NewGenkitInvoker(g, "mock/test-model", 0.3, 1024)
	require.NoError(t, err)

	prompts, err := NewPromptBuilder("You are helpful.", "Context:\n{context}\n\nQuestion: {input}", 0)
	require.NoError(t, err)

	t.Run("returns model text", func(t *testing.T) {
		p := prompts.Build(nil, []string{"France is a country in Europe."}, "What is the capital of France?")

		raw, err := inv.Generate(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, "Paris", raw)
	})

	t.Run("model sees assembled user message", func(t *testing.T) {
		p := prompts.Build(nil, []string{"some retrieved chunk"}, "anything?")

		_, err := inv.Generate(context.Background(), p)
		require.NoError(t, err)

		calls := mock.Calls()
		require.NotEmpty(t, calls)
		last := calls[len(calls)-1]
		assert.Contains(t, last.UserMessage, "some retrieved chunk")
		assert.Contains(t, last.UserMessage, "anything?")
	})
}

func TestNewGenkitInvoker_Validation(t *testing.T) {
	t.Parallel()

	g := genkit.Init(context.Background())

	_, err := NewGenkitInvoker(nil, "model", 0.3, 0)
	require.Error(t, err)

	_, err = NewGenkitInvoker(g, "", 0.3, 0)
	require.Error(t, err)
}
