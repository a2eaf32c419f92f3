package chat

import (
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdoc/askdoc/internal/session"
)

const testTemplate = "Context:\n{context}\n\nQuestion: {input}"

func TestNewPromptBuilder(t *testing.T) {
	t.Parallel()

	t.Run("valid template", func(t *testing.T) {
		t.Parallel()

		b, err := NewPromptBuilder("You are helpful.", testTemplate, 0)
		require.NoError(t, err)
		assert.NotNil(t, b)
	})

	t.Run("missing context placeholder", func(t *testing.T) {
		t.Parallel()

		_, err := NewPromptBuilder("sys", "Question: {input}", 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "{context}")
	})

	t.Run("missing input placeholder", func(t *testing.T) {
		t.Parallel()

		_, err := NewPromptBuilder("sys", "Context: {context}", 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "{input}")
	})

	t.Run("empty system message", func(t *testing.T) {
		t.Parallel()

		_, err := NewPromptBuilder("   ", testTemplate, 0)
		require.Error(t, err)
	})

	t.Run("negative history limit", func(t *testing.T) {
		t.Parallel()

		_, err := NewPromptBuilder("sys", testTemplate, -1)
		require.Error(t, err)
	})
}

func TestPromptBuilder_Build(t *testing.T) {
	t.Parallel()

	b, err := NewPromptBuilder("You are helpful.", testTemplate, 0)
	require.NoError(t, err)

	t.Run("substitutes context and input", func(t *testing.T) {
		t.Parallel()

		p := b.Build(nil, []string{"chunk one", "chunk two"}, "what is this?")
		require.Len(t, p.Messages, 1)
		assert.Equal(t, "You are helpful.", p.System)

		text := p.Messages[0].Text()
		assert.Contains(t, text, "chunk one\n\nchunk two")
		assert.Contains(t, text, "Question: what is this?")
		assert.NotContains(t, text, "{context}")
		assert.NotContains(t, text, "{input}")
	})

	t.Run("placeholder text inside chunks stays literal", func(t *testing.T) {
		t.Parallel()

		p := b.Build(nil, []string{"docs mention {input} as a placeholder"}, "what is {context}?")
		require.Len(t, p.Messages, 1)

		text := p.Messages[0].Text()
		assert.Contains(t, text, "docs mention {input} as a placeholder")
		assert.Contains(t, text, "Question: what is {context}?")
	})

	t.Run("empty retrieval yields empty context", func(t *testing.T) {
		t.Parallel()

		p := b.Build(nil, nil, "anything indexed?")
		require.Len(t, p.Messages, 1)
		assert.Contains(t, p.Messages[0].Text(), "Context:\n\n")
	})

	t.Run("history precedes current message in order", func(t *testing.T) {
		t.Parallel()

		history := []session.Turn{
			{User: "first question", Assistant: "first answer"},
			{User: "second question", Assistant: "second answer"},
		}
		p := b.Build(history, []string{"ctx"}, "third question")

		require.Len(t, p.Messages, 5)
		assert.Equal(t, ai.RoleUser, p.Messages[0].Role)
		assert.Equal(t, "first question", p.Messages[0].Text())
		assert.Equal(t, ai.RoleModel, p.Messages[1].Role)
		assert.Equal(t, "first answer", p.Messages[1].Text())
		assert.Equal(t, "second question", p.Messages[2].Text())
		assert.Equal(t, "second answer", p.Messages[3].Text())
		assert.Equal(t, ai.RoleUser, p.Messages[4].Role)
		assert.Contains(t, p.Messages[4].Text(), "third question")
	})

	t.Run("does not mutate inputs", func(t *testing.T) {
		t.Parallel()

		history := []session.Turn{{User: "q", Assistant: "a"}}
		chunks := []string{"chunk"}
		b.Build(history, chunks, "input")
		assert.Equal(t, "q", history[0].User)
		assert.Equal(t, []string{"chunk"}, chunks)
	})
}

func TestPromptBuilder_HistoryLimit(t *testing.T) {
	t.Parallel()

	b, err := NewPromptBuilder("sys", testTemplate, 2)
	require.NoError(t, err)

	history := []session.Turn{
		{User: "q1", Assistant: "a1"},
		{User: "q2", Assistant: "a2"},
		{User: "q3", Assistant: "a3"},
	}
	p := b.Build(history, nil, "q4")

	// Only the most recent two turns survive: 2*2 history messages + input.
	require.Len(t, p.Messages, 5)
	assert.Equal(t, "q2", p.Messages[0].Text())
	assert.Equal(t, "q3", p.Messages[2].Text())
}
