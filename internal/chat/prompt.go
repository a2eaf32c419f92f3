package chat

import (
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"

	"github.com/askdoc/askdoc/internal/config"
	"github.com/askdoc/askdoc/internal/session"
)

// contextSeparator joins retrieved chunk texts inside the user template.
const contextSeparator = "\n\n"

// Prompt is the fully assembled model input: the fixed system instruction
// plus the conversation as ordered messages, ending with the contextualized
// user message. Rebuilt from scratch on every request, never cached.
type Prompt struct {
	System   string
	Messages []*ai.Message
}

// PromptBuilder deterministically assembles prompts from history, retrieved
// chunks, and the current input.
//
// The builder is immutable after construction and safe for concurrent use.
type PromptBuilder struct {
	system          string
	userTemplate    string
	maxHistoryTurns int // 0 = unbounded
}

// NewPromptBuilder validates the template once at startup. A template
// without the {context} or {input} placeholder would silently drop
// retrieved context or the question, so it is rejected here rather than
// detected at request time.
func NewPromptBuilder(systemMessage, userTemplate string, maxHistoryTurns int) (*PromptBuilder, error) {
	if strings.TrimSpace(systemMessage) == "" {
		return nil, fmt.Errorf("system message must not be empty")
	}
	for _, ph := range []string{config.PlaceholderContext, config.PlaceholderInput} {
		if !strings.Contains(userTemplate, ph) {
			return nil, fmt.Errorf("user template missing %s placeholder", ph)
		}
	}
	if maxHistoryTurns < 0 {
		return nil, fmt.Errorf("max history turns must not be negative")
	}
	return &PromptBuilder{
		system:          systemMessage,
		userTemplate:    userTemplate,
		maxHistoryTurns: maxHistoryTurns,
	}, nil
}

// Build assembles the prompt. History appears verbatim in original turn
// order; chunks are joined with a blank line preserving retrieval order.
// An empty retrieval yields an empty context string, not an error; the
// system message already instructs the model to admit not knowing.
func (b *PromptBuilder) Build(history []session.Turn, chunks []string, input string) Prompt {
	if b.maxHistoryTurns > 0 && len(history) > b.maxHistoryTurns {
		history = history[len(history)-b.maxHistoryTurns:]
	}

	messages := make([]*ai.Message, 0, len(history)*2+1)
	for _, turn := range history {
		messages = append(messages,
			ai.NewUserMessage(ai.NewTextPart(turn.User)),
			ai.NewModelMessage(ai.NewTextPart(turn.Assistant)),
		)
	}

	// Single-pass substitution so placeholder text inside chunks or the
	// input stays inert instead of being rewritten by a later pass.
	userMessage := strings.NewReplacer(
		config.PlaceholderContext, strings.Join(chunks, contextSeparator),
		config.PlaceholderInput, input,
	).Replace(b.userTemplate)
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(userMessage)))

	return Prompt{System: b.system, Messages: messages}
}
