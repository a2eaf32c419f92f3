package chat

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Invoker generates text from an assembled prompt. The raw result is
// normalized by the orchestrator (see ResolveModelResult); implementations
// may return a plain string or a structured object.
//
// Retry policy, if any, belongs to the implementation; the orchestrator
// never retries.
type Invoker interface {
	Generate(ctx context.Context, prompt Prompt) (any, error)
}

// Retriever returns the top-k chunk texts most similar to query, most
// relevant first. Interface defined here, by the consumer; satisfied by
// the knowledge package backends through RetrieverFunc.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// RetrieverFunc adapts a function to the Retriever interface.
type RetrieverFunc func(ctx context.Context, query string, k int) ([]string, error)

func (f RetrieverFunc) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	return f(ctx, query, k)
}

// GenkitInvoker invokes the configured model through Genkit.
type GenkitInvoker struct {
	g           *genkit.Genkit
	modelName   string // provider-qualified, e.g. "googleai/gemini-2.5-flash"
	temperature float32
	maxTokens   int
}

// NewGenkitInvoker creates an Invoker bound to a provider-qualified model
// name. Temperature and maxTokens are captured immutably at construction.
func NewGenkitInvoker(g *genkit.Genkit, modelName string, temperature float32, maxTokens int) (*GenkitInvoker, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	return &GenkitInvoker{
		g:           g,
		modelName:   modelName,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

// Generate runs the model once. Timeouts and upstream failures surface as
// errors; the orchestrator classifies them as model errors.
func (inv *GenkitInvoker) Generate(ctx context.Context, prompt Prompt) (any, error) {
	resp, err := genkit.Generate(ctx, inv.g,
		ai.WithModelName(inv.modelName),
		ai.WithSystem(prompt.System),
		ai.WithMessages(prompt.Messages...),
		ai.WithConfig(&ai.GenerationCommonConfig{
			Temperature:     float64(inv.temperature),
			MaxOutputTokens: inv.maxTokens,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("generating response: %w", err)
	}
	return resp.Text(), nil
}
