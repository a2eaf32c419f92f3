package chat

import (
	"context"
	"sync"

	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
)

// Input defines the request payload for the chat flow.
type Input struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

// Output defines the response payload from the chat flow.
type Output struct {
	Answer    string `json:"answer"`
	SessionID string `json:"sessionId"`
}

// FlowName is the registered name of the chat flow in Genkit.
const FlowName = "askdoc/chat"

// Flow is the type alias for the chat flow, exposing the orchestrator to
// Genkit tooling (DevUI tracing, typed schemas).
type Flow = core.Flow[Input, Output, struct{}]

// Genkit panics when a flow name is registered twice, so the flow is a
// package-level singleton guarded by sync.Once.
var (
	flowOnce sync.Once
	flow     *Flow
)

// NewFlow returns the chat flow singleton, initializing it on first call.
// Subsequent calls return the existing flow (parameters are ignored).
func NewFlow(g *genkit.Genkit, o *Orchestrator) *Flow {
	flowOnce.Do(func() {
		flow = genkit.DefineFlow(g, FlowName,
			func(ctx context.Context, input Input) (Output, error) {
				resp, err := o.Respond(ctx, input.SessionID, input.Message)
				if err != nil {
					return Output{SessionID: input.SessionID}, err
				}
				return Output{Answer: resp.Answer, SessionID: resp.SessionID}, nil
			},
		)
	})
	return flow
}

// ResetFlowForTesting resets the flow singleton so tests can register with
// different configurations. Not safe for concurrent use.
func ResetFlowForTesting() {
	flowOnce = sync.Once{}
	flow = nil
}
