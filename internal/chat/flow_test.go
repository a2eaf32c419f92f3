package chat

import (
	"context"
	"testing"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Not parallel: the flow singleton is process-wide state.
func TestNewFlow_Singleton(t *testing.T) {
	g := genkit.Init(context.Background())
	require.NotNil(t, g)

	o, _ := newTestOrchestrator(t, &stubRetriever{}, &stubInvoker{results: []any{"hi"}})

	ResetFlowForTesting()
	first := NewFlow(g, o)
	require.NotNil(t, first)

	second := NewFlow(g, o)
	assert.Same(t, first, second, "NewFlow must return the same instance on repeat calls")

	// A fresh Genkit instance avoids re-registering the flow name on the
	// same registry.
	g2 := genkit.Init(context.Background())
	require.NotNil(t, g2)
	ResetFlowForTesting()
	third := NewFlow(g2, o)
	require.NotNil(t, third)
	assert.NotSame(t, first, third, "reset must allow a new flow to be defined")
}
