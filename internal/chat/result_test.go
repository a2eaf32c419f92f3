package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveModelResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      any
		wantKind ResultKind
		wantText string
	}{
		{
			name:     "plain string",
			raw:      "hello",
			wantKind: KindPlainText,
			wantText: "hello",
		},
		{
			name:     "object with output field",
			raw:      map[string]any{"output": "structured answer"},
			wantKind: KindStructuredOutput,
			wantText: "structured answer",
		},
		{
			name:     "object with content field",
			raw:      map[string]any{"content": "content answer"},
			wantKind: KindStructuredContent,
			wantText: "content answer",
		},
		{
			name:     "output wins over content",
			raw:      map[string]any{"output": "from output", "content": "from content"},
			wantKind: KindStructuredOutput,
			wantText: "from output",
		},
		{
			name:     "empty output falls through to content",
			raw:      map[string]any{"output": "", "content": "fallback"},
			wantKind: KindStructuredContent,
			wantText: "fallback",
		},
		{
			name:     "non-string output field is ignored",
			raw:      map[string]any{"output": 42, "content": "real"},
			wantKind: KindStructuredContent,
			wantText: "real",
		},
		{
			name:     "unrecognized object stringified",
			raw:      map[string]any{"answer": "elsewhere"},
			wantKind: KindOther,
			wantText: "map[answer:elsewhere]",
		},
		{
			name:     "integer stringified",
			raw:      7,
			wantKind: KindOther,
			wantText: "7",
		},
		{
			name:     "nil stringified",
			raw:      nil,
			wantKind: KindOther,
			wantText: "<nil>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ResolveModelResult(tt.raw)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantText, got.Normalize())
		})
	}
}
