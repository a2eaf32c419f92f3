package chat

import "fmt"

// ResultKind tags the shape of a model invoker's raw result. The shape is
// resolved exactly once at the invoker boundary instead of scattering type
// switches through the pipeline.
type ResultKind int

const (
	// KindPlainText is a bare string result.
	KindPlainText ResultKind = iota

	// KindStructuredOutput is an object carrying a non-empty "output" field.
	KindStructuredOutput

	// KindStructuredContent is an object carrying a non-empty "content"
	// field (and no usable "output").
	KindStructuredContent

	// KindOther is anything else; normalized via best-effort
	// stringification, never an error.
	KindOther
)

// ModelResult is the invoker's result with its shape resolved.
type ModelResult struct {
	Kind ResultKind
	text string
}

// ResolveModelResult classifies a raw invoker result. Deterministic:
//   - string → PlainText, the string itself
//   - object with non-empty "output" → StructuredOutput, that field
//   - object with non-empty "content" → StructuredContent, that field
//   - anything else → Other, fmt string form of the whole value
//
// A result that is neither string nor a recognized object never fails the
// request; the caller still gets a printable answer.
func ResolveModelResult(raw any) ModelResult {
	switch v := raw.(type) {
	case string:
		return ModelResult{Kind: KindPlainText, text: v}
	case map[string]any:
		if s := stringField(v, "output"); s != "" {
			return ModelResult{Kind: KindStructuredOutput, text: s}
		}
		if s := stringField(v, "content"); s != "" {
			return ModelResult{Kind: KindStructuredContent, text: s}
		}
		return ModelResult{Kind: KindOther, text: fmt.Sprintf("%v", v)}
	default:
		return ModelResult{Kind: KindOther, text: fmt.Sprintf("%v", raw)}
	}
}

// Normalize returns the single-string form of the result.
func (r ModelResult) Normalize() string {
	return r.text
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}
