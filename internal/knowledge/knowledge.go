// Package knowledge provides the embedding similarity index the
// orchestrator retrieves context from.
//
// Two backends implement the same surface: an in-process chromem-go
// collection (default, zero external dependencies at runtime) and a
// PostgreSQL + pgvector table for deployments that already run Postgres.
// Both are built once at startup from the corpus chunk set and are
// read-only afterwards.
//
// Ordering: results are ranked most-relevant first under the backend's
// cosine similarity. Ranking is deterministic for a fixed index and query;
// tie-break order across separate index builds is not guaranteed.
package knowledge

// Result is a retrieved chunk with its similarity score (0-1, cosine).
type Result struct {
	Content    string
	Metadata   map[string]string
	Similarity float32
}

// Texts extracts chunk contents from results, preserving rank order.
func Texts(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Content
	}
	return out
}
