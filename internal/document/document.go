// Package document loads the source corpus and splits it into overlapping
// chunks for indexing.
//
// The loader is deliberately small: the corpus is a single local text or
// markdown file read once at startup. Splitting is recursive-character
// style: prefer paragraph boundaries, then line boundaries, then sentence
// punctuation, and finally fall back to a fixed rune window. Adjacent
// chunks overlap so retrieval does not lose context at chunk borders.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Document is a loaded source file before splitting.
type Document struct {
	Path    string
	Content string
}

// Chunk is a bounded span of document text, the unit retrieval operates
// over. Metadata carries the source path and chunk index.
type Chunk struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Load reads the corpus file at path. Only .txt and .md are supported;
// config validation normally rejects other extensions before Load runs,
// but Load re-checks so it is safe to call directly.
func Load(path string) (Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".txt" && ext != ".md" {
		return Document{}, fmt.Errorf("unsupported document format %q (supported: .txt, .md)", ext)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator config
	if err != nil {
		return Document{}, fmt.Errorf("reading document: %w", err)
	}
	if !utf8.Valid(data) {
		return Document{}, fmt.Errorf("document %q is not valid UTF-8", path)
	}

	return Document{Path: path, Content: string(data)}, nil
}

// separators in preference order. The empty string terminates recursion
// with a hard rune-window split.
var separators = []string{"\n\n", "\n", "。", ". ", " ", ""}

// Splitter splits documents into overlapping chunks.
type Splitter struct {
	chunkSize int // maximum chunk length in runes
	overlap   int // runes shared between adjacent chunks
}

// NewSplitter creates a Splitter. chunkSize must be positive and overlap
// must be smaller than chunkSize; config validation enforces both.
func NewSplitter(chunkSize, overlap int) *Splitter {
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// Split breaks doc into chunks of at most chunkSize runes. Deterministic:
// the same document always yields the same chunk sequence.
func (s *Splitter) Split(doc Document) []Chunk {
	pieces := s.split(doc.Content, 0)

	chunks := make([]Chunk, 0, len(pieces))
	for _, text := range pieces {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		idx := len(chunks)
		chunks = append(chunks, Chunk{
			ID:      doc.Path + ":" + strconv.Itoa(idx),
			Content: text,
			Metadata: map[string]string{
				"source": doc.Path,
				"chunk":  strconv.Itoa(idx),
			},
		})
	}
	return chunks
}

// split recursively divides text using separators[level], merging the parts
// back into chunks near chunkSize with overlap.
func (s *Splitter) split(text string, level int) []string {
	if utf8.RuneCountInString(text) <= s.chunkSize {
		return []string{text}
	}

	sep := separators[level]
	if sep == "" {
		return s.windowSplit(text)
	}

	parts := strings.SplitAfter(text, sep)
	var out []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen == 0 {
			return
		}
		piece := current.String()
		out = append(out, piece)
		current.Reset()
		// Seed the next chunk with the tail of this one for continuity.
		if s.overlap > 0 {
			tail := tailRunes(piece, s.overlap)
			current.WriteString(tail)
			currentLen = utf8.RuneCountInString(tail)
		} else {
			currentLen = 0
		}
	}

	for _, part := range parts {
		partLen := utf8.RuneCountInString(part)
		if partLen > s.chunkSize {
			// A single part is too large even for its own chunk: flush what
			// we have and recurse with the next finer separator.
			flush()
			current.Reset()
			currentLen = 0
			out = append(out, s.split(part, level+1)...)
			continue
		}
		if currentLen+partLen > s.chunkSize {
			flush()
			// The overlap tail seeded by flush may not leave room for this
			// part; drop the tail rather than emit an oversize chunk.
			if currentLen+partLen > s.chunkSize {
				current.Reset()
				currentLen = 0
			}
		}
		current.WriteString(part)
		currentLen += partLen
	}
	if currentLen > 0 {
		out = append(out, current.String())
	}
	return out
}

// windowSplit is the last-resort fixed-size split for text with no usable
// separators at all.
func (s *Splitter) windowSplit(text string) []string {
	runes := []rune(text)
	step := s.chunkSize - s.overlap
	if step <= 0 {
		step = s.chunkSize
	}

	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

// tailRunes returns the last n runes of s.
func tailRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
