package domain

import "fmt"

// Document represents one source text loaded into the corpus.
// Documents are immutable for the lifetime of the process.
type Document struct {
	// Name is the stable document name (filename without extension).
	// It is the prefix of every chunk ID derived from this document.
	Name string

	// Content is the full text of the document.
	Content string
}

// Chunk is a paragraph-level unit of a Document. Chunks are created once
// at index-build time and never mutated afterwards.
type Chunk struct {
	// ID uniquely identifies the chunk across the whole corpus.
	// Format: "<document>::chunk<N>", N starting at 1 per document.
	// The format is a wire-visible contract: IDs appear verbatim as
	// citations in output records.
	ID string

	// Document is the name of the owning Document.
	Document string

	// Text is the trimmed paragraph text.
	Text string

	// Position is the 1-based paragraph ordinal within the document.
	Position int

	// Terms is the term-frequency vector of the chunk text
	// (case-folded, tokenized on non-alphanumeric boundaries).
	Terms map[string]int
}

// ChunkID builds the canonical chunk identifier for a document paragraph.
func ChunkID(document string, position int) string {
	return fmt.Sprintf("%s::chunk%d", document, position)
}

// RetrievedChunk is a scored retrieval hit. It is produced per-query and
// never persisted.
type RetrievedChunk struct {
	// ChunkID is the citation identifier of the matched chunk.
	ChunkID string

	// Text is the chunk text, carried along so downstream stages do not
	// need index access.
	Text string

	// Score is the cosine similarity in [0,1], higher is better.
	Score float64
}
