// Package tfidf provides the lexical retrieval engine: paragraph-level
// chunking of the document corpus and tf-idf cosine scoring.
//
// The index is built once at startup and is read-only thereafter, which
// makes it safe for unsynchronised concurrent reads across workers.
// Rebuilding from the same documents in the same order produces
// byte-identical chunk IDs and identical idf values; citation stability
// across runs depends on this.
package tfidf

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/meridian-labs/retail-copilot/internal/core/domain"
	"github.com/meridian-labs/retail-copilot/internal/core/ports/driven"
	"github.com/meridian-labs/retail-copilot/internal/logger"
)

// Ensure Index implements the retriever port.
var _ driven.Retriever = (*Index)(nil)

// paragraphSep matches blank-line boundaries between paragraphs.
var paragraphSep = regexp.MustCompile(`\n[ \t]*\n+`)

// Index is the process-wide derived state over the chunk set: the
// chunks themselves, per-chunk tf-idf weight vectors, and the corpus
// inverse-document-frequency table.
type Index struct {
	chunks  []domain.Chunk
	idf     map[string]float64
	weights []map[string]float64 // tf-idf vector per chunk
	norms   []float64            // euclidean norm per chunk vector
}

// Stats summarises the built index for inspection commands.
type Stats struct {
	// Documents is the number of source documents.
	Documents int

	// Chunks is the total chunk count.
	Chunks int

	// Vocabulary is the number of distinct terms.
	Vocabulary int
}

// Build constructs the index from an ordered document sequence.
// It returns domain.ErrEmptyCorpus when no chunk results.
func Build(documents []domain.Document) (*Index, error) {
	idx := &Index{idf: make(map[string]float64)}

	for _, doc := range documents {
		position := 0
		for _, para := range splitParagraphs(doc.Content) {
			position++
			idx.chunks = append(idx.chunks, domain.Chunk{
				ID:       domain.ChunkID(doc.Name, position),
				Document: doc.Name,
				Text:     para,
				Position: position,
				Terms:    termFrequency(para),
			})
		}
	}

	if len(idx.chunks) == 0 {
		return nil, fmt.Errorf("building index over %d documents: %w", len(documents), domain.ErrEmptyCorpus)
	}

	// Document frequency per term, counted over chunks.
	df := make(map[string]int)
	for i := range idx.chunks {
		for term := range idx.chunks[i].Terms {
			df[term]++
		}
	}

	// Smoothed logarithmic idf. The +1 terms avoid division by zero
	// and keep idf strictly positive.
	n := float64(len(idx.chunks))
	for term, count := range df {
		idx.idf[term] = math.Log((1+n)/(1+float64(count))) + 1
	}

	// Precompute chunk weight vectors and norms so Retrieve only has
	// to vectorise the query.
	idx.weights = make([]map[string]float64, len(idx.chunks))
	idx.norms = make([]float64, len(idx.chunks))
	for i := range idx.chunks {
		w := make(map[string]float64, len(idx.chunks[i].Terms))
		var sum float64
		for term, tf := range idx.chunks[i].Terms {
			weight := float64(tf) * idx.idf[term]
			w[term] = weight
			sum += weight * weight
		}
		idx.weights[i] = w
		idx.norms[i] = math.Sqrt(sum)
	}

	logger.Debug("Index built: %d documents, %d chunks, %d terms",
		len(documents), len(idx.chunks), len(idx.idf))

	return idx, nil
}

// Retrieve scores every chunk against the query and returns at most k
// hits sorted by descending score, ties broken by ascending chunk ID.
// A query sharing no vocabulary with the corpus yields an empty result.
func (idx *Index) Retrieve(_ context.Context, query string, k int) ([]domain.RetrievedChunk, error) {
	if k <= 0 {
		return []domain.RetrievedChunk{}, nil
	}

	qw := make(map[string]float64)
	var qsum float64
	for term, tf := range termFrequency(query) {
		idf, ok := idx.idf[term]
		if !ok {
			// Out-of-vocabulary terms contribute zero weight.
			continue
		}
		weight := float64(tf) * idf
		qw[term] = weight
		qsum += weight * weight
	}
	if qsum == 0 {
		logger.Debug("Retrieve: query %q shares no vocabulary with corpus", query)
		return []domain.RetrievedChunk{}, nil
	}
	qnorm := math.Sqrt(qsum)

	hits := make([]domain.RetrievedChunk, 0, k)
	for i := range idx.chunks {
		var dot float64
		for term, weight := range qw {
			dot += weight * idx.weights[i][term]
		}
		if dot <= 0 {
			continue
		}
		hits = append(hits, domain.RetrievedChunk{
			ChunkID: idx.chunks[i].ID,
			Text:    idx.chunks[i].Text,
			Score:   dot / (qnorm * idx.norms[i]),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Stats returns corpus-level counts.
func (idx *Index) Stats() Stats {
	docs := make(map[string]struct{})
	for i := range idx.chunks {
		docs[idx.chunks[i].Document] = struct{}{}
	}
	return Stats{
		Documents:  len(docs),
		Chunks:     len(idx.chunks),
		Vocabulary: len(idx.idf),
	}
}

// Chunks returns the chunk set in index order.
func (idx *Index) Chunks() []domain.Chunk {
	out := make([]domain.Chunk, len(idx.chunks))
	copy(out, idx.chunks)
	return out
}

// IDF returns the idf value for a term, zero when out of vocabulary.
func (idx *Index) IDF(term string) float64 {
	return idx.idf[term]
}

// splitParagraphs splits document content on blank-line boundaries into
// non-empty trimmed paragraphs.
func splitParagraphs(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var paras []string
	for _, part := range paragraphSep.Split(content, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			paras = append(paras, part)
		}
	}
	return paras
}

// termFrequency tokenizes text (case-folded, split on non-alphanumeric
// boundaries) and counts term occurrences.
func termFrequency(text string) map[string]int {
	tf := make(map[string]int)
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tf[current.String()]++
			current.Reset()
		}
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()

	return tf
}
