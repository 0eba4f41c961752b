// Package dir loads the policy/KPI document corpus from a directory.
//
// Files are read in sorted filename order so the corpus ordering, and
// with it every chunk ID, is stable across runs.
package dir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meridian-labs/retail-copilot/internal/core/domain"
	"github.com/meridian-labs/retail-copilot/internal/core/ports/driven"
	"github.com/meridian-labs/retail-copilot/internal/logger"
)

// Ensure Source implements the port.
var _ driven.DocumentSource = (*Source)(nil)

// Source reads markdown and plaintext documents from one directory.
type Source struct {
	dir string
}

// NewSource creates a document source over the given directory.
func NewSource(dir string) *Source {
	return &Source{dir: dir}
}

// Load reads every .md and .txt file in the directory, in sorted
// filename order. The document name is the filename without extension,
// which becomes the chunk ID prefix.
func (s *Source) Load(ctx context.Context) ([]domain.Document, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading document directory %s: %w", s.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".md", ".txt":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	docs := make([]domain.Document, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		content, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading document %s: %w", name, err)
		}

		docName := strings.TrimSuffix(name, filepath.Ext(name))
		docs = append(docs, domain.Document{
			Name:    docName,
			Content: string(content),
		})
		logger.Debug("Loaded document %s (%d bytes)", docName, len(content))
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents in %s: %w", s.dir, domain.ErrEmptyCorpus)
	}

	logger.Info("Loaded %d documents from %s", len(docs), s.dir)
	return docs, nil
}
