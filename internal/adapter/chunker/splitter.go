// Package chunker splits fetched documents into overlapping text chunks
// while carrying each parent document's metadata onto every chunk.
package chunker

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"

	"docsync/internal/domain"
)

// Splitter is a recursive-character text splitter. Splitting is
// deterministic for a fixed chunk size and overlap.
type Splitter struct {
	inner textsplitter.RecursiveCharacter
}

// NewSplitter creates a splitter with the given chunk size and overlap,
// measured in characters.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	return &Splitter{
		inner: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}
}

// Split splits every document and stamps each chunk with a copy of its
// parent's metadata.
func (s *Splitter) Split(docs []domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, doc := range docs {
		parts, err := s.inner.SplitText(doc.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to split document %q: %w", doc.Metadata[domain.MetaSource], err)
		}
		for _, part := range parts {
			meta := make(map[string]string, len(doc.Metadata))
			for k, v := range doc.Metadata {
				meta[k] = v
			}
			chunks = append(chunks, domain.Chunk{Content: part, Metadata: meta})
		}
	}
	return chunks, nil
}
