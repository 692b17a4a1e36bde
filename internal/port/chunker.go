package port

import "docsync/internal/domain"

// Chunker splits documents into smaller overlapping chunks, propagating each
// parent document's metadata. Deterministic for a fixed configuration.
type Chunker interface {
	Split(docs []domain.Document) ([]domain.Chunk, error)
}
