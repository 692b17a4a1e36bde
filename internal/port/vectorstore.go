package port

import "context"

// VectorStore persists (vector, text, metadata) records keyed by an opaque
// id. Upsert must be idempotent under the same id.
type VectorStore interface {
	// Upsert adds or overwrites records in the store.
	Upsert(ctx context.Context, items []VectorItem) error

	// Delete removes records by their ids. Unknown ids are ignored.
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of records in the store.
	Count(ctx context.Context) (int, error)
}

// VectorItem is one record to be stored.
type VectorItem struct {
	ID       string
	Text     string
	Vector   []float32
	Metadata map[string]string
}
