package port

import (
	"context"

	"docsync/internal/domain"
)

// Loader fetches raw documents from an upstream source. Implementations must
// fully materialize the result before returning; the indexing engine needs a
// stable input set.
type Loader interface {
	Load(ctx context.Context) ([]domain.Document, error)
}

// ProgressFunc reports progress of a long-running stage.
type ProgressFunc func(done, total int)
