package port

import (
	"context"
	"time"
)

// RecordManager is the persistent key/timestamp ledger of what is currently
// indexed. Keys are content hashes; group ids tie keys to their logical
// upstream document. Only the indexing engine writes to it.
type RecordManager interface {
	// EnsureSchema creates the ledger's storage structures if missing.
	EnsureSchema(ctx context.Context) error

	// Exists reports, for each key, whether the ledger contains it.
	Exists(ctx context.Context, keys []string) (map[string]bool, error)

	// Update upserts the given keys with their group ids, all stamped
	// with the same timestamp. len(groupIDs) must equal len(keys).
	Update(ctx context.Context, keys, groupIDs []string, at time.Time) error

	// ListKeys returns keys whose timestamp is strictly older than
	// olderThan. An empty groups slice means all groups; otherwise only
	// keys in the given groups are considered.
	ListKeys(ctx context.Context, olderThan time.Time, groups []string) ([]string, error)

	// DeleteKeys removes the given keys. Unknown keys are ignored.
	DeleteKeys(ctx context.Context, keys []string) error
}
