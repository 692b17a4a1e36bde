package domain

// MetaSource is the metadata key holding a chunk's logical upstream
// identifier (usually the page URL). It is the default grouping key for
// cleanup and must be present on every stored record.
const MetaSource = "source"

// MetaTitle is the metadata key for the page title. Query-time attribute
// selection fails on records missing it, so the engine always fills it in.
const MetaTitle = "title"

// Document is a fetched page before splitting.
type Document struct {
	Content  string
	Metadata map[string]string
}

// Chunk is a split unit of a document, the atomic thing that gets embedded
// and stored. It has no identity of its own until hashed.
type Chunk struct {
	Content  string
	Metadata map[string]string
}

// CleanupMode governs which previously-indexed entries are deleted after a
// run.
type CleanupMode string

const (
	// CleanupNone performs no deletion sweep.
	CleanupNone CleanupMode = "none"
	// CleanupIncremental deletes stale entries only within the source
	// groups present in the current run.
	CleanupIncremental CleanupMode = "incremental"
	// CleanupFull deletes every entry not touched by the current run.
	CleanupFull CleanupMode = "full"
)

// Valid reports whether m is a known cleanup mode.
func (m CleanupMode) Valid() bool {
	switch m {
	case CleanupNone, CleanupIncremental, CleanupFull:
		return true
	}
	return false
}

// IndexStats aggregates the outcome of one indexing run.
type IndexStats struct {
	NumAdded   int
	NumUpdated int
	NumSkipped int
	NumDeleted int
}
