package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"docsync/internal/domain"
	"docsync/internal/port"
)

const (
	defaultBatchSize        = 100
	defaultCleanupBatchSize = 1000
)

// IndexOptions configures one indexing run.
type IndexOptions struct {
	// Cleanup selects the deletion policy for previously-indexed entries.
	Cleanup domain.CleanupMode
	// SourceIDKey is the metadata key grouping chunks by upstream
	// document. Defaults to "source".
	SourceIDKey string
	// BatchSize is the number of chunks written per store round-trip.
	BatchSize int
	// CleanupBatchSize is the page size of the deletion sweep.
	CleanupBatchSize int
	// ForceUpdate re-embeds and overwrites chunks whose hash is already
	// in the ledger.
	ForceUpdate bool
	// Progress, if set, is called after each completed batch.
	Progress port.ProgressFunc
}

// IndexUseCase reconciles freshly-fetched chunks against the record ledger
// and drives the vector store through the outcome: unchanged content is
// skipped, new or forced content is embedded and upserted, and content no
// longer present upstream is swept away per the cleanup mode.
type IndexUseCase struct {
	embedder port.Embedder
	vectors  port.VectorStore
	ledger   port.RecordManager
	log      *slog.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewIndexUseCase creates a new index use case.
func NewIndexUseCase(embedder port.Embedder, vectors port.VectorStore, ledger port.RecordManager, log *slog.Logger) *IndexUseCase {
	if log == nil {
		log = slog.Default()
	}
	return &IndexUseCase{
		embedder: embedder,
		vectors:  vectors,
		ledger:   ledger,
		log:      log,
		now:      time.Now,
	}
}

// entry is one deduplicated chunk with its derived identity.
type entry struct {
	key     string
	groupID string
	chunk   domain.Chunk
}

// Index runs one reconciliation pass over chunks. Completed batches stay
// committed if a later batch fails; the caller owns retries.
func (u *IndexUseCase) Index(ctx context.Context, chunks []domain.Chunk, opts IndexOptions) (domain.IndexStats, error) {
	var stats domain.IndexStats

	if opts.SourceIDKey == "" {
		opts.SourceIDKey = domain.MetaSource
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.CleanupBatchSize <= 0 {
		opts.CleanupBatchSize = defaultCleanupBatchSize
	}
	if opts.Cleanup == "" {
		opts.Cleanup = domain.CleanupNone
	}
	if !opts.Cleanup.Valid() {
		return stats, fmt.Errorf("unknown cleanup mode %q", opts.Cleanup)
	}

	// The staleness cutoff must predate every upsert of this run.
	runStart := u.now()

	entries, groups, err := u.prepare(chunks, opts)
	if err != nil {
		return stats, err
	}

	for i := 0; i < len(entries); i += opts.BatchSize {
		end := i + opts.BatchSize
		if end > len(entries) {
			end = len(entries)
		}
		if err := u.indexBatch(ctx, entries[i:end], opts, &stats); err != nil {
			return stats, err
		}
		if opts.Progress != nil {
			opts.Progress(end, len(entries))
		}
	}

	if opts.Cleanup != domain.CleanupNone {
		deleted, err := u.sweep(ctx, runStart, groups, opts)
		stats.NumDeleted = deleted
		if err != nil {
			return stats, err
		}
	}

	u.log.Info("indexing run complete",
		"added", stats.NumAdded,
		"updated", stats.NumUpdated,
		"skipped", stats.NumSkipped,
		"deleted", stats.NumDeleted)
	return stats, nil
}

// prepare hashes and deduplicates the incoming chunks and validates the
// cleanup configuration before anything is written. Missing source/title
// metadata is defaulted to the empty string with a warning.
func (u *IndexUseCase) prepare(chunks []domain.Chunk, opts IndexOptions) ([]entry, []string, error) {
	entries := make([]entry, 0, len(chunks))
	seen := make(map[string]bool, len(chunks))
	var groups []string
	seenGroups := make(map[string]bool)

	for _, c := range chunks {
		meta := make(map[string]string, len(c.Metadata)+2)
		for k, v := range c.Metadata {
			meta[k] = v
		}
		if _, ok := meta[domain.MetaSource]; !ok {
			u.log.Warn("chunk missing source metadata, defaulting to empty string")
			meta[domain.MetaSource] = ""
		}
		if _, ok := meta[domain.MetaTitle]; !ok {
			u.log.Warn("chunk missing title metadata, defaulting to empty string")
			meta[domain.MetaTitle] = ""
		}
		c.Metadata = meta

		group, ok := meta[opts.SourceIDKey]
		if !ok && opts.Cleanup != domain.CleanupNone {
			return nil, nil, fmt.Errorf("cleanup mode %q requires metadata key %q on every chunk", opts.Cleanup, opts.SourceIDKey)
		}

		key := HashChunk(c)
		if seen[key] {
			continue
		}
		seen[key] = true
		entries = append(entries, entry{key: key, groupID: group, chunk: c})
		if ok && !seenGroups[group] {
			seenGroups[group] = true
			groups = append(groups, group)
		}
	}
	return entries, groups, nil
}

// indexBatch writes one batch: skip keys the ledger already has (unless
// forced), embed the rest, upsert the vector store, then refresh the ledger
// for the whole batch under a single timestamp. Skipped keys get no vector
// store write and no embedding, but their ledger timestamp is refreshed so
// the deletion sweep knows this run saw them.
func (u *IndexUseCase) indexBatch(ctx context.Context, batch []entry, opts IndexOptions, stats *domain.IndexStats) error {
	keys := make([]string, len(batch))
	groupIDs := make([]string, len(batch))
	for i, e := range batch {
		keys[i] = e.key
		groupIDs[i] = e.groupID
	}

	existing, err := u.ledger.Exists(ctx, keys)
	if err != nil {
		return fmt.Errorf("ledger lookup failed: %w", err)
	}

	var toWrite []entry
	for _, e := range batch {
		if existing[e.key] && !opts.ForceUpdate {
			stats.NumSkipped++
			continue
		}
		toWrite = append(toWrite, e)
	}

	if len(toWrite) > 0 {
		texts := make([]string, len(toWrite))
		for i, e := range toWrite {
			texts[i] = e.chunk.Content
		}
		vecs, err := u.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding batch failed: %w", err)
		}
		if len(vecs) != len(toWrite) {
			return fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(toWrite))
		}

		items := make([]port.VectorItem, len(toWrite))
		for i, e := range toWrite {
			items[i] = port.VectorItem{
				ID:       e.key,
				Text:     e.chunk.Content,
				Vector:   vecs[i],
				Metadata: e.chunk.Metadata,
			}
		}
		if err := u.vectors.Upsert(ctx, items); err != nil {
			return fmt.Errorf("vector store upsert failed: %w", err)
		}
	}

	if err := u.ledger.Update(ctx, keys, groupIDs, u.now()); err != nil {
		return fmt.Errorf("ledger update failed: %w", err)
	}

	for _, e := range toWrite {
		if existing[e.key] {
			stats.NumUpdated++
		} else {
			stats.NumAdded++
		}
	}
	return nil
}

// sweep deletes ledger entries not touched by this run. Vector store records
// go first; a crash between the two deletes leaves an orphan vector with no
// ledger reference, never a ledger key pointing at a missing vector.
func (u *IndexUseCase) sweep(ctx context.Context, runStart time.Time, groups []string, opts IndexOptions) (int, error) {
	if opts.Cleanup == domain.CleanupIncremental && len(groups) == 0 {
		return 0, nil
	}
	if opts.Cleanup == domain.CleanupFull {
		groups = nil
	}

	stale, err := u.ledger.ListKeys(ctx, runStart, groups)
	if err != nil {
		return 0, fmt.Errorf("ledger list failed: %w", err)
	}

	deleted := 0
	for i := 0; i < len(stale); i += opts.CleanupBatchSize {
		end := i + opts.CleanupBatchSize
		if end > len(stale) {
			end = len(stale)
		}
		page := stale[i:end]
		if err := u.vectors.Delete(ctx, page); err != nil {
			return deleted, fmt.Errorf("vector store delete failed: %w", err)
		}
		if err := u.ledger.DeleteKeys(ctx, page); err != nil {
			return deleted, fmt.Errorf("ledger delete failed: %w", err)
		}
		deleted += len(page)
	}
	if deleted > 0 {
		u.log.Info("swept stale entries", "count", deleted, "mode", string(opts.Cleanup))
	}
	return deleted, nil
}

// HashChunk derives a chunk's stable identity: a sha256 digest over its
// content and full metadata. Any change to either produces a new identity,
// so identical content always maps to the same vector store id across runs.
func HashChunk(c domain.Chunk) string {
	meta, _ := json.Marshal(c.Metadata) // map keys marshal in sorted order
	h := sha256.New()
	h.Write([]byte(c.Content))
	h.Write([]byte{0})
	h.Write(meta)
	return hex.EncodeToString(h.Sum(nil))
}
