package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docsync/internal/adapter/chunker"
	"docsync/internal/adapter/embedding"
	"docsync/internal/adapter/ledger"
	"docsync/internal/adapter/loader"
	"docsync/internal/adapter/memstore"
	"docsync/internal/adapter/vstore"
	"docsync/internal/domain"
	"docsync/internal/port"
	"docsync/internal/usecase"
)

var dryRun bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch configured sources and reconcile them into the vector store",
	Long: `Fetch every configured source, split the pages into chunks and run the
reconciliation pass: unchanged chunks are skipped, new or changed chunks are
embedded and upserted, and entries no longer present upstream are deleted
according to the configured cleanup mode.

With --dry-run the full pipeline runs against in-memory stores and a mock
embedder, which is useful for checking source and filter configuration.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&dryRun, "dry-run", false, "use in-memory stores and a mock embedder")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	ctx := cmd.Context()

	docs, err := loadSources(ctx)
	if err != nil {
		return err
	}

	splitter := chunker.NewSplitter(cfg.Chunking.Size, cfg.Chunking.Overlap)
	chunks, err := splitter.Split(docs)
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}
	log.Info("documents split", "documents", len(docs), "chunks", len(chunks))

	embedder, err := newEmbedder()
	if err != nil {
		return err
	}

	vectors, rm, cleanup, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := rm.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to prepare ledger: %w", err)
	}

	engine := usecase.NewIndexUseCase(embedder, vectors, rm, log)
	stats, err := engine.Index(ctx, chunks, usecase.IndexOptions{
		Cleanup:          domain.CleanupMode(cfg.Indexing.Cleanup),
		SourceIDKey:      cfg.Indexing.SourceIDKey,
		BatchSize:        cfg.Indexing.BatchSize,
		CleanupBatchSize: cfg.Indexing.CleanupBatchSize,
		ForceUpdate:      cfg.Indexing.ForceUpdate,
		Progress:         newProgress("Indexing"),
	})
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	total, err := vectors.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count vectors: %w", err)
	}

	fmt.Printf("\nIngest complete:\n")
	fmt.Printf("  Added:   %d\n", stats.NumAdded)
	fmt.Printf("  Updated: %d\n", stats.NumUpdated)
	fmt.Printf("  Skipped: %d (unchanged)\n", stats.NumSkipped)
	fmt.Printf("  Deleted: %d (stale)\n", stats.NumDeleted)
	fmt.Printf("\nVector store now holds %d records\n", total)
	return nil
}

// loadSources fetches every configured source sequentially; pages within one
// source are fetched concurrently by the loaders themselves.
func loadSources(ctx context.Context) ([]domain.Document, error) {
	var docs []domain.Document
	for _, src := range cfg.Sources {
		var (
			ld  port.Loader
			bar = newProgress("Fetching " + src.URL)
		)
		switch src.Type {
		case "sitemap":
			ld = &loader.SitemapLoader{
				SitemapURL: src.URL,
				Includes:   src.Includes,
				Excludes:   src.Excludes,
				Progress:   bar,
			}
		case "crawl":
			ld = &loader.RecursiveLoader{
				StartURL: src.URL,
				MaxDepth: src.MaxDepth,
				MaxPages: src.MaxPages,
				Progress: bar,
			}
		default:
			return nil, fmt.Errorf("unknown source type %q", src.Type)
		}

		loaded, err := ld.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", src.URL, err)
		}
		log.Info("documents loaded", "source", src.URL, "count", len(loaded))
		docs = append(docs, loaded...)
	}
	return docs, nil
}

func newEmbedder() (port.Embedder, error) {
	if dryRun {
		return embedding.NewMockEmbedder(cfg.Embedding.Dimension), nil
	}
	switch cfg.Embedding.Provider {
	case "openai":
		if cfg.Embedding.BaseURL != "" {
			return embedding.NewOpenAICompatibleEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model, cfg.Embedding.BaseURL)
		}
		return embedding.NewOpenAIEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model)
	case "ollama":
		return embedding.NewOllamaEmbedder(cfg.Embedding.Model, cfg.Embedding.BaseURL)
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}

// openStores builds the vector store and record ledger for this run and
// returns a cleanup closing both.
func openStores(ctx context.Context) (port.VectorStore, port.RecordManager, func(), error) {
	if dryRun {
		return memstore.NewVectorStore(), memstore.NewRecordManager(), func() {}, nil
	}

	var (
		vectors port.VectorStore
		closeVS func() error
	)
	switch cfg.VectorStore.Backend {
	case "chroma":
		cs, err := vstore.NewChromaStore(ctx, cfg.VectorStore.URL, cfg.VectorStore.APIKey, cfg.VectorStore.Collection)
		if err != nil {
			return nil, nil, nil, err
		}
		vectors, closeVS = cs, cs.Close
	case "bolt":
		bs, err := vstore.Open(cfg.VectorStore.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		vectors, closeVS = bs, bs.Close
	default:
		return nil, nil, nil, fmt.Errorf("unsupported vector store backend: %s", cfg.VectorStore.Backend)
	}

	rm, err := ledger.NewBoltLedger(cfg.Ledger.Path, cfg.Ledger.Namespace)
	if err != nil {
		closeVS()
		return nil, nil, nil, err
	}

	cleanup := func() {
		if err := rm.Close(); err != nil {
			log.Warn("failed to close ledger", "error", err)
		}
		if err := closeVS(); err != nil {
			log.Warn("failed to close vector store", "error", err)
		}
	}
	return vectors, rm, cleanup, nil
}

// newProgress returns a lazily-initialized progress callback rendering a
// terminal bar; the total is only known at the first call.
func newProgress(description string) port.ProgressFunc {
	var (
		mu  sync.Mutex
		bar *progressbar.ProgressBar
	)
	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription(description),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		// Crawls discover pages as they go, so the total can move.
		bar.ChangeMax(total)
		bar.Set(done)
	}
}
