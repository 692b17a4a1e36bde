package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docsync/config"
	"docsync/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docsync",
	Short: "Sync documentation sites into a vector store without re-embedding unchanged content",
	Long: `docsync fetches documentation pages, splits them into chunks and keeps a
vector store in sync with what is actually published: unchanged chunks are
skipped, changed chunks are re-embedded in place, and pages that disappeared
upstream are removed.

Example usage:
  docsync ingest              # fetch, chunk, embed and reconcile
  docsync ingest --dry-run    # same pipeline against in-memory stores
  docsync status              # vector and ledger counts`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real environments set variables directly.
		_ = godotenv.Load()

		var err error
		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			wd, werr := os.Getwd()
			if werr != nil {
				return fmt.Errorf("failed to get working directory: %w", werr)
			}
			cfg, err = config.LoadFromDir(wd)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		log = logging.Setup(cfg.Logging.Level, os.Stderr)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./docsync.yaml)")
}
