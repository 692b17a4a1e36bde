package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show vector store and ledger counts",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	vectors, rm, cleanup, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := rm.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to prepare ledger: %w", err)
	}

	total, err := vectors.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count vectors: %w", err)
	}

	fmt.Printf("Vector store: %d records (%s)\n", total, cfg.VectorStore.Backend)
	if counter, ok := rm.(interface{ Len() (int, error) }); ok {
		n, err := counter.Len()
		if err != nil {
			return fmt.Errorf("failed to count ledger records: %w", err)
		}
		fmt.Printf("Ledger:       %d records (namespace %s)\n", n, cfg.Ledger.Namespace)
	}
	return nil
}
