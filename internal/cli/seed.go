package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	seedStore string
	seedDSN   string
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the purchasing rules into the vector store",
	Long: `Seed upserts the eight purchasing rules (POL-1 .. POL-8) into the policy
collection so they can be retrieved semantically. Seeding is idempotent:
re-running updates the rules in place.

Example:
  parecer seed
  parecer seed --store postgres --dsn $DATABASE_URL`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(&seedStore, "store", "", "vector store driver (memory, postgres)")
	seedCmd.Flags().StringVar(&seedDSN, "dsn", "", "postgres connection string (postgres store only)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if seedStore != "" {
		cfg.Store.Driver = seedStore
	}
	if seedDSN != "" {
		cfg.Store.DSN = seedDSN
	}

	ctx := context.Background()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.service.SeedPolicies(ctx)
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Upserted %d rules into %q\n", result.Upserted, result.Collection)
	}

	return printJSON(result)
}
