package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	collectionsCreate string
	collectionsStore  string
	collectionsDSN    string
)

// collectionsCmd represents the collections command
var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List vector store collections and their counts",
	Long: `Collections lists the store's collections with their document counts.

Example:
  parecer collections
  parecer collections --create contratos
  parecer collections --store postgres --dsn $DATABASE_URL`,
	RunE: runCollections,
}

func init() {
	rootCmd.AddCommand(collectionsCmd)

	collectionsCmd.Flags().StringVar(&collectionsCreate, "create", "", "create a collection before listing")
	collectionsCmd.Flags().StringVar(&collectionsStore, "store", "", "vector store driver (memory, postgres)")
	collectionsCmd.Flags().StringVar(&collectionsDSN, "dsn", "", "postgres connection string (postgres store only)")
}

func runCollections(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if collectionsStore != "" {
		cfg.Store.Driver = collectionsStore
	}
	if collectionsDSN != "" {
		cfg.Store.DSN = collectionsDSN
	}

	ctx := context.Background()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if collectionsCreate != "" {
		if err := a.service.CreateCollection(ctx, collectionsCreate); err != nil {
			return fmt.Errorf("create collection: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Created %q\n", collectionsCreate)
		}
	}

	names, err := a.service.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}

	if len(names) == 0 {
		fmt.Fprintln(os.Stderr, "No collections.")
		return nil
	}

	for _, name := range names {
		info, err := a.service.CollectionInfo(ctx, name)
		if err != nil {
			return fmt.Errorf("collection %q: %w", name, err)
		}
		fmt.Printf("%-24s %d\n", info.Name, info.Count)
	}
	return nil
}
