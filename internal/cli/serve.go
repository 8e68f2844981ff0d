package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/credilex/parecer/internal/logger"
	"github.com/credilex/parecer/internal/server"
)

var serveLogLevel string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve exposes verification and grounded retrieval over HTTP:
- POST /verify           evaluate a judicial credit case against the rules
- POST /rag/ask          answer a question from a document collection
- POST /policy/seed      load the purchasing rules into the vector store
- POST /ingest/text|url  segment and index new documents
- GET  /collections      inspect the vector store

Example:
  parecer serve
  parecer serve --port 9090 --store postgres --dsn $DATABASE_URL
  parecer serve --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "0.0.0.0", "listen host")
	serveCmd.Flags().Int("port", 8080, "listen port")
	serveCmd.Flags().String("store", "memory", "vector store driver (memory, postgres)")
	serveCmd.Flags().String("dsn", "", "postgres connection string (postgres store only)")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("store.driver", serveCmd.Flags().Lookup("store"))
	_ = viper.BindPFlag("store.dsn", serveCmd.Flags().Lookup("dsn"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	log := logger.Setup(os.Stdout, serveLogLevel)

	srv := server.New(cfg, a.service, a.ingestor, log)
	if err := srv.Run(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
