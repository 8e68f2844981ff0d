package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	askCollection string
	askTopK       int
	askJSON       bool
	askTimeout    time.Duration
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from indexed documents",
	Long: `Ask retrieves the closest document chunks from a collection and answers
strictly from that context. Without a configured LLM provider the answer
falls back to the most relevant sentence from the retrieved chunks.

Example:
  parecer ask "Qual o prazo para habilitação do crédito?"
  parecer ask --collection contratos --top-k 5 "Quem assina o contrato?"
  parecer ask --json "Qual o valor da condenação?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVarP(&askCollection, "collection", "c", "", "collection to query (default from config)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full answer with sources as JSON")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 2*time.Minute, "overall ask timeout")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	collection := askCollection
	if collection == "" {
		collection = cfg.Ingest.Collection
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Collection: %s\n", collection)
		fmt.Fprintf(os.Stderr, "Question: %s\n", question)
		fmt.Fprintln(os.Stderr)
	}

	answer, err := a.service.Ask(ctx, collection, question, askTopK)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return printJSON(answer)
	}

	fmt.Println(answer.Answer)

	if verbose && len(answer.Sources) > 0 {
		fmt.Fprintln(os.Stderr)
		fmt.Fprintf(os.Stderr, "Sources:\n")
		for i, src := range answer.Sources {
			fmt.Fprintf(os.Stderr, "[%d] (%.4f) %s\n", i+1, src.Distance, src.Text)
		}
	}
	return nil
}
