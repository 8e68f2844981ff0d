package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/credilex/parecer/internal/model"
)

var (
	verifyFile       string
	verifyNatureza   string
	verifyValor      string
	verifyTransitado string
	verifyFase       string
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Evaluate a judicial credit case against the purchasing rules",
	Long: `Verify runs a case through the deterministic rule engine (POL-1 .. POL-8)
and prints the decision, the cited rules, and a rationale grounded in the
rule texts. Rejected and incomplete cases get a generated rationale that
may only restate the cited rules; approved cases use a fixed template.

The case comes from a JSON file or from flags:
  parecer verify --file caso.json
  parecer verify --natureza trabalhista --valor 500 --transitado=false
  parecer verify --natureza cível --valor 150000 --transitado=true --fase execução`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVarP(&verifyFile, "file", "f", "", "JSON file with the case input")
	verifyCmd.Flags().StringVar(&verifyNatureza, "natureza", "", "nature of the claim (cível, trabalhista, ...)")
	verifyCmd.Flags().StringVar(&verifyValor, "valor", "", "award value (valor da condenação)")
	verifyCmd.Flags().StringVar(&verifyTransitado, "transitado", "", "res judicata (true or false)")
	verifyCmd.Flags().StringVar(&verifyFase, "fase", "", "procedural phase (conhecimento, execução, ...)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	input, err := caseFromFlags()
	if err != nil {
		return err
	}

	cfg := loadConfig()

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.service.Verify(context.Background(), input)
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}

	return printJSON(result)
}

// caseFromFlags builds the case input from --file or the individual flags.
// The valor flag stays a string: the rule engine decides whether it parses,
// the same way it treats malformed API payloads.
func caseFromFlags() (model.CaseInput, error) {
	var input model.CaseInput

	if verifyFile != "" {
		data, err := os.ReadFile(verifyFile)
		if err != nil {
			return input, fmt.Errorf("reading case file: %w", err)
		}
		if err := json.Unmarshal(data, &input); err != nil {
			return input, fmt.Errorf("parsing case file: %w", err)
		}
		return input, nil
	}

	if strings.TrimSpace(verifyNatureza) == "" {
		return input, fmt.Errorf("either --file or --natureza is required")
	}

	input.Natureza = verifyNatureza
	input.Fase = verifyFase
	if verifyValor != "" {
		input.ValorCondenacao = verifyValor
	}
	if verifyTransitado != "" {
		transitado, err := strconv.ParseBool(verifyTransitado)
		if err != nil {
			return input, fmt.Errorf("invalid --transitado %q: expected true or false", verifyTransitado)
		}
		input.TransitadoEmJulgado = &transitado
	}

	return input, nil
}
