package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/localrag/internal/adapters/driving/tui"
	"github.com/custodia-labs/localrag/internal/core/domain"
)

var (
	tuiDocument string
	tuiK        int
	tuiRerank   bool
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Ask questions interactively in the terminal",
	Long: `Opens an interactive terminal interface. Pick a document, then ask
questions and browse the passages each answer was built from.

Examples:
  localrag tui
  localrag tui -d handbook --rerank`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVarP(&tuiDocument, "document", "d", "", "open this document id or name directly")
	tuiCmd.Flags().IntVarP(&tuiK, "k", "k", 0, "initial number of passages per question, 1 to 10")
	tuiCmd.Flags().BoolVarP(&tuiRerank, "rerank", "r", false, "start with reranking enabled")
	rootCmd.AddCommand(tuiCmd)
}

func newTUIApp() (*tui.App, error) {
	if tuiK < 0 || tuiK > domain.MaxK {
		return nil, fmt.Errorf("%w: k must be between 1 and %d, got %d", domain.ErrInvalidInput, domain.MaxK, tuiK)
	}
	return tui.NewApp(tui.NewPorts(queryService, documentService), tui.Options{
		Document: tuiDocument,
		K:        tuiK,
		Rerank:   tuiRerank,
	})
}

func runTUI(cmd *cobra.Command, _ []string) error {
	app, err := newTUIApp()
	if err != nil {
		return err
	}
	return app.Run(cmd.Context())
}
