package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/localrag/internal/adapters/driving/watch"
	"github.com/custodia-labs/localrag/internal/core/domain"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest files dropped into an inbox directory",
	Long: `Watches a directory and adds every PDF, TXT or DOCX file placed in it
to one document, creating the document on the first file. Ingested files
are removed; files that fail stay in place.

Stops on interrupt.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchDocument string
	watchStrategy string
)

func init() {
	watchCmd.Flags().StringVarP(&watchDocument, "document", "d", "", "target document name")
	watchCmd.Flags().StringVarP(&watchStrategy, "strategy", "s", string(domain.StrategySimple), "chunking strategy when the document is created")
	_ = watchCmd.MarkFlagRequired("document")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	strategy, err := domain.ParseChunkingStrategy(watchStrategy)
	if err != nil {
		return fmt.Errorf("%w (valid: %s)", err, strategyNames())
	}

	w, err := watch.New(ingestService, watch.Config{
		Dir:          args[0],
		DocumentName: watchDocument,
		Strategy:     strategy,
		OnIngest: func(path string, result *domain.IngestResult, err error) {
			if err != nil {
				cmd.PrintErrf("  %s: %v\n", filepath.Base(path), err)
				return
			}
			cmd.Printf("  %s: %d paragraphs added to %q\n", filepath.Base(path), result.Paragraphs, result.Document.Name)
		},
	})
	if err != nil {
		return err
	}

	cmd.Printf("Watching %s (document %q). Press Ctrl+C to stop.\n", args[0], watchDocument)
	return w.Run(cmd.Context())
}
