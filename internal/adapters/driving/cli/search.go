package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/localrag/internal/core/domain"
)

var (
	searchDocument string
	searchK        int
	searchRerank   bool
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search a document",
	Long: `Retrieves the paragraphs of one document most similar to the query
and prints their contexts, without asking the LLM.

With --rerank, k times the oversample factor candidates are retrieved and
reordered before the top k are kept.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

// searchResultJSON is the --json form of a search result.
type searchResultJSON struct {
	ParagraphID string  `json:"paragraph_id"`
	Score       float64 `json:"score"`
	Text        string  `json:"text"`
}

func init() {
	searchCmd.Flags().StringVarP(&searchDocument, "document", "d", "", "document id or name")
	searchCmd.Flags().IntVarP(&searchK, "k", "k", 0, "number of results, 1 to 10 (default from config, 5)")
	searchCmd.Flags().BoolVarP(&searchRerank, "rerank", "r", false, "rerank an oversampled candidate pool")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	docID, err := resolveDocumentID(cmd, searchDocument)
	if err != nil {
		return err
	}

	results, err := queryService.Search(cmd.Context(), domain.AskRequest{
		Query:      strings.Join(args, " "),
		DocumentID: docID,
		K:          searchK,
		Rerank:     searchRerank,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		out := make([]searchResultJSON, len(results))
		for i, r := range results {
			out[i] = searchResultJSON{ParagraphID: r.ParagraphID, Score: r.Score, Text: r.Text}
		}
		return printJSON(cmd, out)
	}

	return outputSearchTable(cmd, results)
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	width := termWidth(cmd.OutOrStdout())
	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		// Format: [N] paragraph-id (score)
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, results[i].ParagraphID, results[i].Score)
		cmd.Println(wrap(snippet(results[i].Text, 400), width, "      "))
		cmd.Println()
	}
	return nil
}
