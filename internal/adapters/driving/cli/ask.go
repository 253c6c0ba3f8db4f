package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/localrag/internal/core/domain"
)

var (
	askDocument    string
	askK           int
	askRerank      bool
	askJSON        bool
	askShowSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about a document",
	Long: `Retrieves the k paragraphs most similar to the question, joins their
contexts and asks the LLM once to answer from them.

The question is read from stdin when no argument is given.

Examples:
  localrag ask -d handbook "How many vacation days do I get?"
  localrag ask -d handbook -k 8 --rerank "Who approves expenses?"
  echo "Summarise the onboarding steps" | localrag ask -d handbook`,
	Args: cobra.ArbitraryArgs,
	RunE: runAsk,
}

// askJSONOutput is the --json form of an answer.
type askJSONOutput struct {
	Answer  string             `json:"answer"`
	Sources []searchResultJSON `json:"sources"`
}

func init() {
	askCmd.Flags().StringVarP(&askDocument, "document", "d", "", "document id or name")
	askCmd.Flags().IntVarP(&askK, "k", "k", 0, "number of passages given to the LLM, 1 to 10 (default from config, 5)")
	askCmd.Flags().BoolVarP(&askRerank, "rerank", "r", false, "rerank an oversampled candidate pool")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVar(&askShowSources, "sources", false, "print the passages the answer was built from")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	question, err := readQuestion(cmd, args)
	if err != nil {
		return err
	}

	docID, err := resolveDocumentID(cmd, askDocument)
	if err != nil {
		return err
	}

	answer, err := queryService.Ask(cmd.Context(), domain.AskRequest{
		Query:      question,
		DocumentID: docID,
		K:          askK,
		Rerank:     askRerank,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		out := askJSONOutput{Answer: answer.Text, Sources: make([]searchResultJSON, len(answer.Sources))}
		for i, src := range answer.Sources {
			out.Sources[i] = searchResultJSON{ParagraphID: src.ParagraphID, Text: src.Text}
		}
		return printJSON(cmd, out)
	}

	width := termWidth(cmd.OutOrStdout())
	cmd.Println(wrap(strings.TrimSpace(answer.Text), width, ""))

	if askShowSources {
		cmd.Println()
		cmd.Printf("Sources (%d):\n", len(answer.Sources))
		for i, src := range answer.Sources {
			cmd.Printf("  [%d] %s\n", i+1, src.ParagraphID)
			cmd.Println(wrap(snippet(src.Text, 200), width, "      "))
		}
	}
	return nil
}

// readQuestion joins the arguments, or reads stdin when it is piped.
func readQuestion(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", errors.New("a question is required")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading question: %w", err)
	}
	question := strings.TrimSpace(string(data))
	if question == "" {
		return "", errors.New("a question is required")
	}
	return question, nil
}
