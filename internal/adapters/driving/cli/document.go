package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/localrag/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:     "doc",
	Aliases: []string{"document"},
	Short:   "Manage documents",
	Long:    `Add files to new or existing documents, list them, show details or delete them.`,
}

var documentAddCmd = &cobra.Command{
	Use:   "add [file]",
	Short: "Create a document from a file",
	Long: `Reads a PDF, TXT or DOCX file, chunks it with the chosen strategy,
embeds every chunk and stores the result as a new document.

Strategies:
  simple      - paragraph-sized chunks, the chunk itself is returned as context
  smalltobig  - sentence windows are embedded, their enclosing paragraph is returned`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentAdd,
}

var documentAppendCmd = &cobra.Command{
	Use:   "append [file]",
	Short: "Add a file to an existing document",
	Long:  `Adds a file's paragraphs to an existing document using the document's own chunking strategy.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentAppend,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentShowCmd = &cobra.Command{
	Use:   "show [doc]",
	Short: "Show document details",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentShow,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc]",
	Short: "Delete a document and its paragraphs",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var (
	addName        string
	addStrategy    string
	appendDocument string
)

func init() {
	documentAddCmd.Flags().StringVarP(&addName, "name", "n", "", "document name (default: file name without extension)")
	documentAddCmd.Flags().StringVarP(&addStrategy, "strategy", "s", string(domain.StrategySimple), "chunking strategy: simple or smalltobig")
	documentAppendCmd.Flags().StringVarP(&appendDocument, "document", "d", "", "target document id or name")
	_ = documentAppendCmd.MarkFlagRequired("document")

	documentCmd.AddCommand(documentAddCmd)
	documentCmd.AddCommand(documentAppendCmd)
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentShowCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentAdd(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	path := args[0]
	name := addName
	if name == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	strategy, err := domain.ParseChunkingStrategy(addStrategy)
	if err != nil {
		return fmt.Errorf("%w (valid: %s)", err, strategyNames())
	}

	result, err := ingestService.Ingest(cmd.Context(), domain.ReadRequest{
		Path:         path,
		DocumentName: name,
		Strategy:     strategy,
	})
	if err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}

	cmd.Printf("Created document %q (%s)\n", result.Document.Name, result.Document.ID)
	cmd.Printf("  Strategy:   %s\n", result.Document.Strategy)
	cmd.Printf("  Paragraphs: %d\n", result.Paragraphs)
	return nil
}

func runDocumentAppend(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	result, err := ingestService.Ingest(cmd.Context(), domain.ReadRequest{
		Path:          args[0],
		DocumentName:  appendDocument,
		AddToDocument: true,
	})
	if err != nil {
		return fmt.Errorf("failed to append to document: %w", err)
	}

	cmd.Printf("Added %d paragraphs to %q (%s)\n", result.Paragraphs, result.Document.Name, result.Document.ID)
	return nil
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].Name)
		cmd.Printf("    ID:       %s\n", docs[i].ID)
		cmd.Printf("    Strategy: %s\n", docs[i].Strategy)
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Resolve(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	details, err := documentService.GetDetails(cmd.Context(), doc.ID)
	if err != nil {
		return fmt.Errorf("failed to get document details: %w", err)
	}

	cmd.Printf("Document: %s\n\n", details.Name)
	cmd.Printf("  ID:          %s\n", details.ID)
	cmd.Printf("  Strategy:    %s\n", details.Strategy.Description())
	cmd.Printf("  Paragraphs:  %d\n", details.ParagraphCount)
	cmd.Printf("  Created:     %s\n", details.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	id := args[0]
	doc, err := documentService.Resolve(cmd.Context(), id)
	switch {
	case err == nil:
		id = doc.ID
	case !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("failed to get document: %w", err)
	}

	if err := documentService.Delete(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", args[0])
	return nil
}

// resolveDocumentID maps a --document flag value to a document id.
func resolveDocumentID(cmd *cobra.Command, idOrName string) (string, error) {
	if idOrName == "" {
		return "", errors.New("--document is required")
	}
	if documentService == nil {
		return idOrName, nil
	}
	doc, err := documentService.Resolve(cmd.Context(), idOrName)
	if err != nil {
		return "", fmt.Errorf("failed to find document: %w", err)
	}
	return doc.ID, nil
}

func strategyNames() string {
	all := domain.AllChunkingStrategies()
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}
