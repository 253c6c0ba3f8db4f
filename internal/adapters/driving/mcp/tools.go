package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/localrag/internal/core/domain"
)

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput represents a stored document.
type DocumentOutput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Strategy string `json:"strategy"`
	Created  string `json:"created"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query    string `json:"query" jsonschema:"the text to search for"`
	Document string `json:"document" jsonschema:"id or name of the document to search"`
	K        int    `json:"k,omitempty" jsonschema:"number of passages to return, 1 to 10 (default 5)"`
	Rerank   bool   `json:"rerank,omitempty" jsonschema:"rerank an oversampled candidate pool"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single retrieved passage.
type SearchResultOutput struct {
	ParagraphID string  `json:"paragraph_id"`
	Score       float64 `json:"score"`
	Text        string  `json:"text"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer"`
	Document string `json:"document" jsonschema:"id or name of the document to answer from"`
	K        int    `json:"k,omitempty" jsonschema:"number of passages given to the model, 1 to 10 (default 5)"`
	Rerank   bool   `json:"rerank,omitempty" jsonschema:"rerank an oversampled candidate pool"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string               `json:"answer"`
	Sources []SearchResultOutput `json:"sources"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	if s.ports.Document != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_documents",
			Description: "List the documents available for search and questions",
		}, s.handleListDocuments)
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find the passages of one document most similar to a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using passages retrieved from one document",
	}, s.handleAsk)
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i, d := range docs {
		output.Documents[i] = documentOutput(d)
	}
	return nil, output, nil
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	docID, err := s.resolveDocument(ctx, input.Document)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	results, err := s.ports.Query.Search(ctx, domain.AskRequest{
		Query:      input.Query,
		DocumentID: docID,
		K:          input.K,
		Rerank:     input.Rerank,
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i, r := range results {
		output.Results[i] = SearchResultOutput{
			ParagraphID: r.ParagraphID,
			Score:       r.Score,
			Text:        r.Text,
		}
	}
	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	docID, err := s.resolveDocument(ctx, input.Document)
	if err != nil {
		return nil, AskOutput{}, err
	}

	answer, err := s.ports.Query.Ask(ctx, domain.AskRequest{
		Query:      input.Question,
		DocumentID: docID,
		K:          input.K,
		Rerank:     input.Rerank,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:  answer.Text,
		Sources: make([]SearchResultOutput, len(answer.Sources)),
	}
	for i, src := range answer.Sources {
		output.Sources[i] = SearchResultOutput{ParagraphID: src.ParagraphID, Text: src.Text}
	}
	return nil, output, nil
}

// resolveDocument maps a document id or name to an id.
func (s *Server) resolveDocument(ctx context.Context, idOrName string) (string, error) {
	if idOrName == "" {
		return "", fmt.Errorf("%w: document is required", domain.ErrInvalidInput)
	}
	if s.ports.Document == nil {
		return idOrName, nil
	}
	doc, err := s.ports.Document.Resolve(ctx, idOrName)
	if err != nil {
		return "", err
	}
	return doc.ID, nil
}

func documentOutput(d domain.Document) DocumentOutput {
	return DocumentOutput{
		ID:       d.ID,
		Name:     d.Name,
		Strategy: d.Strategy.String(),
		Created:  d.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
