package driving

import (
	"context"

	"github.com/custodia-labs/localrag/internal/core/domain"
)

// QueryService answers questions against a stored document.
type QueryService interface {
	// Retrieve returns the k paragraphs of the document nearest to query.
	Retrieve(ctx context.Context, query string, k int, documentID string) (*domain.RetrievalResult, error)

	// Sources returns the contexts for paragraph ids, skipping missing ones.
	Sources(ctx context.Context, ids []string) ([]domain.Source, error)

	// Rerank returns a permutation of candidates ordered by relevance.
	Rerank(ctx context.Context, query string, candidates []domain.Source) ([]domain.Source, error)

	// Answer asks the LLM to answer query from context in one request.
	Answer(ctx context.Context, query, contextText string) (string, error)

	// Search retrieves and resolves sources without calling the LLM.
	Search(ctx context.Context, req domain.AskRequest) ([]domain.SearchResult, error)

	// Ask runs retrieval, optional reranking and answer synthesis.
	Ask(ctx context.Context, req domain.AskRequest) (*domain.Answer, error)
}
