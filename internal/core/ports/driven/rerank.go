package driven

import (
	"context"

	"github.com/custodia-labs/localrag/internal/core/domain"
)

// Reranker reorders retrieved sources by relevance to a query.
type Reranker interface {
	// Name returns the reranker name for logging.
	Name() string

	// Rerank returns a permutation of candidates, most relevant first.
	// Candidates that score equally keep their input order.
	Rerank(ctx context.Context, query string, candidates []domain.Source) ([]domain.Source, error)
}
