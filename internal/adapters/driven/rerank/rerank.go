package rerank

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/localrag/internal/core/domain"
	"github.com/custodia-labs/localrag/internal/core/ports/driven"
)

// New returns the reranker for provider. The LLM reranker needs llm and
// prompts; the lexical one ignores them.
func New(provider domain.RerankProvider, llm driven.LLMService, prompts driven.PromptStore) (driven.Reranker, error) {
	switch provider {
	case domain.RerankLexical, "":
		return NewLexical(), nil
	case domain.RerankLLM:
		if llm == nil || prompts == nil {
			return nil, fmt.Errorf("%w: llm reranker needs an LLM service and prompts", domain.ErrConfiguration)
		}
		return NewLLM(llm, prompts), nil
	default:
		return nil, fmt.Errorf("%w: unsupported rerank provider %q", domain.ErrConfiguration, provider)
	}
}

type scored struct {
	source domain.Source
	score  float64
}

// order sorts candidates by descending score. The sort is stable so equal
// scores keep their input order.
func order(items []scored) []domain.Source {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})
	out := make([]domain.Source, len(items))
	for i, it := range items {
		out[i] = it.source
	}
	return out
}
