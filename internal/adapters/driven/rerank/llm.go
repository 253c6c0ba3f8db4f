package rerank

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/custodia-labs/localrag/internal/core/domain"
	"github.com/custodia-labs/localrag/internal/core/ports/driven"
	"github.com/custodia-labs/localrag/internal/logger"
)

// Ensure LLM implements the interface.
var _ driven.Reranker = (*LLM)(nil)

// Bounds of the relevance scale requested from the model.
const (
	minScore = 0
	maxScore = 10
)

// LLM scores each candidate with one completion request.
type LLM struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewLLM creates a reranker backed by an LLM service.
func NewLLM(llm driven.LLMService, prompts driven.PromptStore) *LLM {
	return &LLM{llm: llm, prompts: prompts}
}

// Name returns the reranker name.
func (r *LLM) Name() string {
	return string(domain.RerankLLM)
}

// Rerank asks the model to score every candidate. Any failed call aborts
// the rerank with domain.ErrRerankService.
func (r *LLM) Rerank(ctx context.Context, query string, candidates []domain.Source) ([]domain.Source, error) {
	if len(candidates) == 0 {
		return []domain.Source{}, nil
	}

	tmpl, err := r.prompts.Load(driven.PromptRerank)
	if err != nil {
		return nil, fmt.Errorf("%w: load prompt: %w", domain.ErrRerankService, err)
	}

	items := make([]scored, len(candidates))
	for i, c := range candidates {
		out, err := r.llm.Generate(ctx, fmt.Sprintf(tmpl, query, c.Text), driven.GenerateOptions{
			MaxTokens:   8,
			Temperature: 0,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: score candidate %d: %w", domain.ErrRerankService, i, err)
		}
		score, err := parseScore(out)
		if err != nil {
			return nil, fmt.Errorf("%w: candidate %d: %w", domain.ErrRerankService, i, err)
		}
		logger.Debug("rerank: %s scored %.1f", c.ParagraphID, score)
		items[i] = scored{source: c, score: score}
	}
	return order(items), nil
}

// parseScore reads the first number in a model response and clamps it to
// the 0-10 scale.
func parseScore(out string) (float64, error) {
	start := strings.IndexFunc(out, unicode.IsDigit)
	if start < 0 {
		return 0, fmt.Errorf("%w: no score in response %q", domain.ErrInvalidInput, out)
	}
	end := start
	for end < len(out) && (out[end] == '.' || (out[end] >= '0' && out[end] <= '9')) {
		end++
	}
	score, err := strconv.ParseFloat(strings.TrimSuffix(out[start:end], "."), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: score %q: %w", domain.ErrInvalidInput, out[start:end], err)
	}
	return min(max(score, minScore), maxScore), nil
}
