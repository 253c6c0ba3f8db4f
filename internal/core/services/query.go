package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/localrag/internal/core/domain"
	"github.com/custodia-labs/localrag/internal/core/ports/driven"
	"github.com/custodia-labs/localrag/internal/core/ports/driving"
	"github.com/custodia-labs/localrag/internal/logger"
	"github.com/custodia-labs/localrag/internal/metrics"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

const rerankNone = "none"

// QueryConfig configures retrieval and answer synthesis.
type QueryConfig struct {
	// OversampleFactor multiplies k when a rerank pass follows.
	OversampleFactor int

	// DefaultK is used when a request leaves K at zero.
	DefaultK int

	// Temperature is the sampling temperature for answers.
	Temperature float64
}

// QueryService runs the retrieval pipeline: nearest paragraphs, their
// sources, an optional rerank and a single LLM answer.
type QueryService struct {
	embedder driven.EmbeddingService
	store    driven.DocumentStore
	reranker driven.Reranker
	llm      driven.LLMService
	prompts  driven.PromptStore
	cfg      QueryConfig
}

// NewQueryService creates a new query service.
// reranker and llm are optional; Ask needs llm and reranking needs reranker.
func NewQueryService(
	embedder driven.EmbeddingService,
	store driven.DocumentStore,
	reranker driven.Reranker,
	llm driven.LLMService,
	prompts driven.PromptStore,
	cfg QueryConfig,
) *QueryService {
	if cfg.OversampleFactor < 1 {
		cfg.OversampleFactor = domain.DefaultOversampleFactor
	}
	if cfg.DefaultK < 1 {
		cfg.DefaultK = domain.DefaultK
	}
	return &QueryService{
		embedder: embedder,
		store:    store,
		reranker: reranker,
		llm:      llm,
		prompts:  prompts,
		cfg:      cfg,
	}
}

// Retrieve embeds the query and returns the k nearest paragraphs of the
// document. k of zero or less yields an empty result.
func (s *QueryService) Retrieve(
	ctx context.Context, query string, k int, documentID string,
) (*domain.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if k <= 0 {
		return &domain.RetrievalResult{Hits: []domain.Hit{}}, nil
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrEmbeddingService, err)
	}

	dims, err := s.store.Dimensions(ctx)
	if err != nil {
		return nil, err
	}
	if dims > 0 && len(vec) != dims {
		return nil, fmt.Errorf("%w: %w: query has %d dimensions, store has %d",
			domain.ErrConfiguration, domain.ErrDimensionMismatch, len(vec), dims)
	}

	hits, err := s.store.Nearest(ctx, vec, k, documentID)
	if err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
		return nil, err
	}
	logger.Debug("Retrieved %d of %d requested hits from document %s", len(hits), k, documentID)

	return &domain.RetrievalResult{Hits: hits}, nil
}

// Sources returns the contexts of the given paragraphs in order.
func (s *QueryService) Sources(ctx context.Context, ids []string) ([]domain.Source, error) {
	return s.store.GetSources(ctx, ids)
}

// Rerank orders candidates with the configured reranker.
func (s *QueryService) Rerank(
	ctx context.Context, query string, candidates []domain.Source,
) ([]domain.Source, error) {
	if s.reranker == nil {
		return nil, fmt.Errorf("%w: no reranker configured", domain.ErrConfiguration)
	}

	out, err := s.reranker.Rerank(ctx, query, candidates)
	if err != nil {
		if errors.Is(err, domain.ErrRerankService) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrRerankService, err)
	}
	if len(out) != len(candidates) {
		return nil, fmt.Errorf("%w: reranker %s returned %d of %d candidates",
			domain.ErrRerankService, s.reranker.Name(), len(out), len(candidates))
	}
	return out, nil
}

// Answer asks the LLM once to answer query from context.
func (s *QueryService) Answer(ctx context.Context, query, contextText string) (string, error) {
	if s.llm == nil {
		return "", fmt.Errorf("%w: no LLM configured", domain.ErrConfiguration)
	}

	tmpl, err := s.prompts.Load(driven.PromptAnswer)
	if err != nil {
		return "", fmt.Errorf("%w: load prompt: %w", domain.ErrConfiguration, err)
	}

	start := time.Now()
	answer, err := s.llm.Generate(ctx, fmt.Sprintf(tmpl, contextText, query), driven.GenerateOptions{
		Temperature: s.cfg.Temperature,
	})
	metrics.ObserveLLM(driven.PromptAnswer, time.Since(start), err)
	if err != nil {
		if errors.Is(err, domain.ErrLLMService) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", domain.ErrLLMService, err)
	}
	return answer, nil
}

// Search retrieves and resolves sources, reranking when requested, but
// does not call the LLM.
func (s *QueryService) Search(ctx context.Context, req domain.AskRequest) ([]domain.SearchResult, error) {
	logger.Section("Search")
	k, err := s.normaliseK(req.K)
	if err != nil {
		return nil, err
	}
	metrics.CountQuery("search", s.rerankLabel(req.Rerank))

	retrieved, sources, err := s.collect(ctx, req.Query, k, req.DocumentID, req.Rerank)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(retrieved.Hits))
	for _, h := range retrieved.Hits {
		scores[h.ParagraphID] = h.Score
	}
	results := make([]domain.SearchResult, len(sources))
	for i, src := range sources {
		results[i] = domain.SearchResult{
			Hit:  domain.Hit{ParagraphID: src.ParagraphID, Score: scores[src.ParagraphID]},
			Text: src.Text,
		}
	}
	return results, nil
}

// Ask retrieves k sources (k times the oversample factor when
// reranking), optionally reranks and truncates them to k, concatenates
// them and asks the LLM once.
func (s *QueryService) Ask(ctx context.Context, req domain.AskRequest) (*domain.Answer, error) {
	logger.Section("Ask")
	k, err := s.normaliseK(req.K)
	if err != nil {
		return nil, err
	}
	metrics.CountQuery("ask", s.rerankLabel(req.Rerank))

	retrieved, sources, err := s.collect(ctx, req.Query, k, req.DocumentID, req.Rerank)
	if err != nil {
		return nil, err
	}

	var joined strings.Builder
	for _, src := range sources {
		joined.WriteString(src.Text)
	}
	logger.Debug("Context: %d sources, %d bytes", len(sources), joined.Len())

	text, err := s.Answer(ctx, req.Query, joined.String())
	if err != nil {
		return nil, err
	}

	return &domain.Answer{Text: text, Sources: sources, Hits: retrieved.Hits}, nil
}

// collect runs retrieval, source lookup and the optional rerank pass.
// The returned sources hold at most k distinct contexts.
func (s *QueryService) collect(
	ctx context.Context, query string, k int, documentID string, rerank bool,
) (*domain.RetrievalResult, []domain.Source, error) {
	want := k
	if rerank {
		want = k * s.cfg.OversampleFactor
	}

	retrieved, err := s.Retrieve(ctx, query, want, documentID)
	if err != nil {
		return nil, nil, err
	}

	sources, err := s.Sources(ctx, retrieved.IDs())
	if err != nil {
		return nil, nil, err
	}
	sources = dedupeSources(sources)

	if rerank {
		sources, err = s.Rerank(ctx, query, sources)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("Reranked %d candidates with %s", len(sources), s.reranker.Name())
	}

	if len(sources) > k {
		sources = sources[:k]
	}
	return retrieved, sources, nil
}

// normaliseK applies the default and enforces 1..MaxK.
func (s *QueryService) normaliseK(k int) (int, error) {
	if k == 0 {
		k = s.cfg.DefaultK
	}
	if k < 1 || k > domain.MaxK {
		return 0, fmt.Errorf("%w: k must be between 1 and %d, got %d", domain.ErrInvalidInput, domain.MaxK, k)
	}
	return k, nil
}

func (s *QueryService) rerankLabel(rerank bool) string {
	if !rerank || s.reranker == nil {
		return rerankNone
	}
	return s.reranker.Name()
}

// dedupeSources drops sources whose text repeats an earlier one. Small
// units of one large segment share their context.
func dedupeSources(sources []domain.Source) []domain.Source {
	seen := make(map[string]struct{}, len(sources))
	out := make([]domain.Source, 0, len(sources))
	for _, src := range sources {
		if _, ok := seen[src.Text]; ok {
			continue
		}
		seen[src.Text] = struct{}{}
		out = append(out, src)
	}
	return out
}
