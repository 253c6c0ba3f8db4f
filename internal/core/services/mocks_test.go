package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/localrag/internal/core/domain"
	"github.com/custodia-labs/localrag/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Each text maps to a deterministic vector unless vectors overrides it.
type mockEmbeddingService struct {
	mu        sync.Mutex
	dims      int
	vectors   map[string][]float32
	err       error
	failAfter int
	calls     [][]string
	short     bool
}

func newMockEmbedding(dims int) *mockEmbeddingService {
	return &mockEmbeddingService{dims: dims, vectors: map[string][]float32{}}
}

func (m *mockEmbeddingService) vector(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	v := make([]float32, m.dims)
	for i, r := range text {
		v[i%m.dims] += float32(r%17) + 1
	}
	return v
}

func (m *mockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, append([]string(nil), texts...))
	if m.err != nil && len(m.calls) > m.failAfter {
		return nil, m.err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, m.vector(t))
	}
	if m.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *mockEmbeddingService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockEmbeddingService) Dimensions() int            { return m.dims }
func (m *mockEmbeddingService) ModelName() string          { return "mock-embed" }
func (m *mockEmbeddingService) Ping(context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error               { return nil }

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	response string
	err      error
	prompts  []string
	opts     []driven.GenerateOptions
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLMService) ModelName() string          { return "mock-llm" }
func (m *mockLLMService) Ping(context.Context) error { return nil }
func (m *mockLLMService) Close() error               { return nil }

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	err error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	switch name {
	case driven.PromptAnswer:
		return "CONTEXT[%s] QUESTION[%s]", nil
	case driven.PromptRerank:
		return "Q[%s] P[%s]", nil
	}
	return "", fmt.Errorf("%w: prompt %q", domain.ErrNotFound, name)
}

func (m *mockPromptStore) Reload() {}

// recordingReranker reverses candidates and records what it saw.
type recordingReranker struct {
	err  error
	seen []domain.Source
}

func (r *recordingReranker) Name() string { return "reverse" }

func (r *recordingReranker) Rerank(_ context.Context, _ string, candidates []domain.Source) ([]domain.Source, error) {
	r.seen = append([]domain.Source(nil), candidates...)
	if r.err != nil {
		return nil, r.err
	}
	out := make([]domain.Source, len(candidates))
	for i, c := range candidates {
		out[len(candidates)-1-i] = c
	}
	return out, nil
}

// spyStore wraps a DocumentStore and records Nearest requests.
type spyStore struct {
	driven.DocumentStore
	mu         sync.Mutex
	nearestK   []int
	nearestErr error
	insertErr  error
}

func (s *spyStore) Nearest(ctx context.Context, query []float32, k int, documentID string) ([]domain.Hit, error) {
	s.mu.Lock()
	s.nearestK = append(s.nearestK, k)
	s.mu.Unlock()
	if s.nearestErr != nil {
		return nil, s.nearestErr
	}
	return s.DocumentStore.Nearest(ctx, query, k, documentID)
}

func (s *spyStore) InsertParagraphs(ctx context.Context, batch domain.ParagraphBatch) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	return s.DocumentStore.InsertParagraphs(ctx, batch)
}

// stubNormaliser returns fixed text for every document of one format.
type stubNormaliser struct {
	format domain.Format
	text   string
	err    error
}

func (s *stubNormaliser) Format() domain.Format { return s.format }

func (s *stubNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.text != "" {
		return &driven.NormaliseResult{Text: s.text}, nil
	}
	return &driven.NormaliseResult{Text: string(raw.Content)}, nil
}

// splitChunker splits on "|" so tests control unit boundaries exactly.
type splitChunker struct {
	strategy domain.ChunkingStrategy
}

func (c *splitChunker) Strategy() domain.ChunkingStrategy { return c.strategy }

func (c *splitChunker) Chunk(_ context.Context, text string) ([]domain.Unit, error) {
	var units []domain.Unit
	offset := 0
	for _, part := range strings.Split(text, "|") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			units = append(units, domain.Unit{
				Text:           trimmed,
				Context:        trimmed,
				Position:       len(units),
				ParentPosition: len(units),
				Span:           domain.Span{Start: offset, End: offset + len(part)},
			})
		}
		offset += len(part) + 1
	}
	return units, nil
}

// splitRegistry builds splitChunkers for any valid strategy.
type splitRegistry struct{}

func (splitRegistry) Chunker(strategy domain.ChunkingStrategy, _ map[string]any) (driven.Chunker, error) {
	if !strategy.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidInput, strategy)
	}
	return &splitChunker{strategy: strategy}, nil
}

var errBoom = errors.New("boom")
