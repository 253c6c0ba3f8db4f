package chunking

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/localrag/internal/core/domain"
	"github.com/custodia-labs/localrag/internal/core/ports/driven"
)

// BuilderFunc creates a Chunker from generic config.
// Config is a map of strategy-specific settings parsed from user config.
type BuilderFunc func(cfg map[string]any) (driven.Chunker, error)

// Registry maps chunking strategies to their builders.
type Registry struct {
	builders map[domain.ChunkingStrategy]BuilderFunc
}

// Verify interface compliance.
var _ driven.ChunkerRegistry = (*Registry)(nil)

// NewRegistry creates an empty chunker registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[domain.ChunkingStrategy]BuilderFunc),
	}
}

// Register adds a builder for a strategy, replacing any existing one.
func (r *Registry) Register(strategy domain.ChunkingStrategy, builder BuilderFunc) {
	r.builders[strategy] = builder
}

// Chunker builds the chunker for a strategy with the given config.
func (r *Registry) Chunker(strategy domain.ChunkingStrategy, cfg map[string]any) (driven.Chunker, error) {
	builder, ok := r.builders[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: unknown chunking strategy %q", domain.ErrInvalidInput, strategy)
	}
	return builder(cfg)
}

// Has returns true if a builder is registered for the strategy.
func (r *Registry) Has(strategy domain.ChunkingStrategy) bool {
	_, ok := r.builders[strategy]
	return ok
}

// Strategies returns all registered strategies, sorted.
func (r *Registry) Strategies() []domain.ChunkingStrategy {
	out := make([]domain.ChunkingStrategy, 0, len(r.builders))
	for s := range r.builders {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
