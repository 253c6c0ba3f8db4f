package driven

import (
	"context"

	"github.com/custodia-labs/localrag/internal/core/domain"
)

// Chunker splits extracted text into units for one strategy.
type Chunker interface {
	// Strategy returns the chunking strategy implemented.
	Strategy() domain.ChunkingStrategy

	// Chunk splits text into ordered units. Empty or whitespace-only
	// text yields no units and no error.
	Chunk(ctx context.Context, text string) ([]domain.Unit, error)
}

// ChunkerRegistry builds the chunker for a strategy.
type ChunkerRegistry interface {
	// Chunker returns a chunker for the strategy configured with cfg.
	// Returns domain.ErrInvalidInput for an unknown strategy.
	Chunker(strategy domain.ChunkingStrategy, cfg map[string]any) (Chunker, error)
}
