package domain

import (
	"fmt"
	"strings"
)

const unknownDescription = "Unknown"

// ChunkingStrategy selects how extracted text is split into paragraphs.
type ChunkingStrategy string

// Available chunking strategies.
const (
	// StrategySimple splits text into paragraph-sized segments.
	StrategySimple ChunkingStrategy = "simple"

	// StrategySmallToBig embeds small segments and returns the large
	// segment that encloses them.
	StrategySmallToBig ChunkingStrategy = "smalltobig"
)

// IsValid returns true if the strategy is recognised.
func (s ChunkingStrategy) IsValid() bool {
	switch s {
	case StrategySimple, StrategySmallToBig:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s ChunkingStrategy) String() string {
	return string(s)
}

// Description returns a human-readable description of the strategy.
func (s ChunkingStrategy) Description() string {
	switch s {
	case StrategySimple:
		return "Simple (paragraph segments)"
	case StrategySmallToBig:
		return "Small-to-big (sentence windows, paragraph context)"
	default:
		return unknownDescription
	}
}

// AllChunkingStrategies returns every available strategy.
func AllChunkingStrategies() []ChunkingStrategy {
	return []ChunkingStrategy{StrategySimple, StrategySmallToBig}
}

// ParseChunkingStrategy parses a strategy name, case-insensitively.
func ParseChunkingStrategy(name string) (ChunkingStrategy, error) {
	s := ChunkingStrategy(strings.ToLower(strings.TrimSpace(name)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: unknown chunking strategy %q", ErrInvalidInput, name)
	}
	return s, nil
}
