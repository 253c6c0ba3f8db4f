package chunking

import (
	"github.com/custodia-labs/localrag/internal/chunking/simple"
	"github.com/custodia-labs/localrag/internal/chunking/smalltobig"
	"github.com/custodia-labs/localrag/internal/core/domain"
	"github.com/custodia-labs/localrag/internal/core/ports/driven"
)

// RegisterDefaults registers the built-in strategies with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(domain.StrategySimple, buildSimple)
	r.Register(domain.StrategySmallToBig, buildSmallToBig)
}

// NewDefaultRegistry returns a registry with the built-in strategies.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// buildSimple creates a simple chunker from generic config.
// Supported config keys:
//   - max_chars (int): Maximum characters per segment (default: 1500)
func buildSimple(cfg map[string]any) (driven.Chunker, error) {
	var opts []simple.Option
	if size := getIntFromConfig(cfg, "max_chars"); size > 0 {
		opts = append(opts, simple.WithMaxChars(size))
	}
	return simple.New(opts...), nil
}

// buildSmallToBig creates a smalltobig chunker from generic config.
// Supported config keys:
//   - big_max_chars (int): Maximum characters per context segment (default: 2000)
//   - small_max_chars (int): Maximum characters per retrieval window (default: 300)
//   - small_overlap (int): Sentences shared by adjacent windows (default: 1)
func buildSmallToBig(cfg map[string]any) (driven.Chunker, error) {
	var opts []smalltobig.Option
	if size := getIntFromConfig(cfg, "big_max_chars"); size > 0 {
		opts = append(opts, smalltobig.WithBigMaxChars(size))
	}
	if size := getIntFromConfig(cfg, "small_max_chars"); size > 0 {
		opts = append(opts, smalltobig.WithSmallMaxChars(size))
	}
	if _, ok := cfg["small_overlap"]; ok {
		opts = append(opts, smalltobig.WithOverlap(getIntFromConfig(cfg, "small_overlap")))
	}
	return smalltobig.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/YAML parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
