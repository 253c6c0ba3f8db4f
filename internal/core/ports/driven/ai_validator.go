package driven

import (
	"context"

	"github.com/custodia-labs/localrag/internal/core/domain"
)

// AIConfigValidator verifies AI provider configurations by testing
// connectivity to the underlying services.
type AIConfigValidator interface {
	// ValidateEmbedding pings the configured embedding provider.
	ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error

	// ValidateLLM pings the configured LLM provider.
	ValidateLLM(ctx context.Context, config *domain.LLMSettings) error
}
