package driving

import (
	"context"

	"github.com/custodia-labs/localrag/internal/core/domain"
)

// SettingsService loads and validates application settings.
type SettingsService interface {
	// Load reads settings from configuration. Missing required values
	// fail with domain.ErrConfiguration naming every missing key.
	Load() (*domain.AppSettings, error)

	// MissingKeys returns the required configuration keys with no value.
	MissingKeys() []string

	// Ping checks connectivity of the configured embedding and LLM providers.
	Ping(ctx context.Context) error
}
