package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/localrag/internal/core/domain"
	"github.com/custodia-labs/localrag/internal/core/ports/driven"
	"github.com/custodia-labs/localrag/internal/core/ports/driving"
	"github.com/custodia-labs/localrag/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyStorageBackend   = "storage.backend"
	KeyStoragePath      = "storage.path"
	KeyDatabaseName     = "database.name"
	KeyDatabaseUser     = "database.user"
	KeyDatabasePassword = "database.password"
	KeyDatabaseHost     = "database.host"
	KeyDatabasePort     = "database.port"
	KeyEmbedProvider    = "embedding.provider"
	KeyEmbedModel       = "embedding.model"
	KeyEmbedBaseURL     = "embedding.base_url"
	KeyEmbedAPIKey      = "embedding.api_key"
	KeyEmbedBatchSize   = "embedding.batch_size"
	KeyEmbedDimensions  = "embedding.dimensions"
	KeyEmbedConcurrency = "embedding.concurrency"
	KeyEmbedRPS         = "embedding.requests_per_second"
	KeyLLMProvider      = "llm.provider"
	KeyLLMModel         = "llm.model"
	KeyLLMBaseURL       = "llm.base_url"
	KeyLLMAPIKey        = "llm.api_key"
	KeyLLMTemperature   = "llm.temperature"
	KeyLLMTimeout       = "llm.timeout_seconds"
	KeySimpleMaxChars   = "chunking.simple.max_chars"
	KeyBigMaxChars      = "chunking.smalltobig.big_max_chars"
	KeySmallMaxChars    = "chunking.smalltobig.small_max_chars"
	KeySmallOverlap     = "chunking.smalltobig.small_overlap"
	KeyOversampleFactor = "retrieval.oversample_factor"
	KeyDefaultK         = "retrieval.default_k"
	KeyRerankProvider   = "rerank.provider"
	KeyPromptsDir       = "prompts.dir"
)

// SettingsService loads application settings from a ConfigStore and
// checks that every required value is present.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
// aiValidator is optional; without it Ping only validates configuration.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// RequiredKeys returns the keys that must be set for the configured
// storage backend and providers.
func (s *SettingsService) RequiredKeys() []string {
	keys := []string{KeyStorageBackend}
	if domain.StorageBackend(s.configStore.GetString(KeyStorageBackend)) == domain.StoragePostgres {
		keys = append(keys, KeyDatabaseName, KeyDatabaseUser, KeyDatabasePassword, KeyDatabaseHost, KeyDatabasePort)
	}

	keys = append(keys, KeyEmbedProvider, KeyEmbedModel, KeyEmbedBatchSize)
	switch domain.AIProvider(s.configStore.GetString(KeyEmbedProvider)) {
	case domain.AIProviderOllama:
		keys = append(keys, KeyEmbedBaseURL)
	case domain.AIProviderOpenAI:
		keys = append(keys, KeyEmbedAPIKey)
	}

	keys = append(keys, KeyLLMProvider, KeyLLMModel, KeyLLMTemperature)
	switch domain.AIProvider(s.configStore.GetString(KeyLLMProvider)) {
	case domain.AIProviderOllama:
		keys = append(keys, KeyLLMBaseURL)
	case domain.AIProviderOpenAI:
		keys = append(keys, KeyLLMAPIKey)
	}
	return keys
}

// MissingKeys returns the required keys with no value.
func (s *SettingsService) MissingKeys() []string {
	var missing []string
	for _, key := range s.RequiredKeys() {
		val, ok := s.configStore.Get(key)
		if !ok || val == nil {
			missing = append(missing, key)
			continue
		}
		if str, isStr := val.(string); isStr && strings.TrimSpace(str) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// Load reads and validates settings. Tuning values fall back to their
// defaults; connection values and model identity never do.
func (s *SettingsService) Load() (*domain.AppSettings, error) {
	if missing := s.MissingKeys(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required keys: %s",
			domain.ErrConfiguration, strings.Join(missing, ", "))
	}

	defaults := domain.DefaultAppSettings()
	settings := &domain.AppSettings{
		Storage: domain.StorageSettings{
			Backend: domain.StorageBackend(s.configStore.GetString(KeyStorageBackend)),
			Path:    s.configStore.GetString(KeyStoragePath),
			Database: domain.DatabaseSettings{
				Name:     s.configStore.GetString(KeyDatabaseName),
				User:     s.configStore.GetString(KeyDatabaseUser),
				Password: s.configStore.GetString(KeyDatabasePassword),
				Host:     s.configStore.GetString(KeyDatabaseHost),
				Port:     s.configStore.GetInt(KeyDatabasePort),
			},
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          domain.AIProvider(s.configStore.GetString(KeyEmbedProvider)),
			Model:             s.configStore.GetString(KeyEmbedModel),
			BaseURL:           s.configStore.GetString(KeyEmbedBaseURL),
			APIKey:            s.configStore.GetString(KeyEmbedAPIKey),
			BatchSize:         s.configStore.GetInt(KeyEmbedBatchSize),
			Dimensions:        s.configStore.GetInt(KeyEmbedDimensions),
			Concurrency:       s.getInt(KeyEmbedConcurrency, defaults.Embedding.Concurrency),
			RequestsPerSecond: s.configStore.GetFloat(KeyEmbedRPS),
		},
		LLM: domain.LLMSettings{
			Provider:       domain.AIProvider(s.configStore.GetString(KeyLLMProvider)),
			Model:          s.configStore.GetString(KeyLLMModel),
			BaseURL:        s.configStore.GetString(KeyLLMBaseURL),
			APIKey:         s.configStore.GetString(KeyLLMAPIKey),
			Temperature:    s.configStore.GetFloat(KeyLLMTemperature),
			TimeoutSeconds: s.configStore.GetInt(KeyLLMTimeout),
		},
		Chunking: domain.ChunkingSettings{
			SimpleMaxChars: s.getInt(KeySimpleMaxChars, defaults.Chunking.SimpleMaxChars),
			BigMaxChars:    s.getInt(KeyBigMaxChars, defaults.Chunking.BigMaxChars),
			SmallMaxChars:  s.getInt(KeySmallMaxChars, defaults.Chunking.SmallMaxChars),
			SmallOverlap:   s.getNonNegative(KeySmallOverlap, defaults.Chunking.SmallOverlap),
		},
		Retrieval: domain.RetrievalSettings{
			OversampleFactor: s.getInt(KeyOversampleFactor, defaults.Retrieval.OversampleFactor),
			DefaultK:         s.getInt(KeyDefaultK, defaults.Retrieval.DefaultK),
			Reranker:         defaults.Retrieval.Reranker,
		},
		PromptsDir: s.configStore.GetString(KeyPromptsDir),
	}
	if r := s.configStore.GetString(KeyRerankProvider); r != "" {
		settings.Retrieval.Reranker = domain.RerankProvider(r)
	}

	if err := validate(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// validate checks enumerations and ranges of loaded settings.
func validate(s *domain.AppSettings) error {
	var errs []error
	if !s.Storage.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("%s: unsupported backend %q", KeyStorageBackend, s.Storage.Backend))
	}
	if s.Storage.Backend == domain.StoragePostgres && s.Storage.Database.Port <= 0 {
		errs = append(errs, fmt.Errorf("%s: must be a positive port number", KeyDatabasePort))
	}
	if !s.Embedding.Provider.IsValid() {
		errs = append(errs, fmt.Errorf("%s: unsupported provider %q", KeyEmbedProvider, s.Embedding.Provider))
	}
	if s.Embedding.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("%s: must be positive", KeyEmbedBatchSize))
	}
	if s.Embedding.Dimensions < 0 {
		errs = append(errs, fmt.Errorf("%s: must not be negative", KeyEmbedDimensions))
	}
	if s.Embedding.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("%s: must not be negative", KeyEmbedRPS))
	}
	if !s.LLM.Provider.IsValid() {
		errs = append(errs, fmt.Errorf("%s: unsupported provider %q", KeyLLMProvider, s.LLM.Provider))
	}
	if s.LLM.Temperature < 0 || s.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("%s: must be between 0 and 2", KeyLLMTemperature))
	}
	if !s.Retrieval.Reranker.IsValid() {
		errs = append(errs, fmt.Errorf("%s: unsupported provider %q", KeyRerankProvider, s.Retrieval.Reranker))
	}
	if s.Retrieval.DefaultK > domain.MaxK {
		errs = append(errs, fmt.Errorf("%s: must be at most %d", KeyDefaultK, domain.MaxK))
	}
	if s.Chunking.SmallMaxChars > s.Chunking.BigMaxChars {
		errs = append(errs, fmt.Errorf("%s: must not exceed %s", KeySmallMaxChars, KeyBigMaxChars))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrConfiguration, errors.Join(errs...))
}

// Ping loads settings and checks that both AI providers respond.
func (s *SettingsService) Ping(ctx context.Context) error {
	settings, err := s.Load()
	if err != nil {
		return err
	}
	if s.aiValidator == nil {
		return nil
	}

	logger.Section("Provider Check")
	if err := s.aiValidator.ValidateEmbedding(ctx, &settings.Embedding); err != nil {
		return fmt.Errorf("embedding provider %s: %w", settings.Embedding.Provider, err)
	}
	logger.Debug("Embedding provider %s (%s) reachable", settings.Embedding.Provider, settings.Embedding.Model)

	if err := s.aiValidator.ValidateLLM(ctx, &settings.LLM); err != nil {
		return fmt.Errorf("llm provider %s: %w", settings.LLM.Provider, err)
	}
	logger.Debug("LLM provider %s (%s) reachable", settings.LLM.Provider, settings.LLM.Model)
	return nil
}

// getInt returns the configured value, or defaultVal when unset or not positive.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if val := s.configStore.GetInt(key); val > 0 {
		return val
	}
	return defaultVal
}

// getNonNegative returns the configured value when set, so an explicit 0
// is kept, or defaultVal otherwise.
func (s *SettingsService) getNonNegative(key string, defaultVal int) int {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	if val := s.configStore.GetInt(key); val >= 0 {
		return val
	}
	return defaultVal
}
