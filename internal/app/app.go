// Package app wires the driven adapters and core services into a
// runnable application.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/localrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/localrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/localrag/internal/adapters/driven/rerank"
	"github.com/custodia-labs/localrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/localrag/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/localrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/localrag/internal/chunking"
	"github.com/custodia-labs/localrag/internal/core/domain"
	"github.com/custodia-labs/localrag/internal/core/ports/driven"
	"github.com/custodia-labs/localrag/internal/core/services"
	"github.com/custodia-labs/localrag/internal/logger"
	"github.com/custodia-labs/localrag/internal/normalisers"
)

// DotEnvPath is the .env file loaded before configuration is read.
const DotEnvPath = ".env"

// App holds the wired services and the resources they share.
type App struct {
	Settings        *domain.AppSettings
	SettingsService *services.SettingsService
	Ingest          *services.IngestService
	Query           *services.QueryService
	Document        *services.DocumentService

	store driven.DocumentStore
	ai    *ai.Services
}

// NewSettingsService loads .env and the config file and returns a
// settings service over them. It never contacts the store or providers.
func NewSettingsService(configPath string) (*services.SettingsService, error) {
	if err := file.LoadDotEnv(DotEnvPath); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	configStore, err := file.NewConfigStore(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	logger.Debug("Using config file %s", configStore.Path())

	return services.NewSettingsService(configStore, ai.NewConfigValidator()), nil
}

// New loads and validates settings, opens the store and creates the
// AI clients and services. Call Close when done.
func New(ctx context.Context, configPath string) (*App, error) {
	settingsService, err := NewSettingsService(configPath)
	if err != nil {
		return nil, err
	}
	settings, err := settingsService.Load()
	if err != nil {
		return nil, err
	}
	return Build(ctx, settings, settingsService)
}

// Build wires an App from already loaded settings.
func Build(ctx context.Context, settings *domain.AppSettings, settingsService *services.SettingsService) (*App, error) {
	logger.Section("Startup")

	store, err := OpenStore(ctx, settings.Storage)
	if err != nil {
		return nil, err
	}
	logger.Debug("Opened %s store", settings.Storage.Backend)

	aiServices, err := ai.NewServices(settings)
	if err != nil {
		store.Close()
		return nil, err
	}
	logger.Debug("Embedding: %s (%s), LLM: %s (%s)",
		settings.Embedding.Provider, settings.Embedding.Model, settings.LLM.Provider, settings.LLM.Model)

	a := &App{
		Settings:        settings,
		SettingsService: settingsService,
		store:           store,
		ai:              aiServices,
	}
	if err := a.wire(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire() error {
	prompts, err := file.NewPromptStore(a.Settings.PromptsDir)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	reranker, err := rerank.New(a.Settings.Retrieval.Reranker, a.ai.LLM, prompts)
	if err != nil {
		return err
	}

	batcher, err := services.NewBatcher(a.ai.Embedding, services.BatcherConfig{
		BatchSize:         a.Settings.Embedding.BatchSize,
		Concurrency:       a.Settings.Embedding.Concurrency,
		RequestsPerSecond: a.Settings.Embedding.RequestsPerSecond,
		Dimensions:        a.Settings.Embedding.Dimensions,
	})
	if err != nil {
		return err
	}

	a.Ingest = services.NewIngestService(
		normalisers.NewDefaultRegistry(),
		chunking.NewDefaultRegistry(),
		batcher,
		a.store,
		a.Settings.Chunking,
	)
	a.Query = services.NewQueryService(a.ai.Embedding, a.store, reranker, a.ai.LLM, prompts, services.QueryConfig{
		OversampleFactor: a.Settings.Retrieval.OversampleFactor,
		DefaultK:         a.Settings.Retrieval.DefaultK,
		Temperature:      a.Settings.LLM.Temperature,
	})
	a.Document = services.NewDocumentService(a.store)
	return nil
}

// Close releases the AI clients and the store.
func (a *App) Close() error {
	if a.ai != nil {
		a.ai.Close()
	}
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// OpenStore opens the configured document store backend.
func OpenStore(ctx context.Context, s domain.StorageSettings) (driven.DocumentStore, error) {
	switch s.Backend {
	case domain.StorageSQLite:
		return sqlite.NewStore(s.Path)
	case domain.StoragePostgres:
		return postgres.NewStore(ctx, postgres.ConnString(s.Database))
	case domain.StorageMemory:
		return memory.NewDocumentStore(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported storage backend %q", domain.ErrConfiguration, s.Backend)
	}
}

// IsConfigError reports whether err stems from configuration.
func IsConfigError(err error) bool {
	return errors.Is(err, domain.ErrConfiguration)
}
