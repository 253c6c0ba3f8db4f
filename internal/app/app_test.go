package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/localrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/localrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/localrag/internal/core/domain"
)

const testConfig = `storage:
  backend: memory
embedding:
  provider: ollama
  model: nomic-embed-text
  base_url: http://127.0.0.1:1
  batch_size: 8
llm:
  provider: ollama
  model: llama3
  base_url: http://127.0.0.1:1
  temperature: 0.2
retrieval:
  default_k: 3
prompts:
  dir: {{prompts}}
`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(strings.ReplaceAll(testConfig, "{{prompts}}", filepath.Join(dir, "prompts")))
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		store, err := OpenStore(ctx, domain.StorageSettings{Backend: domain.StorageMemory})
		require.NoError(t, err)
		assert.IsType(t, &memory.DocumentStore{}, store)
		assert.NoError(t, store.Close())
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data", "rag.db")
		store, err := OpenStore(ctx, domain.StorageSettings{Backend: domain.StorageSQLite, Path: path})
		require.NoError(t, err)
		assert.IsType(t, &sqlite.Store{}, store)
		assert.NoError(t, store.Close())
		assert.FileExists(t, path)
	})

	t.Run("unsupported backend", func(t *testing.T) {
		_, err := OpenStore(ctx, domain.StorageSettings{Backend: "mongo"})
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})
}

func TestNewSettingsService(t *testing.T) {
	svc, err := NewSettingsService(writeConfig(t))
	require.NoError(t, err)

	settings, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, domain.StorageMemory, settings.Storage.Backend)
	assert.Equal(t, 8, settings.Embedding.BatchSize)
	assert.Equal(t, 3, settings.Retrieval.DefaultK)
	assert.InDelta(t, 0.2, settings.LLM.Temperature, 1e-9)
}

func TestNewSettingsService_UnsupportedFormat(t *testing.T) {
	_, err := NewSettingsService(filepath.Join(t.TempDir(), "config.ini"))
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("wires every service", func(t *testing.T) {
		a, err := New(ctx, writeConfig(t))
		require.NoError(t, err)
		defer a.Close()

		assert.NotNil(t, a.Ingest)
		assert.NotNil(t, a.Query)
		assert.NotNil(t, a.Document)
		assert.NotNil(t, a.SettingsService)

		docs, err := a.Document.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("missing keys is a configuration error", func(t *testing.T) {
		_, err := New(ctx, filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
		assert.Contains(t, err.Error(), "storage.backend")
	})
}

func TestApp_CloseIsSafeOnPartialApp(t *testing.T) {
	assert.NoError(t, (&App{}).Close())
}
