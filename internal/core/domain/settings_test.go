package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider_IsValid(t *testing.T) {
	assert.True(t, AIProviderOllama.IsValid())
	assert.True(t, AIProviderOpenAI.IsValid())
	assert.False(t, AIProvider("anthropic").IsValid())
	assert.False(t, AIProvider("").IsValid())
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
}

func TestStorageBackend_IsValid(t *testing.T) {
	for _, b := range []StorageBackend{StorageSQLite, StoragePostgres, StorageMemory} {
		assert.True(t, b.IsValid(), b.String())
	}
	assert.False(t, StorageBackend("mysql").IsValid())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, 4, s.Retrieval.OversampleFactor)
	assert.Equal(t, DefaultK, s.Retrieval.DefaultK)
	assert.Equal(t, RerankLexical, s.Retrieval.Reranker)
	assert.Equal(t, StorageSQLite, s.Storage.Backend)

	// Identity and connection values have no defaults.
	assert.Empty(t, s.Storage.Path)
	assert.Empty(t, s.Embedding.Model)
	assert.Empty(t, s.LLM.Model)
	assert.Empty(t, s.LLM.BaseURL)
	assert.Zero(t, s.Embedding.BatchSize)
}

func TestChunkingSettings_Config(t *testing.T) {
	c := DefaultAppSettings().Chunking

	simple := c.Config(StrategySimple)
	assert.Equal(t, DefaultSimpleMaxChars, simple["max_chars"])

	s2b := c.Config(StrategySmallToBig)
	assert.Equal(t, DefaultBigMaxChars, s2b["big_max_chars"])
	assert.Equal(t, DefaultSmallMaxChars, s2b["small_max_chars"])
	assert.Equal(t, DefaultSmallOverlap, s2b["small_overlap"])

	assert.Nil(t, c.Config(ChunkingStrategy("bogus")))
}

func TestSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		model    string
		apiKey   string
		want     bool
	}{
		{"ollama with model", AIProviderOllama, "llama3.2", "", true},
		{"ollama without model", AIProviderOllama, "", "", false},
		{"openai without key", AIProviderOpenAI, "gpt-4o-mini", "", false},
		{"openai with key", AIProviderOpenAI, "gpt-4o-mini", "sk-test", true},
		{"unknown provider", AIProvider("other"), "m", "k", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb := EmbeddingSettings{Provider: tt.provider, Model: tt.model, APIKey: tt.apiKey}
			llm := LLMSettings{Provider: tt.provider, Model: tt.model, APIKey: tt.apiKey}
			assert.Equal(t, tt.want, emb.IsConfigured())
			assert.Equal(t, tt.want, llm.IsConfigured())
		})
	}
}
