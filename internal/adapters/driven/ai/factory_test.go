package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ollamaembed "github.com/custodia-labs/localrag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/localrag/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/custodia-labs/localrag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/localrag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/localrag/internal/core/domain"
)

func TestServices_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &Services{}
		// Should not panic
		result.Close()
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantType any
		wantErr  bool
	}{
		{
			name:     "nil settings",
			settings: nil,
			wantErr:  true,
		},
		{
			name:     "unconfigured settings",
			settings: &domain.EmbeddingSettings{},
			wantErr:  true,
		},
		{
			name: "ollama provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "nomic-embed-text",
			},
			wantType: &ollamaembed.EmbeddingService{},
		},
		{
			name: "openai provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-small",
			},
			wantType: &openaiembed.EmbeddingService{},
		},
		{
			name: "openai without key",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				Model:    "text-embedding-3-small",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrConfiguration)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, svc)
		})
	}
}

func TestCreateEmbeddingService_Dimensions(t *testing.T) {
	known, err := CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  "http://localhost:11434",
		Model:    "nomic-embed-text",
	})
	require.NoError(t, err)
	assert.Equal(t, 768, known.Dimensions())

	explicit, err := CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider:   domain.AIProviderOllama,
		BaseURL:    "http://localhost:11434",
		Model:      "nomic-embed-text",
		Dimensions: 512,
	})
	require.NoError(t, err)
	assert.Equal(t, 512, explicit.Dimensions())

	unknown, err := CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  "http://localhost:11434",
		Model:    "custom-model",
	})
	require.NoError(t, err)
	assert.Zero(t, unknown.Dimensions())
}

func TestCreateLLMService(t *testing.T) {
	ollama, err := CreateLLMService(&domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  "http://localhost:11434",
		Model:    "llama3.2",
	})
	require.NoError(t, err)
	assert.IsType(t, &ollamallm.LLMService{}, ollama)
	assert.Equal(t, "llama3.2", ollama.ModelName())

	openai, err := CreateLLMService(&domain.LLMSettings{
		Provider: domain.AIProviderOpenAI,
		APIKey:   "k",
		Model:    "gpt-4o-mini",
	})
	require.NoError(t, err)
	assert.IsType(t, &openaillm.LLMService{}, openai)

	_, err = CreateLLMService(&domain.LLMSettings{Provider: "other", Model: "m"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNewServices(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Embedding.Provider = domain.AIProviderOllama
	settings.Embedding.Model = "nomic-embed-text"
	settings.Embedding.BaseURL = "http://localhost:11434"
	settings.LLM.Provider = domain.AIProviderOllama
	settings.LLM.Model = "llama3.2"
	settings.LLM.BaseURL = "http://localhost:11434"

	svcs, err := NewServices(&settings)
	require.NoError(t, err)
	defer svcs.Close()
	assert.NotNil(t, svcs.Embedding)
	assert.NotNil(t, svcs.LLM)

	settings.LLM.Model = ""
	_, err = NewServices(&settings)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestValidateConfig_Reachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	err := ValidateEmbeddingConfig(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  srv.URL,
		Model:    "nomic-embed-text",
	})
	assert.NoError(t, err)

	err = ValidateLLMConfig(context.Background(), &domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  srv.URL,
		Model:    "llama3.2",
	})
	assert.NoError(t, err)
}

func TestValidateConfig_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := ValidateEmbeddingConfig(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  url,
		Model:    "nomic-embed-text",
	})
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)

	err = ValidateLLMConfig(context.Background(), &domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  url,
		Model:    "llama3.2",
	})
	assert.ErrorIs(t, err, domain.ErrLLMService)
}
