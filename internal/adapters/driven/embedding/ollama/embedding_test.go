package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/localrag/internal/core/domain"
)

// newTestServer answers /api/embed with vectors of length dims per input,
// or a short vector for the input "short".
func newTestServer(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		embeddings := make([][]float32, 0, len(req.Input))
		for i, in := range req.Input {
			n := dims
			if in == "short" {
				n = dims - 1
			}
			vec := make([]float32, n)
			vec[0] = float32(i + 1)
			embeddings = append(embeddings, vec)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"model": req.Model, "embeddings": embeddings})
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"models":[]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewEmbeddingService(t *testing.T) {
	svc, err := NewEmbeddingService(Config{BaseURL: "http://localhost:11434", Model: "nomic-embed-text"})
	require.NoError(t, err)

	assert.Equal(t, "nomic-embed-text", svc.ModelName())
	assert.Zero(t, svc.Dimensions())
	assert.NoError(t, svc.Close())
}

func TestNewEmbeddingService_RequiresConnection(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "no base URL", cfg: Config{Model: "nomic-embed-text"}},
		{name: "no model", cfg: Config{BaseURL: "http://localhost:11434"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OLLAMA_HOST", "http://127.0.0.1:11434")

			_, err := NewEmbeddingService(tt.cfg)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestEmbeddingService_EmbedBatch(t *testing.T) {
	srv := newTestServer(t, 4)
	svc, err := NewEmbeddingService(Config{BaseURL: srv.URL, Model: "nomic-embed-text"})
	require.NoError(t, err)

	vectors, err := svc.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, float32(3), vectors[2][0])
	assert.Equal(t, 4, svc.Dimensions())
}

func TestEmbeddingService_EmbedBatch_Empty(t *testing.T) {
	svc, err := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1", Model: "m"})
	require.NoError(t, err)

	vectors, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestEmbeddingService_Embed(t *testing.T) {
	srv := newTestServer(t, 3)
	svc, err := NewEmbeddingService(Config{BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)

	vec, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 3)
}

func TestEmbeddingService_DimensionMismatch(t *testing.T) {
	srv := newTestServer(t, 4)
	svc, err := NewEmbeddingService(Config{BaseURL: srv.URL, Model: "m", Dimensions: 4})
	require.NoError(t, err)

	_, err = svc.EmbedBatch(context.Background(), []string{"ok", "short"})
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestEmbeddingService_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer srv.Close()

	svc, err := NewEmbeddingService(Config{BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)

	err = svc.Ping(context.Background())
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
}

func TestEmbeddingService_Ping(t *testing.T) {
	srv := newTestServer(t, 2)
	svc, err := NewEmbeddingService(Config{BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)

	assert.NoError(t, svc.Ping(context.Background()))
}

func TestNewEmbeddingService_InvalidURL(t *testing.T) {
	_, err := NewEmbeddingService(Config{BaseURL: "://bad", Model: "m"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
