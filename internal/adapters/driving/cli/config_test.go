package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/localrag/internal/core/domain"
)

func TestConfigCmd_IsSettingsOnly(t *testing.T) {
	assert.Equal(t, "true", configCheckCmd.Annotations[annotationSettingsOnly])
}

func TestConfigCheckCmd_PrintsSettings(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("config", "check")

	require.NoError(t, err)
	assert.Contains(t, out, "Backend: sqlite")
	assert.Contains(t, out, "Model: nomic-embed-text")
	assert.Contains(t, out, "API Key: sk-t...7890")
	assert.NotContains(t, out, "sk-test-1234567890")
	assert.Contains(t, out, "Oversample factor: 4")
	assert.False(t, ts.settings.pinged)
}

func TestConfigCheckCmd_MissingKeys(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.missing = []string{"embedding.model", "llm.base_url"}

	out, err := execute("config", "check")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, out, "embedding.model (env LOCALRAG_EMBEDDING_MODEL)")
	assert.Contains(t, out, "llm.base_url (env LOCALRAG_LLM_BASE_URL)")
}

func TestConfigCheckCmd_Ping(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("config", "check", "--ping")

	require.NoError(t, err)
	assert.True(t, ts.settings.pinged)
	assert.Contains(t, out, "Providers reachable.")
}

func TestConfigCheckCmd_PingFailure(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.pingErr = errors.New("connection refused")

	_, err := execute("config", "check", "--ping")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "(not set)", maskSecret(""))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "sk-a...wxyz", maskSecret("sk-abcdefghwxyz"))
}
