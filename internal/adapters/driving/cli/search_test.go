package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/localrag/internal/core/domain"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_Short(t *testing.T) {
	assert.Equal(t, "Search a document", searchCmd.Short)
}

func TestSearchCmd_HasFlags(t *testing.T) {
	k := searchCmd.Flags().Lookup("k")
	require.NotNil(t, k, "k flag should exist")
	assert.Equal(t, "0", k.DefValue)

	rerank := searchCmd.Flags().Lookup("rerank")
	require.NotNil(t, rerank)
	assert.Equal(t, "r", rerank.Shorthand)

	doc := searchCmd.Flags().Lookup("document")
	require.NotNil(t, doc)
	assert.Equal(t, "d", doc.Shorthand)
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("search")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestSearchCmd_RequiresDocument(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("search", "vacation")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--document is required")
}

func TestSearchCmd_ExecutesWithQuery(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("search", "-d", "handbook", "-k", "3", "--rerank", "vacation", "days")

	require.NoError(t, err)
	assert.Equal(t, domain.AskRequest{Query: "vacation days", DocumentID: "doc-1", K: 3, Rerank: true}, ts.query.lastReq)
	assert.Contains(t, out, "Results:")
	assert.Contains(t, out, "[1] p-1 (0.91)")
	assert.Contains(t, out, "25 vacation days")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("search", "--json", "-d", "doc-2", "test query")

	require.NoError(t, err)
	assert.Contains(t, out, `"paragraph_id": "p-1"`)
	assert.Contains(t, out, `"score": 0.91`)
	assert.Contains(t, out, `"text": "Requests go to your manager."`)
}

func TestSearchCmd_NoResults(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.query.results = nil

	out, err := execute("search", "-d", "handbook", "nothing")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_ServiceNotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	queryService = nil

	_, err := execute("search", "-d", "handbook", "test")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "query service not configured")
}

func TestSearchCmd_InvalidK(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.query.err = domain.ErrInvalidInput

	_, err := execute("search", "-d", "handbook", "-k", "11", "test")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
