package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveEmbedding(t *testing.T) {
	okBefore := testutil.ToFloat64(EmbeddingBatches.WithLabelValues(StatusOK))
	errBefore := testutil.ToFloat64(EmbeddingBatches.WithLabelValues(StatusError))

	ObserveEmbedding(10*time.Millisecond, nil)
	ObserveEmbedding(10*time.Millisecond, errors.New("boom"))

	assert.InDelta(t, okBefore+1, testutil.ToFloat64(EmbeddingBatches.WithLabelValues(StatusOK)), 1e-9)
	assert.InDelta(t, errBefore+1, testutil.ToFloat64(EmbeddingBatches.WithLabelValues(StatusError)), 1e-9)
}

func TestAddParagraphs(t *testing.T) {
	before := testutil.ToFloat64(ParagraphsIngested.WithLabelValues("simple"))

	AddParagraphs("simple", 3)

	assert.InDelta(t, before+3, testutil.ToFloat64(ParagraphsIngested.WithLabelValues("simple")), 1e-9)
}

func TestCountQuery(t *testing.T) {
	before := testutil.ToFloat64(Queries.WithLabelValues("ask", "lexical"))

	CountQuery("ask", "lexical")

	assert.InDelta(t, before+1, testutil.ToFloat64(Queries.WithLabelValues("ask", "lexical")), 1e-9)
}

func TestHandler(t *testing.T) {
	ObserveLLM("answer", time.Second, nil)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), "localrag_llm_request_duration_seconds")
	assert.Contains(t, string(body), "go_goroutines")
}
