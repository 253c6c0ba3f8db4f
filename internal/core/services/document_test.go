package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/localrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/localrag/internal/core/domain"
)

func seedDocument(t *testing.T, store *memory.DocumentStore, id, name string, paragraphs int) {
	t.Helper()
	batch := domain.ParagraphBatch{
		Document: domain.Document{ID: id, Name: name, Strategy: domain.StrategySimple, CreatedAt: time.Now().UTC()},
		IsNew:    true,
	}
	for i := range paragraphs {
		batch.Paragraphs = append(batch.Paragraphs, domain.Paragraph{
			ID:        id + "-p" + string(rune('0'+i)),
			Text:      "text",
			Context:   "context",
			Embedding: []float32{1, float32(i)},
		})
	}
	require.NoError(t, store.InsertParagraphs(context.Background(), batch))
}

func TestNewDocumentService(t *testing.T) {
	svc := NewDocumentService(memory.NewDocumentStore())
	require.NotNil(t, svc)
}

func TestDocumentService_List(t *testing.T) {
	store := memory.NewDocumentStore()
	seedDocument(t, store, "id-b", "beta", 1)
	seedDocument(t, store, "id-a", "alpha", 1)
	svc := NewDocumentService(store)

	docs, err := svc.List(context.Background())

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "alpha", docs[0].Name)
	assert.Equal(t, "beta", docs[1].Name)
}

func TestDocumentService_Get(t *testing.T) {
	store := memory.NewDocumentStore()
	seedDocument(t, store, "id-a", "alpha", 1)
	svc := NewDocumentService(store)

	doc, err := svc.Get(context.Background(), "id-a")
	require.NoError(t, err)
	assert.Equal(t, "alpha", doc.Name)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_Resolve(t *testing.T) {
	store := memory.NewDocumentStore()
	seedDocument(t, store, "id-a", "alpha", 1)
	svc := NewDocumentService(store)
	ctx := context.Background()

	byID, err := svc.Resolve(ctx, "id-a")
	require.NoError(t, err)
	assert.Equal(t, "alpha", byID.Name)

	byName, err := svc.Resolve(ctx, " alpha ")
	require.NoError(t, err)
	assert.Equal(t, "id-a", byName.ID)

	_, err = svc.Resolve(ctx, "gamma")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Resolve(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentService_GetDetails(t *testing.T) {
	store := memory.NewDocumentStore()
	seedDocument(t, store, "id-a", "alpha", 3)
	svc := NewDocumentService(store)

	details, err := svc.GetDetails(context.Background(), "id-a")

	require.NoError(t, err)
	assert.Equal(t, "alpha", details.Name)
	assert.Equal(t, 3, details.ParagraphCount)
}

func TestDocumentService_Delete(t *testing.T) {
	store := memory.NewDocumentStore()
	seedDocument(t, store, "id-a", "alpha", 2)
	svc := NewDocumentService(store)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "id-a"))

	_, err := svc.Get(ctx, "id-a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	sources, err := store.GetSources(ctx, []string{"id-a-p0", "id-a-p1"})
	require.NoError(t, err)
	assert.Empty(t, sources)

	assert.NoError(t, svc.Delete(ctx, "id-a"), "delete is idempotent")
}
