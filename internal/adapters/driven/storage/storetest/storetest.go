// Package storetest holds behaviour tests shared by every
// driven.DocumentStore implementation.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/localrag/internal/core/domain"
	"github.com/custodia-labs/localrag/internal/core/ports/driven"
)

// Factory returns an empty store. The caller owns cleanup.
type Factory func(t *testing.T) driven.DocumentStore

// Run executes the shared behaviour tests against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("InsertNewDocument", func(t *testing.T) { testInsertNewDocument(t, newStore(t)) })
	t.Run("InsertEmptyNewDocument", func(t *testing.T) { testInsertEmptyNewDocument(t, newStore(t)) })
	t.Run("AppendContinuesPositions", func(t *testing.T) { testAppendContinuesPositions(t, newStore(t)) })
	t.Run("AppendUnknownDocument", func(t *testing.T) { testAppendUnknownDocument(t, newStore(t)) })
	t.Run("DuplicateName", func(t *testing.T) { testDuplicateName(t, newStore(t)) })
	t.Run("DimensionMismatchIsAtomic", func(t *testing.T) { testDimensionMismatchIsAtomic(t, newStore(t)) })
	t.Run("FailedLastWriteIsAtomic", func(t *testing.T) { testFailedLastWriteIsAtomic(t, newStore(t)) })
	t.Run("ListOrderedByName", func(t *testing.T) { testListOrderedByName(t, newStore(t)) })
	t.Run("GetDocument", func(t *testing.T) { testGetDocument(t, newStore(t)) })
	t.Run("NearestScopedAndOrdered", func(t *testing.T) { testNearestScopedAndOrdered(t, newStore(t)) })
	t.Run("NearestTieBreak", func(t *testing.T) { testNearestTieBreak(t, newStore(t)) })
	t.Run("NearestEdgeCases", func(t *testing.T) { testNearestEdgeCases(t, newStore(t)) })
	t.Run("GetSources", func(t *testing.T) { testGetSources(t, newStore(t)) })
	t.Run("DeleteDocument", func(t *testing.T) { testDeleteDocument(t, newStore(t)) })
	t.Run("DeleteLastDocumentResetsDimensions", func(t *testing.T) {
		testDeleteLastDocumentResetsDimensions(t, newStore(t))
	})
	t.Run("ConcurrentInserts", func(t *testing.T) { testConcurrentInserts(t, newStore(t)) })
}

// NewDocument returns a document with a deterministic id.
func NewDocument(name string) domain.Document {
	return domain.Document{
		ID:        "doc-" + name,
		Name:      name,
		Strategy:  domain.StrategySimple,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// Paragraph returns a paragraph with the given id and embedding.
func Paragraph(id string, embedding ...float32) domain.Paragraph {
	return domain.Paragraph{
		ID:        id,
		Text:      "text " + id,
		Context:   "context " + id,
		Span:      domain.Span{Start: 0, End: 5},
		Embedding: embedding,
	}
}

func insert(t *testing.T, store driven.DocumentStore, doc domain.Document, isNew bool, paragraphs ...domain.Paragraph) {
	t.Helper()
	err := store.InsertParagraphs(context.Background(), domain.ParagraphBatch{
		Document:   doc,
		IsNew:      isNew,
		Paragraphs: paragraphs,
	})
	require.NoError(t, err)
}

func testInsertNewDocument(t *testing.T, store driven.DocumentStore) {
	ctx := context.Background()
	doc := NewDocument("manual")

	insert(t, store, doc, true, Paragraph("p1", 1, 0), Paragraph("p2", 0, 1))

	got, err := store.GetDocumentByName(ctx, "manual")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, domain.StrategySimple, got.Strategy)

	count, err := store.CountParagraphs(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	dims, err := store.Dimensions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dims)
}

func testInsertEmptyNewDocument(t *testing.T, store driven.DocumentStore) {
	ctx := context.Background()
	doc := NewDocument("empty")

	insert(t, store, doc, true)

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "empty", docs[0].Name)

	dims, err := store.Dimensions(ctx)
	require.NoError(t, err)
	assert.Zero(t, dims)
}

func testAppendContinuesPositions(t *testing.T, store driven.DocumentStore) {
	ctx := context.Background()
	doc := NewDocument("growing")

	insert(t, store, doc, true, Paragraph("p1", 1, 0), Paragraph("p2", 0, 1))
	insert(t, store, doc, false, Paragraph("p3", 1, 1))

	count, err := store.CountParagraphs(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	hits, err := store.Nearest(ctx, []float32{1, 1}, 10, doc.ID)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "p3", hits[0].ParagraphID)
}

func testAppendUnknownDocument(t *testing.T, store driven.DocumentStore) {
	err := store.InsertParagraphs(context.Background(), domain.ParagraphBatch{
		Document:   NewDocument("ghost"),
		Paragraphs: []domain.Paragraph{Paragraph("p1", 1)},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testDuplicateName(t *testing.T, store driven.DocumentStore) {
	insert(t, store, NewDocument("dup"), true, Paragraph("p1", 1))

	other := NewDocument("dup")
	other.ID = "doc-other"
	err := store.InsertParagraphs(context.Background(), domain.ParagraphBatch{
		Document:   other,
		IsNew:      true,
		Paragraphs: []domain.Paragraph{Paragraph("p2", 1)},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func testDimensionMismatchIsAtomic(t *testing.T, store driven.DocumentStore) {
	ctx := context.Background()
	insert(t, store, NewDocument("first"), true, Paragraph("p1", 1, 0, 0))

	doc := NewDocument("second")
	err := store.InsertParagraphs(ctx, domain.ParagraphBatch{
		Document: doc,
		IsNew:    true,
		Paragraphs: []domain.Paragraph{
			Paragraph("p2", 1, 0, 0),
			Paragraph("p3", 1, 0),
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = store.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	sources, err := store.GetSources(ctx, []string{"p2"})
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func testFailedLastWriteIsAtomic(t *testing.T, store driven.DocumentStore) {
	ctx := context.Background()
	doc := NewDocument("target")
	insert(t, store, doc, true, Paragraph("p1", 1, 0), Paragraph("p2", 0, 1))

	err := store.InsertParagraphs(ctx, domain.ParagraphBatch{
		Document: doc,
		Paragraphs: []domain.Paragraph{
			Paragraph("p3", 1, 1),
			Paragraph("p4", 1, 1),
			Paragraph("p1", 1, 1),
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStore)

	count, err := store.CountParagraphs(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	sources, err := store.GetSources(ctx, []string{"p3", "p4"})
	require.NoError(t, err)
	assert.Empty(t, sources)

	insert(t, store, doc, false, Paragraph("p3", 1, 1))
	hits, err := store.Nearest(ctx, []float32{1, 1}, 1, doc.ID)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "p3", hits[0].ParagraphID)
}

func testListOrderedByName(t *testing.T, store driven.DocumentStore) {
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		insert(t, store, NewDocument(name), true)
	}

	docs, err := store.ListDocuments(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, names)
}

func testGetDocument(t *testing.T, store driven.DocumentStore) {
	ctx := context.Background()
	doc := NewDocument("lookup")
	insert(t, store, doc, true)

	got, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "lookup", got.Name)
	assert.True(t, doc.CreatedAt.Equal(got.CreatedAt))

	_, err = store.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.GetDocumentByName(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testNearestScopedAndOrdered(t *testing.T, store driven.DocumentStore) {
	ctx := context.Background()
	a := NewDocument("a")
	b := NewDocument("b")
	insert(t, store, a, true,
		Paragraph("a1", 1, 0),
		Paragraph("a2", 0.7, 0.7),
		Paragraph("a3", 0, 1),
	)
	insert(t, store, b, true, Paragraph("b1", 1, 0))

	hits, err := store.Nearest(ctx, []float32{1, 0}, 2, a.ID)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a1", hits[0].ParagraphID)
	assert.Equal(t, "a2", hits[1].ParagraphID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
}

func testNearestTieBreak(t *testing.T, store driven.DocumentStore) {
	doc := NewDocument("ties")
	insert(t, store, doc, true,
		Paragraph("p-c", 1, 0),
		Paragraph("p-a", 1, 0),
		Paragraph("p-b", 2, 0),
	)

	hits, err := store.Nearest(context.Background(), []float32{1, 0}, 3, doc.ID)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "p-a", hits[0].ParagraphID)
	assert.Equal(t, "p-b", hits[1].ParagraphID)
	assert.Equal(t, "p-c", hits[2].ParagraphID)
}

func testNearestEdgeCases(t *testing.T, store driven.DocumentStore) {
	ctx := context.Background()
	doc := NewDocument("edges")
	insert(t, store, doc, true, Paragraph("p1", 1, 0), Paragraph("p2", 0, 1))

	hits, err := store.Nearest(ctx, []float32{1, 0}, 0, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = store.Nearest(ctx, []float32{1, 0}, 10, doc.ID)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = store.Nearest(ctx, []float32{1, 0}, 5, "unknown")
	require.NoError(t, err)
	assert.Empty(t, hits)

	_, err = store.Nearest(ctx, []float32{1, 0, 0}, 5, doc.ID)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func testGetSources(t *testing.T, store driven.DocumentStore) {
	doc := NewDocument("sources")
	insert(t, store, doc, true, Paragraph("p1", 1), Paragraph("p2", 1))

	sources, err := store.GetSources(context.Background(), []string{"p2", "missing", "p1", "p2"})
	require.NoError(t, err)
	assert.Equal(t, []domain.Source{
		{ParagraphID: "p2", Text: "context p2"},
		{ParagraphID: "p1", Text: "context p1"},
		{ParagraphID: "p2", Text: "context p2"},
	}, sources)

	sources, err = store.GetSources(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func testDeleteDocument(t *testing.T, store driven.DocumentStore) {
	ctx := context.Background()
	doc := NewDocument("gone")
	keep := NewDocument("kept")
	insert(t, store, doc, true, Paragraph("p1", 1))
	insert(t, store, keep, true, Paragraph("k1", 1))

	require.NoError(t, store.DeleteDocument(ctx, doc.ID))
	require.NoError(t, store.DeleteDocument(ctx, doc.ID))
	require.NoError(t, store.DeleteDocument(ctx, "never-existed"))

	_, err := store.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	count, err := store.CountParagraphs(ctx, doc.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	sources, err := store.GetSources(ctx, []string{"p1", "k1"})
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "k1", sources[0].ParagraphID)
}

func testConcurrentInserts(t *testing.T, store driven.DocumentStore) {
	ctx := context.Background()
	doc := NewDocument("shared")
	insert(t, store, doc, true)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs <- store.InsertParagraphs(ctx, domain.ParagraphBatch{
				Document: doc,
				Paragraphs: []domain.Paragraph{
					Paragraph(fmt.Sprintf("w%d-a", n), 1, 0),
					Paragraph(fmt.Sprintf("w%d-b", n), 0, 1),
				},
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	count, err := store.CountParagraphs(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, writers*2, count)
}

func testDeleteLastDocumentResetsDimensions(t *testing.T, store driven.DocumentStore) {
	ctx := context.Background()
	first := NewDocument("first")
	second := NewDocument("second")
	insert(t, store, first, true, Paragraph("p1", 1, 0))
	insert(t, store, second, true, Paragraph("p2", 0, 1))

	require.NoError(t, store.DeleteDocument(ctx, first.ID))
	dims, err := store.Dimensions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dims)

	require.NoError(t, store.DeleteDocument(ctx, second.ID))
	dims, err = store.Dimensions(ctx)
	require.NoError(t, err)
	assert.Zero(t, dims)

	third := NewDocument("third")
	insert(t, store, third, true, Paragraph("p3", 1, 0, 0))
	dims, err = store.Dimensions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, dims)

	count, err := store.CountParagraphs(ctx, third.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
