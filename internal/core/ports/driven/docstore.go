package driven

import (
	"context"

	"github.com/custodia-labs/localrag/internal/core/domain"
)

// DocumentStore persists documents and their embedded paragraphs and
// answers nearest-neighbour queries scoped to one document.
//
// Implementations must be safe for concurrent use. Every failure is
// reported with domain.ErrStore.
type DocumentStore interface {
	// ListDocuments returns every document, ordered by name.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentByName retrieves a document by its unique name.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocumentByName(ctx context.Context, name string) (*domain.Document, error)

	// InsertParagraphs stores a batch atomically. Either every paragraph
	// (and the document, when new) is visible afterwards or none is.
	// A vector length different from Dimensions returns
	// domain.ErrDimensionMismatch.
	InsertParagraphs(ctx context.Context, batch domain.ParagraphBatch) error

	// Nearest returns up to k paragraphs of the document ranked by cosine
	// similarity to query, descending, ties broken by ascending paragraph id.
	// An unknown document yields an empty result.
	Nearest(ctx context.Context, query []float32, k int, documentID string) ([]domain.Hit, error)

	// GetSources returns the context of each paragraph in the order of ids.
	// Ids that do not exist are skipped.
	GetSources(ctx context.Context, ids []string) ([]domain.Source, error)

	// DeleteDocument removes a document and all of its paragraphs.
	// Deleting an unknown id is not an error. Removing the last paragraph
	// clears the store's embedding length.
	DeleteDocument(ctx context.Context, id string) error

	// CountParagraphs returns the number of paragraphs stored for a document.
	CountParagraphs(ctx context.Context, documentID string) (int, error)

	// Dimensions returns the embedding length fixed for the store, or 0
	// while the store holds no paragraph.
	Dimensions(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
