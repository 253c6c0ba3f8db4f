package driving

import (
	"context"

	"github.com/custodia-labs/localrag/internal/core/domain"
)

// DocumentService manages stored documents.
type DocumentService interface {
	// List returns every document, ordered by name.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Resolve finds a document by ID or, failing that, by name.
	Resolve(ctx context.Context, idOrName string) (*domain.Document, error)

	// GetDetails returns a document with its paragraph count.
	GetDetails(ctx context.Context, documentID string) (*DocumentDetails, error)

	// Delete removes a document and its paragraphs. Idempotent.
	Delete(ctx context.Context, documentID string) error
}

// DocumentDetails provides a display view of a document.
type DocumentDetails struct {
	domain.Document

	// ParagraphCount is the number of stored paragraphs.
	ParagraphCount int
}
