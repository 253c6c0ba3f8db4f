package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/localrag/internal/core/domain"
	"github.com/custodia-labs/localrag/internal/core/ports/driven"
	"github.com/custodia-labs/localrag/internal/core/ports/driving"
	"github.com/custodia-labs/localrag/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService provides document management operations.
type DocumentService struct {
	store driven.DocumentStore
}

// NewDocumentService creates a new document service.
func NewDocumentService(store driven.DocumentStore) *DocumentService {
	return &DocumentService{store: store}
}

// List returns every document, ordered by name.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	return s.store.ListDocuments(ctx)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.store.GetDocument(ctx, documentID)
}

// Resolve finds a document by ID, then by name.
func (s *DocumentService) Resolve(ctx context.Context, idOrName string) (*domain.Document, error) {
	idOrName = strings.TrimSpace(idOrName)
	if idOrName == "" {
		return nil, fmt.Errorf("%w: document id or name is required", domain.ErrInvalidInput)
	}

	doc, err := s.store.GetDocument(ctx, idOrName)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return s.store.GetDocumentByName(ctx, idOrName)
}

// GetDetails returns a document with its paragraph count.
func (s *DocumentService) GetDetails(ctx context.Context, documentID string) (*driving.DocumentDetails, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	count, err := s.store.CountParagraphs(ctx, documentID)
	if err != nil {
		return nil, err
	}

	return &driving.DocumentDetails{Document: *doc, ParagraphCount: count}, nil
}

// Delete removes a document and its paragraphs. Deleting an unknown
// document is not an error.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if err := s.store.DeleteDocument(ctx, documentID); err != nil {
		return err
	}
	logger.Info("Deleted document %s", documentID)
	return nil
}
