package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/localrag/internal/adapters/driven/storage"
	"github.com/custodia-labs/localrag/internal/core/domain"
	"github.com/custodia-labs/localrag/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Nearest is a brute-force scan over the document's paragraphs.
type DocumentStore struct {
	mu         sync.RWMutex
	documents  map[string]domain.Document
	paragraphs map[string]domain.Paragraph
	byDocument map[string][]string
	dims       int
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents:  make(map[string]domain.Document),
		paragraphs: make(map[string]domain.Paragraph),
		byDocument: make(map[string][]string),
	}
}

// ListDocuments returns every document ordered by name.
func (s *DocumentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStore, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		result = append(result, doc)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("%w: document %q: %w", domain.ErrStore, id, domain.ErrNotFound)
	}
	return &doc, nil
}

// GetDocumentByName retrieves a document by name.
func (s *DocumentStore) GetDocumentByName(_ context.Context, name string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.documents {
		if doc.Name == name {
			return &doc, nil
		}
	}
	return nil, fmt.Errorf("%w: document named %q: %w", domain.ErrStore, name, domain.ErrNotFound)
}

// InsertParagraphs stores the batch atomically. Validation happens
// before any state changes.
func (s *DocumentStore) InsertParagraphs(ctx context.Context, batch domain.ParagraphBatch) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStore, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := batch.Document
	if batch.IsNew {
		if _, exists := s.documents[doc.ID]; exists {
			return fmt.Errorf("%w: document %q: %w", domain.ErrStore, doc.ID, domain.ErrAlreadyExists)
		}
		for _, existing := range s.documents {
			if existing.Name == doc.Name {
				return fmt.Errorf("%w: document named %q: %w", domain.ErrStore, doc.Name, domain.ErrAlreadyExists)
			}
		}
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = time.Now()
		}
	} else if _, exists := s.documents[doc.ID]; !exists {
		return fmt.Errorf("%w: document %q: %w", domain.ErrStore, doc.ID, domain.ErrNotFound)
	}

	dims, err := storage.CheckDimensions(batch.Paragraphs, s.dims)
	if err != nil {
		return fmt.Errorf("%w: store has %d dimensions: %w", domain.ErrStore, dims, err)
	}

	seen := make(map[string]bool, len(batch.Paragraphs))
	for _, p := range batch.Paragraphs {
		if _, exists := s.paragraphs[p.ID]; exists || seen[p.ID] {
			return fmt.Errorf("%w: paragraph %q: %w", domain.ErrStore, p.ID, domain.ErrAlreadyExists)
		}
		seen[p.ID] = true
	}

	if batch.IsNew {
		s.documents[doc.ID] = doc
	}
	offset := len(s.byDocument[doc.ID])
	for i, p := range batch.Paragraphs {
		p.DocumentID = doc.ID
		p.Position = offset + i
		p.Embedding = append([]float32(nil), p.Embedding...)
		s.paragraphs[p.ID] = p
		s.byDocument[doc.ID] = append(s.byDocument[doc.ID], p.ID)
	}
	if len(batch.Paragraphs) > 0 {
		s.dims = dims
	}
	return nil
}

// Nearest ranks the document's paragraphs by cosine similarity.
func (s *DocumentStore) Nearest(ctx context.Context, query []float32, k int, documentID string) ([]domain.Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStore, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dims != 0 && len(query) != s.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, store has %d: %w",
			domain.ErrStore, len(query), s.dims, domain.ErrDimensionMismatch)
	}

	ids := s.byDocument[documentID]
	hits := make([]domain.Hit, 0, len(ids))
	for _, id := range ids {
		p := s.paragraphs[id]
		hits = append(hits, domain.Hit{
			ParagraphID: id,
			Score:       storage.Cosine(query, p.Embedding),
		})
	}
	return storage.Rank(hits, k), nil
}

// GetSources returns the context of each existing paragraph in id order.
func (s *DocumentStore) GetSources(_ context.Context, ids []string) ([]domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sources := make([]domain.Source, 0, len(ids))
	for _, id := range ids {
		p, ok := s.paragraphs[id]
		if !ok {
			continue
		}
		sources = append(sources, domain.Source{ParagraphID: id, Text: p.Context})
	}
	return sources, nil
}

// DeleteDocument removes a document and its paragraphs.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pid := range s.byDocument[id] {
		delete(s.paragraphs, pid)
	}
	delete(s.byDocument, id)
	delete(s.documents, id)
	if len(s.paragraphs) == 0 {
		s.dims = 0
	}
	return nil
}

// CountParagraphs returns the number of paragraphs stored for a document.
func (s *DocumentStore) CountParagraphs(_ context.Context, documentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byDocument[documentID]), nil
}

// Dimensions returns the fixed embedding length, or 0 before the first insert.
func (s *DocumentStore) Dimensions(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dims, nil
}

// Close is a no-op.
func (s *DocumentStore) Close() error {
	return nil
}
