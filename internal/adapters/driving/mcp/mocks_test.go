package mcp

import (
	"context"
	"fmt"

	"github.com/custodia-labs/localrag/internal/core/domain"
	"github.com/custodia-labs/localrag/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	results []domain.SearchResult
	answer  *domain.Answer
	err     error
	lastReq domain.AskRequest
}

func (m *mockQueryService) Retrieve(_ context.Context, _ string, _ int, _ string) (*domain.RetrievalResult, error) {
	return &domain.RetrievalResult{}, m.err
}

func (m *mockQueryService) Sources(_ context.Context, _ []string) ([]domain.Source, error) {
	return nil, m.err
}

func (m *mockQueryService) Rerank(_ context.Context, _ string, c []domain.Source) ([]domain.Source, error) {
	return c, m.err
}

func (m *mockQueryService) Answer(_ context.Context, _, _ string) (string, error) {
	if m.answer == nil {
		return "", m.err
	}
	return m.answer.Text, m.err
}

func (m *mockQueryService) Search(_ context.Context, req domain.AskRequest) ([]domain.SearchResult, error) {
	m.lastReq = req
	return m.results, m.err
}

func (m *mockQueryService) Ask(_ context.Context, req domain.AskRequest) (*domain.Answer, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents  []domain.Document
	paragraphs int
	err        error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.documents {
		if m.documents[i].ID == id {
			return &m.documents[i], nil
		}
	}
	return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
}

func (m *mockDocumentService) Resolve(ctx context.Context, idOrName string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.documents {
		if m.documents[i].Name == idOrName {
			return &m.documents[i], nil
		}
	}
	return m.Get(ctx, idOrName)
}

func (m *mockDocumentService) GetDetails(ctx context.Context, id string) (*driving.DocumentDetails, error) {
	doc, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &driving.DocumentDetails{Document: *doc, ParagraphCount: m.paragraphs}, nil
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}
