package cli

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/localrag/internal/core/domain"
	"github.com/custodia-labs/localrag/internal/core/ports/driving"
)

// mockIngestService records ingestion requests.
type mockIngestService struct {
	requests []domain.ReadRequest
	err      error
}

func (m *mockIngestService) Read(_ context.Context, _ domain.ReadRequest) (*domain.ReadResult, error) {
	return nil, m.err
}

func (m *mockIngestService) EmbedBatches(_ context.Context, _ []string) ([][]float32, error) {
	return nil, m.err
}

func (m *mockIngestService) Store(_ context.Context, _ *domain.ReadResult, _ [][]float32) (*domain.IngestResult, error) {
	return nil, m.err
}

func (m *mockIngestService) Ingest(_ context.Context, req domain.ReadRequest) (*domain.IngestResult, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	strategy := req.Strategy
	if strategy == "" {
		strategy = domain.StrategySimple
	}
	return &domain.IngestResult{
		Document:   domain.Document{ID: "doc-new", Name: req.DocumentName, Strategy: strategy},
		Created:    !req.AddToDocument,
		Paragraphs: 7,
	}, nil
}

// mockQueryService returns canned results.
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
	return "", m.err
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

// mockDocumentService serves a fixed document list.
type mockDocumentService struct {
	documents []domain.Document
	deleted   []string
	err       error
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
	return &driving.DocumentDetails{Document: *doc, ParagraphCount: 12}, nil
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

// mockSettingsService returns fixed settings.
type mockSettingsService struct {
	settings *domain.AppSettings
	missing  []string
	loadErr  error
	pingErr  error
	pinged   bool
}

func (m *mockSettingsService) Load() (*domain.AppSettings, error) {
	return m.settings, m.loadErr
}

func (m *mockSettingsService) MissingKeys() []string {
	return m.missing
}

func (m *mockSettingsService) Ping(_ context.Context) error {
	m.pinged = true
	return m.pingErr
}

type testServices struct {
	ingest   *mockIngestService
	query    *mockQueryService
	document *mockDocumentService
	settings *mockSettingsService
}

// setupTestServices installs mock services and returns them with a cleanup.
func setupTestServices() (*testServices, func()) {
	oldBootstrap := bootstrap
	bootstrap = nil

	settings := domain.DefaultAppSettings()
	settings.Storage.Backend = domain.StorageSQLite
	settings.Embedding.Provider = domain.AIProviderOllama
	settings.Embedding.Model = "nomic-embed-text"
	settings.Embedding.BatchSize = 16
	settings.LLM.Provider = domain.AIProviderOpenAI
	settings.LLM.Model = "gpt-4o-mini"
	settings.LLM.APIKey = "sk-test-1234567890"

	ts := &testServices{
		ingest: &mockIngestService{},
		query: &mockQueryService{
			results: []domain.SearchResult{
				{Hit: domain.Hit{ParagraphID: "p-1", Score: 0.91}, Text: "Employees get 25 vacation days."},
				{Hit: domain.Hit{ParagraphID: "p-2", Score: 0.73}, Text: "Requests go to your manager."},
			},
			answer: &domain.Answer{
				Text:    "You get 25 days.",
				Sources: []domain.Source{{ParagraphID: "p-1", Text: "Employees get 25 vacation days."}},
			},
		},
		document: &mockDocumentService{
			documents: []domain.Document{
				{
					ID:        "doc-1",
					Name:      "handbook",
					Strategy:  domain.StrategySimple,
					CreatedAt: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
				},
				{ID: "doc-2", Name: "manual", Strategy: domain.StrategySmallToBig},
			},
		},
		settings: &mockSettingsService{settings: &settings},
	}

	SetServices(&Services{
		Ingest:   ts.ingest,
		Query:    ts.query,
		Document: ts.document,
		Settings: ts.settings,
	})

	return ts, func() {
		SetServices(nil)
		bootstrap = oldBootstrap
	}
}

// execute runs the root command with args and returns combined output.
// Flags are reset afterwards so tests do not leak state.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
