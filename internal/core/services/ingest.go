package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/localrag/internal/core/domain"
	"github.com/custodia-labs/localrag/internal/core/ports/driven"
	"github.com/custodia-labs/localrag/internal/core/ports/driving"
	"github.com/custodia-labs/localrag/internal/logger"
	"github.com/custodia-labs/localrag/internal/metrics"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService reads files, chunks them, embeds the chunks and stores
// them as paragraphs of a document.
type IngestService struct {
	normalisers driven.NormaliserRegistry
	chunkers    driven.ChunkerRegistry
	batcher     *Batcher
	store       driven.DocumentStore
	chunking    domain.ChunkingSettings
	locks       *keyedMutex
	now         func() time.Time
}

// NewIngestService creates a new ingestion service.
func NewIngestService(
	normalisers driven.NormaliserRegistry,
	chunkers driven.ChunkerRegistry,
	batcher *Batcher,
	store driven.DocumentStore,
	chunking domain.ChunkingSettings,
) *IngestService {
	return &IngestService{
		normalisers: normalisers,
		chunkers:    chunkers,
		batcher:     batcher,
		store:       store,
		chunking:    chunking,
		locks:       newKeyedMutex(),
		now:         time.Now,
	}
}

// Ingest reads, embeds and stores one file. Additions to the same
// document are serialised whether it is named by id or by name.
func (s *IngestService) Ingest(ctx context.Context, req domain.ReadRequest) (*domain.IngestResult, error) {
	unlock := s.locks.Lock(s.lockKey(ctx, req))
	defer unlock()

	logger.Section("Ingest " + req.Path)
	read, err := s.Read(ctx, req)
	if err != nil {
		return nil, err
	}

	vectors, err := s.EmbedBatches(ctx, read.Texts())
	if err != nil {
		return nil, err
	}

	return s.Store(ctx, read, vectors)
}

// Read extracts the file's text, chunks it with the document's strategy
// and pairs every unit with a fresh paragraph id.
func (s *IngestService) Read(ctx context.Context, req domain.ReadRequest) (*domain.ReadResult, error) {
	name := strings.TrimSpace(req.DocumentName)
	if name == "" {
		return nil, fmt.Errorf("%w: document name is required", domain.ErrInvalidInput)
	}

	format := req.Format
	if format == "" {
		f, err := domain.FormatFromPath(req.Path)
		if err != nil {
			return nil, err
		}
		format = f
	}

	doc, isNew, err := s.resolveDocument(ctx, name, req)
	if err != nil {
		return nil, err
	}
	logger.Debug("Document %q (%s), new=%t, strategy=%s", doc.Name, doc.ID, isNew, doc.Strategy)

	content, err := os.ReadFile(req.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDocumentRead, err)
	}

	normalised, err := s.normalisers.Normalise(ctx, &domain.RawDocument{
		URI:     req.Path,
		Format:  format,
		Content: content,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("Extracted %d bytes of text from %s", len(normalised.Text), format)

	chunker, err := s.chunkers.Chunker(doc.Strategy, s.chunking.Config(doc.Strategy))
	if err != nil {
		return nil, err
	}
	units, err := chunker.Chunk(ctx, normalised.Text)
	if err != nil {
		return nil, err
	}
	logger.Debug("Chunked into %d units", len(units))

	keyed := make([]domain.KeyedUnit, len(units))
	for i, u := range units {
		keyed[i] = domain.KeyedUnit{Key: uuid.NewString(), Unit: u}
	}

	return &domain.ReadResult{Document: *doc, IsNew: isNew, Units: keyed}, nil
}

// resolveDocument finds the target document for an addition, or prepares
// a new one. A new document is only persisted together with its paragraphs.
func (s *IngestService) resolveDocument(
	ctx context.Context, name string, req domain.ReadRequest,
) (*domain.Document, bool, error) {
	if req.AddToDocument {
		doc, err := s.lookup(ctx, name)
		if err != nil {
			return nil, false, err
		}
		if req.Strategy != "" && req.Strategy != doc.Strategy {
			logger.Warn("Document %q uses %s chunking; ignoring requested %s", doc.Name, doc.Strategy, req.Strategy)
		}
		return doc, false, nil
	}

	existing, err := s.store.GetDocumentByName(ctx, name)
	switch {
	case err == nil:
		return nil, false, fmt.Errorf("%w: document %q (%s)", domain.ErrAlreadyExists, name, existing.ID)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, false, err
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = domain.StrategySimple
	}
	if !strategy.IsValid() {
		return nil, false, fmt.Errorf("%w: unknown chunking strategy %q", domain.ErrInvalidInput, strategy)
	}

	return &domain.Document{
		ID:        uuid.NewString(),
		Name:      name,
		Strategy:  strategy,
		CreatedAt: s.now().UTC(),
	}, true, nil
}

// lockKey returns the resolved document id for additions and the
// requested name for new documents. An unresolved addition falls back to
// the name and fails later in Read.
func (s *IngestService) lockKey(ctx context.Context, req domain.ReadRequest) string {
	name := strings.TrimSpace(req.DocumentName)
	if req.AddToDocument && name != "" {
		if doc, err := s.lookup(ctx, name); err == nil {
			return "id:" + doc.ID
		}
	}
	return "name:" + name
}

// lookup resolves a document by name, then by id.
func (s *IngestService) lookup(ctx context.Context, nameOrID string) (*domain.Document, error) {
	doc, err := s.store.GetDocumentByName(ctx, nameOrID)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return s.store.GetDocument(ctx, nameOrID)
}

// EmbedBatches embeds texts through the batcher.
func (s *IngestService) EmbedBatches(ctx context.Context, texts []string) ([][]float32, error) {
	return s.batcher.Embed(ctx, texts)
}

// Store writes the document (when new) and its paragraphs in one batch.
func (s *IngestService) Store(
	ctx context.Context, read *domain.ReadResult, vectors [][]float32,
) (*domain.IngestResult, error) {
	if len(vectors) != len(read.Units) {
		return nil, fmt.Errorf("%w: %d units but %d embeddings",
			domain.ErrEmbeddingService, len(read.Units), len(vectors))
	}

	paragraphs := make([]domain.Paragraph, len(read.Units))
	for i, u := range read.Units {
		paragraphs[i] = domain.Paragraph{
			ID:         u.Key,
			DocumentID: read.Document.ID,
			Position:   u.Position,
			Text:       u.Text,
			Context:    u.Context,
			Span:       u.Span,
			Embedding:  vectors[i],
		}
	}

	err := s.store.InsertParagraphs(ctx, domain.ParagraphBatch{
		Document:   read.Document,
		IsNew:      read.IsNew,
		Paragraphs: paragraphs,
	})
	if err != nil {
		return nil, err
	}

	metrics.AddParagraphs(read.Document.Strategy.String(), len(paragraphs))
	logger.Info("Stored %d paragraphs in %q", len(paragraphs), read.Document.Name)

	return &domain.IngestResult{
		Document:   read.Document,
		Created:    read.IsNew,
		Paragraphs: len(paragraphs),
	}, nil
}
