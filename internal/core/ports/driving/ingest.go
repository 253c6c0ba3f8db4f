package driving

import (
	"context"

	"github.com/custodia-labs/localrag/internal/core/domain"
)

// IngestService turns files into stored, embedded paragraphs.
type IngestService interface {
	// Read extracts and chunks a file and resolves its target document.
	// Nothing is persisted.
	Read(ctx context.Context, req domain.ReadRequest) (*domain.ReadResult, error)

	// EmbedBatches embeds texts in configured batches, preserving order.
	EmbedBatches(ctx context.Context, texts []string) ([][]float32, error)

	// Store persists embedded units under the read result's document.
	Store(ctx context.Context, read *domain.ReadResult, vectors [][]float32) (*domain.IngestResult, error)

	// Ingest runs Read, EmbedBatches and Store for one file while holding
	// the lock for the target document.
	Ingest(ctx context.Context, req domain.ReadRequest) (*domain.IngestResult, error)
}
