package driven

import (
	"context"

	"github.com/custodia-labs/localrag/internal/core/domain"
)

// Normaliser extracts plain text from one file format.
type Normaliser interface {
	// Format returns the file format this normaliser handles.
	Format() domain.Format

	// Normalise extracts the text of a raw document.
	// Parse failures are reported with domain.ErrDocumentRead.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Chunking is handled by a Chunker afterwards.
type NormaliseResult struct {
	// Text is the extracted text.
	Text string
}
