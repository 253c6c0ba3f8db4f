package driven

import (
	"context"

	"github.com/custodia-labs/localrag/internal/core/domain"
)

// NormaliserRegistry selects the normaliser for a document's format.
type NormaliserRegistry interface {
	// Normalise extracts text using the normaliser registered for raw.Format.
	// Returns domain.ErrUnsupportedFormat if none is registered.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)

	// Register adds a normaliser, replacing any for the same format.
	Register(normaliser Normaliser)

	// SupportedFormats returns all formats that can be normalised.
	SupportedFormats() []domain.Format
}
