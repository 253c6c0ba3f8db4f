package normalisers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/localrag/internal/core/domain"
	"github.com/custodia-labs/localrag/internal/core/ports/driven"
	"github.com/custodia-labs/localrag/internal/normalisers/docx"
	"github.com/custodia-labs/localrag/internal/normalisers/pdf"
	"github.com/custodia-labs/localrag/internal/normalisers/plaintext"
)

// Registry dispatches raw documents to the normaliser for their format.
type Registry struct {
	mu          sync.RWMutex
	normalisers map[domain.Format]driven.Normaliser
}

// Verify interface compliance.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{normalisers: make(map[domain.Format]driven.Normaliser)}
}

// NewDefaultRegistry returns a registry with the PDF, TXT and DOCX normalisers.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(pdf.New())
	r.Register(plaintext.New())
	r.Register(docx.New())
	return r
}

// Register adds a normaliser, replacing any for the same format.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers[n.Format()] = n
}

// SupportedFormats returns all registered formats, sorted.
func (r *Registry) SupportedFormats() []domain.Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]domain.Format, 0, len(r.normalisers))
	for f := range r.normalisers {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// Normalise extracts text with the normaliser registered for raw.Format.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	r.mu.RLock()
	n, ok := r.normalisers[raw.Format]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no reader for %q", domain.ErrUnsupportedFormat, raw.Format)
	}
	return n.Normalise(ctx, raw)
}
