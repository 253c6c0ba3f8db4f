package domain

import "errors"

// Failure kinds surfaced to callers. Adapters wrap the underlying cause
// together with one of these so callers can branch with errors.Is.
var (
	// ErrConfiguration indicates missing or invalid configuration.
	// Raised at startup and never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrDocumentRead indicates a file could not be opened or parsed.
	ErrDocumentRead = errors.New("document read error")

	// ErrUnsupportedFormat indicates a file format with no reader.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrEmbeddingService indicates the embedding service failed or
	// returned a malformed response.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrLLMService indicates the LLM failed to produce an answer.
	ErrLLMService = errors.New("LLM service error")

	// ErrStore indicates the document store could not complete an operation.
	ErrStore = errors.New("store error")

	// ErrRerankService indicates the reranker could not order candidates.
	ErrRerankService = errors.New("rerank service error")
)

// Detail errors. These are usually joined with one of the kinds above.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDimensionMismatch indicates an embedding whose length differs from
	// the dimensionality fixed for the store or the batch.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Kinds lists the failure kinds in reporting order.
func Kinds() []error {
	return []error{
		ErrConfiguration,
		ErrDocumentRead,
		ErrUnsupportedFormat,
		ErrEmbeddingService,
		ErrLLMService,
		ErrStore,
		ErrRerankService,
	}
}

// KindOf returns the failure kind carried by err, or nil if err carries none.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range Kinds() {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
