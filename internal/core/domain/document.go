package domain

import "time"

// Document is a named collection of paragraphs that retrieval can be
// scoped to. Its chunking strategy is fixed at creation and reused for
// every later addition.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Name is the human-readable name. Unique across the store.
	Name string

	// Strategy is the chunking strategy all of the document's paragraphs use.
	Strategy ChunkingStrategy

	// CreatedAt is when the document was first stored.
	CreatedAt time.Time
}

// Paragraph is a stored chunk: the text that was embedded, its vector,
// and the context returned to the answer step.
type Paragraph struct {
	// ID is the unique identifier for the paragraph.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Position is the ordinal of the paragraph within its document.
	// Stores append each batch after the paragraphs already present.
	Position int

	// Text is the embedded text.
	Text string

	// Context is the text returned as a source. Equal to Text for the
	// simple strategy; the enclosing large segment for smalltobig.
	Context string

	// Span locates Context in the extracted text it came from.
	Span Span

	// Embedding is the vector representation of Text.
	Embedding []float32
}

// Span is a half-open byte range [Start, End).
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Unit is one chunk produced by the chunking engine.
type Unit struct {
	// Text is the retrievable text that will be embedded.
	Text string

	// Context is the text returned when this unit is retrieved.
	Context string

	// Position is the ordinal of this unit in the chunker output.
	Position int

	// ParentPosition is the ordinal of the enclosing large segment.
	// Equal to Position for strategies without a hierarchy.
	ParentPosition int

	// Span locates Context in the chunker input.
	Span Span
}

// KeyedUnit pairs a chunk with the paragraph id it will be stored under.
type KeyedUnit struct {
	// Key is the paragraph id.
	Key string

	Unit
}

// ParagraphBatch is an all-or-nothing insert. When IsNew is set the
// document row is created in the same transaction.
type ParagraphBatch struct {
	// Document owns every paragraph in the batch.
	Document Document

	// IsNew marks a document that does not exist yet.
	IsNew bool

	// Paragraphs in insertion order.
	Paragraphs []Paragraph
}
