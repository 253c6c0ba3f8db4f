package domain

// RawDocument is an uploaded file before text extraction.
type RawDocument struct {
	// URI is the original location (usually a file path).
	URI string

	// Format is the resolved file format.
	Format Format

	// Content is the raw bytes.
	Content []byte
}

// ReadRequest asks the ingestion pipeline to read one file.
type ReadRequest struct {
	// Path is the file to read.
	Path string

	// Format is the file format, resolved by the caller.
	Format Format

	// DocumentName names the target document.
	DocumentName string

	// Strategy is the chunking strategy for a new document.
	// Ignored when AddToDocument is set.
	Strategy ChunkingStrategy

	// AddToDocument appends to an existing document instead of creating one.
	AddToDocument bool
}

// ReadResult is the output of a reader: the chunks paired with their
// keys and the document they belong to.
type ReadResult struct {
	// Document is the target document.
	Document Document

	// IsNew marks a document that has not been stored yet.
	IsNew bool

	// Units are the chunks in order, each with its paragraph key.
	Units []KeyedUnit
}

// Texts returns the unit texts in order.
func (r ReadResult) Texts() []string {
	texts := make([]string, len(r.Units))
	for i, u := range r.Units {
		texts[i] = u.Text
	}
	return texts
}

// IngestResult summarises a completed ingestion.
type IngestResult struct {
	// Document is the document the paragraphs were stored under.
	Document Document

	// Created is true if the document was created by this ingestion.
	Created bool

	// Paragraphs is the number of paragraphs stored.
	Paragraphs int
}
