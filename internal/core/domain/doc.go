// Package domain defines the core business entities for localrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A named, retrievable collection of paragraphs
//   - Paragraph: A stored chunk with its embedding and source context
//   - Unit: A chunk produced by the chunking engine before embedding
//   - RawDocument: Opaque bytes of an uploaded file
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
