// Package chunking provides the chunking engine: a registry mapping each
// domain.ChunkingStrategy to a builder that configures its chunker.
//
// Built-in strategies:
//
//   - simple: paragraph segments, long paragraphs cut at whitespace
//   - smalltobig: sentence windows embedded for retrieval, with the
//     enclosing paragraph segment returned as context
package chunking
