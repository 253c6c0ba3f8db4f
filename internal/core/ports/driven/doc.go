// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - Normaliser: Extracts plain text from one file format
//   - NormaliserRegistry: Dispatches by domain.Format
//   - Chunker: Splits text into units for one chunking strategy
//   - ChunkerRegistry: Builds the chunker for a strategy
//   - EmbeddingService: Generates vector embeddings
//   - DocumentStore: Documents, paragraphs and nearest-neighbour search
//   - Reranker: Reorders retrieved sources for a query
//   - LLMService: Produces answers from a prompt
//   - ConfigStore: Application configuration
//   - PromptStore: Prompt templates
//   - AIConfigValidator: Connectivity checks for the AI providers
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
