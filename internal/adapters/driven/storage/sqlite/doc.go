// Package sqlite provides a SQLite implementation of driven.DocumentStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Embeddings are stored as little-endian
// float32 blobs and ranked in process.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// The embedding dimensionality is recorded in store_meta by the first insert.
//
// # Data Location
//
// By default, the database is stored at ~/.localrag/data/localrag.db
//
// # Thread Safety
//
// All operations are thread-safe. Writes are serialised through a single
// connection so an insert batch never observes another batch half-written.
package sqlite
