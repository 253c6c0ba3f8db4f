// Package postgres provides a PostgreSQL + pgvector implementation of
// driven.DocumentStore.
//
// The documents and store_meta tables are created on connect. The
// paragraphs table carries a vector(n) column, so it is created by the
// first insert once the embedding length is known. Ranking uses the
// pgvector cosine distance operator with an exact scan over one
// document's paragraphs.
//
// Writers take a transaction-scoped advisory lock; readers never block.
package postgres
