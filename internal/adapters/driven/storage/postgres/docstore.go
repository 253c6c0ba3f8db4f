package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/localrag/internal/adapters/driven/storage"
	"github.com/custodia-labs/localrag/internal/core/domain"
)

// ListDocuments returns every document ordered by name.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name, strategy, created_at FROM documents ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("%w: querying documents: %w", domain.ErrStore, err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating documents: %w", domain.ErrStore, err)
	}
	return docs, nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return scanDocument(s.pool.QueryRow(ctx,
		"SELECT id, name, strategy, created_at FROM documents WHERE id = $1", id))
}

// GetDocumentByName retrieves a document by its unique name.
func (s *Store) GetDocumentByName(ctx context.Context, name string) (*domain.Document, error) {
	return scanDocument(s.pool.QueryRow(ctx,
		"SELECT id, name, strategy, created_at FROM documents WHERE name = $1", name))
}

// InsertParagraphs stores the batch in one transaction. The first insert
// fixes the embedding length and creates the paragraphs table.
func (s *Store) InsertParagraphs(ctx context.Context, batch domain.ParagraphBatch) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrStore, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", writeLockKey); err != nil {
		return fmt.Errorf("%w: acquiring write lock: %w", domain.ErrStore, err)
	}

	doc := batch.Document
	if err := ensureDocument(ctx, tx, doc, batch.IsNew); err != nil {
		return err
	}

	current, err := dimensions(ctx, tx)
	if err != nil {
		return err
	}
	dims, err := storage.CheckDimensions(batch.Paragraphs, current)
	if err != nil {
		return fmt.Errorf("%w: store has %d dimensions: %w", domain.ErrStore, dims, err)
	}

	if len(batch.Paragraphs) == 0 {
		return commit(ctx, tx)
	}
	if current == 0 {
		if err := createParagraphsTable(ctx, tx, dims); err != nil {
			return err
		}
	}

	var offset int
	err = tx.QueryRow(ctx,
		"SELECT COALESCE(MAX(position) + 1, 0) FROM paragraphs WHERE document_id = $1", doc.ID,
	).Scan(&offset)
	if err != nil {
		return fmt.Errorf("%w: reading positions: %w", domain.ErrStore, err)
	}

	queue := &pgx.Batch{}
	for i, p := range batch.Paragraphs {
		queue.Queue(`
			INSERT INTO paragraphs (id, document_id, position, text, context, span_start, span_end, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			p.ID, doc.ID, offset+i, p.Text, p.Context, p.Span.Start, p.Span.End,
			pgvector.NewVector(p.Embedding),
		)
	}

	results := tx.SendBatch(ctx, queue)
	for _, p := range batch.Paragraphs {
		if _, err := results.Exec(); err != nil {
			results.Close()
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: paragraph %q: %w", domain.ErrStore, p.ID, domain.ErrAlreadyExists)
			}
			return fmt.Errorf("%w: saving paragraph %q: %w", domain.ErrStore, p.ID, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("%w: saving paragraphs: %w", domain.ErrStore, err)
	}

	return commit(ctx, tx)
}

func commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: committing transaction: %w", domain.ErrStore, err)
	}
	return nil
}

func ensureDocument(ctx context.Context, tx pgx.Tx, doc domain.Document, isNew bool) error {
	if !isNew {
		var one int
		err := tx.QueryRow(ctx, "SELECT 1 FROM documents WHERE id = $1", doc.ID).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: document %q: %w", domain.ErrStore, doc.ID, domain.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("%w: checking document: %w", domain.ErrStore, err)
		}
		return nil
	}

	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := tx.Exec(ctx,
		"INSERT INTO documents (id, name, strategy, created_at) VALUES ($1, $2, $3, $4)",
		doc.ID, doc.Name, string(doc.Strategy), createdAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: document named %q: %w", domain.ErrStore, doc.Name, domain.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("%w: saving document: %w", domain.ErrStore, err)
	}
	return nil
}

func createParagraphsTable(ctx context.Context, tx pgx.Tx, dims int) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS paragraphs (
			id          TEXT PRIMARY KEY,
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			position    INTEGER NOT NULL,
			text        TEXT NOT NULL,
			context     TEXT NOT NULL,
			span_start  INTEGER NOT NULL DEFAULT 0,
			span_end    INTEGER NOT NULL DEFAULT 0,
			embedding   vector(%d) NOT NULL
		);
		CREATE INDEX IF NOT EXISTS paragraphs_document_idx ON paragraphs (document_id, position);`, dims)
	if _, err := tx.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("%w: creating paragraphs table: %w", domain.ErrStore, err)
	}
	_, err := tx.Exec(ctx,
		"INSERT INTO store_meta (key, value) VALUES ($1, $2)", metaDimensions, strconv.Itoa(dims))
	if err != nil {
		return fmt.Errorf("%w: recording dimensions: %w", domain.ErrStore, err)
	}
	return nil
}

// Nearest ranks the document's paragraphs with the cosine distance
// operator. Equal distances fall back to ascending id.
func (s *Store) Nearest(ctx context.Context, query []float32, k int, documentID string) ([]domain.Hit, error) {
	dims, err := dimensions(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	if dims != 0 && len(query) != dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, store has %d: %w",
			domain.ErrStore, len(query), dims, domain.ErrDimensionMismatch)
	}
	if dims == 0 || k <= 0 {
		return []domain.Hit{}, nil
	}

	sql := `
		SELECT id, 1 - (embedding <=> $1) AS similarity
		FROM paragraphs
		WHERE document_id = $2
		ORDER BY embedding <=> $1, id
		LIMIT $3`
	// pgvector yields NaN for a zero vector; every score is 0 then.
	if isZero(query) {
		sql = `
			SELECT id, 0::float8 AS similarity
			FROM paragraphs
			WHERE document_id = $2 AND $1::vector IS NOT NULL
			ORDER BY id
			LIMIT $3`
	}

	rows, err := s.pool.Query(ctx, sql, pgvector.NewVector(query), documentID, k)
	if err != nil {
		return nil, fmt.Errorf("%w: nearest query: %w", domain.ErrStore, err)
	}
	defer rows.Close()

	hits := make([]domain.Hit, 0, k)
	for rows.Next() {
		var hit domain.Hit
		if err := rows.Scan(&hit.ParagraphID, &hit.Score); err != nil {
			return nil, fmt.Errorf("%w: scanning hit: %w", domain.ErrStore, err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating hits: %w", domain.ErrStore, err)
	}
	return hits, nil
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// GetSources returns the context of each existing paragraph in id order.
func (s *Store) GetSources(ctx context.Context, ids []string) ([]domain.Source, error) {
	sources := make([]domain.Source, 0, len(ids))
	if len(ids) == 0 {
		return sources, nil
	}
	dims, err := dimensions(ctx, s.pool)
	if err != nil || dims == 0 {
		return sources, err
	}

	rows, err := s.pool.Query(ctx, "SELECT id, context FROM paragraphs WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, fmt.Errorf("%w: querying sources: %w", domain.ErrStore, err)
	}
	defer rows.Close()

	contexts := make(map[string]string, len(ids))
	for rows.Next() {
		var id, text string
		if err := rows.Scan(&id, &text); err != nil {
			return nil, fmt.Errorf("%w: scanning source: %w", domain.ErrStore, err)
		}
		contexts[id] = text
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sources: %w", domain.ErrStore, err)
	}

	for _, id := range ids {
		if text, ok := contexts[id]; ok {
			sources = append(sources, domain.Source{ParagraphID: id, Text: text})
		}
	}
	return sources, nil
}

// DeleteDocument removes a document; paragraphs cascade.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrStore, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", writeLockKey); err != nil {
		return fmt.Errorf("%w: acquiring write lock: %w", domain.ErrStore, err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM documents WHERE id = $1", id); err != nil {
		return fmt.Errorf("%w: deleting document: %w", domain.ErrStore, err)
	}

	dims, err := dimensions(ctx, tx)
	if err != nil {
		return err
	}
	if dims > 0 {
		var remaining bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM paragraphs)").Scan(&remaining); err != nil {
			return fmt.Errorf("%w: checking paragraphs: %w", domain.ErrStore, err)
		}
		// The vector column is sized on first insert, so an empty store
		// drops it to accept a new embedding length.
		if !remaining {
			if _, err := tx.Exec(ctx, "DROP TABLE paragraphs"); err != nil {
				return fmt.Errorf("%w: dropping paragraphs table: %w", domain.ErrStore, err)
			}
			if _, err := tx.Exec(ctx, "DELETE FROM store_meta WHERE key = $1", metaDimensions); err != nil {
				return fmt.Errorf("%w: clearing dimensions: %w", domain.ErrStore, err)
			}
		}
	}

	return commit(ctx, tx)
}

// CountParagraphs returns the number of paragraphs stored for a document.
func (s *Store) CountParagraphs(ctx context.Context, documentID string) (int, error) {
	dims, err := dimensions(ctx, s.pool)
	if err != nil || dims == 0 {
		return 0, err
	}
	var count int
	err = s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM paragraphs WHERE document_id = $1", documentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting paragraphs: %w", domain.ErrStore, err)
	}
	return count, nil
}

// Dimensions returns the recorded embedding length, or 0.
func (s *Store) Dimensions(ctx context.Context) (int, error) {
	return dimensions(ctx, s.pool)
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var (
		doc      domain.Document
		strategy string
	)
	if err := row.Scan(&doc.ID, &doc.Name, &strategy, &doc.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: document: %w", domain.ErrStore, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: scanning document: %w", domain.ErrStore, err)
	}
	doc.Strategy = domain.ChunkingStrategy(strategy)
	return &doc, nil
}
