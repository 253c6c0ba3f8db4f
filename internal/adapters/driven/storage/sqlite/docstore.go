package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/localrag/internal/adapters/driven/storage"
	"github.com/custodia-labs/localrag/internal/core/domain"
)

// sourcesChunkSize bounds the number of ids bound into one IN clause.
const sourcesChunkSize = 500

// ListDocuments returns every document ordered by name.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, strategy, created_at
		FROM documents ORDER BY name
	`)
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
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, strategy, created_at
		FROM documents WHERE id = ?
	`, id)
	return scanDocument(row)
}

// GetDocumentByName retrieves a document by its unique name.
func (s *Store) GetDocumentByName(ctx context.Context, name string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, strategy, created_at
		FROM documents WHERE name = ?
	`, name)
	return scanDocument(row)
}

// InsertParagraphs stores the batch in a single transaction. Positions
// continue after the paragraphs already stored for the document.
func (s *Store) InsertParagraphs(ctx context.Context, batch domain.ParagraphBatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrStore, err)
	}
	defer tx.Rollback() //nolint:errcheck

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

	var offset int
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position) + 1, 0) FROM paragraphs WHERE document_id = ?", doc.ID,
	).Scan(&offset)
	if err != nil {
		return fmt.Errorf("%w: reading positions: %w", domain.ErrStore, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO paragraphs (id, document_id, position, text, context, span_start, span_end, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: preparing statement: %w", domain.ErrStore, err)
	}
	defer stmt.Close()

	for i, p := range batch.Paragraphs {
		if _, err := stmt.ExecContext(ctx, p.ID, doc.ID, offset+i, p.Text, p.Context,
			p.Span.Start, p.Span.End, float32SliceToBytes(p.Embedding)); err != nil {
			return fmt.Errorf("%w: saving paragraph %q: %w", domain.ErrStore, p.ID, err)
		}
	}

	if current == 0 && len(batch.Paragraphs) > 0 {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO store_meta (key, value) VALUES (?, ?)", metaDimensions, strconv.Itoa(dims))
		if err != nil {
			return fmt.Errorf("%w: recording dimensions: %w", domain.ErrStore, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %w", domain.ErrStore, err)
	}
	return nil
}

// ensureDocument creates the document row when isNew, otherwise checks
// that it still exists.
func ensureDocument(ctx context.Context, tx *sql.Tx, doc domain.Document, isNew bool) error {
	if !isNew {
		var one int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM documents WHERE id = ?", doc.ID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: document %q: %w", domain.ErrStore, doc.ID, domain.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("%w: checking document: %w", domain.ErrStore, err)
		}
		return nil
	}

	var count int
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE id = ? OR name = ?", doc.ID, doc.Name,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("%w: checking document: %w", domain.ErrStore, err)
	}
	if count > 0 {
		return fmt.Errorf("%w: document named %q: %w", domain.ErrStore, doc.Name, domain.ErrAlreadyExists)
	}

	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, name, strategy, created_at)
		VALUES (?, ?, ?, ?)
	`, doc.ID, doc.Name, string(doc.Strategy), createdAt.UTC())
	if err != nil {
		return fmt.Errorf("%w: saving document: %w", domain.ErrStore, err)
	}
	return nil
}

// Nearest ranks the document's paragraphs by cosine similarity.
func (s *Store) Nearest(ctx context.Context, query []float32, k int, documentID string) ([]domain.Hit, error) {
	dims, err := dimensions(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if dims != 0 && len(query) != dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, store has %d: %w",
			domain.ErrStore, len(query), dims, domain.ErrDimensionMismatch)
	}
	if k <= 0 {
		return []domain.Hit{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, embedding FROM paragraphs WHERE document_id = ?", documentID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying paragraphs: %w", domain.ErrStore, err)
	}
	defer rows.Close()

	hits := []domain.Hit{}
	for rows.Next() {
		var (
			id   string
			blob []byte
		)
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("%w: scanning paragraph: %w", domain.ErrStore, err)
		}
		hits = append(hits, domain.Hit{
			ParagraphID: id,
			Score:       storage.Cosine(query, bytesToFloat32Slice(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating paragraphs: %w", domain.ErrStore, err)
	}

	return storage.Rank(hits, k), nil
}

// GetSources returns the context of each existing paragraph in id order.
func (s *Store) GetSources(ctx context.Context, ids []string) ([]domain.Source, error) {
	contexts := make(map[string]string, len(ids))
	for start := 0; start < len(ids); start += sourcesChunkSize {
		end := min(start+sourcesChunkSize, len(ids))
		if err := s.loadContexts(ctx, ids[start:end], contexts); err != nil {
			return nil, err
		}
	}

	sources := make([]domain.Source, 0, len(ids))
	for _, id := range ids {
		if text, ok := contexts[id]; ok {
			sources = append(sources, domain.Source{ParagraphID: id, Text: text})
		}
	}
	return sources, nil
}

func (s *Store) loadContexts(ctx context.Context, ids []string, into map[string]string) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	//nolint:gosec // placeholders only, values are bound
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, context FROM paragraphs WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return fmt.Errorf("%w: querying sources: %w", domain.ErrStore, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, text string
		if err := rows.Scan(&id, &text); err != nil {
			return fmt.Errorf("%w: scanning source: %w", domain.ErrStore, err)
		}
		into[id] = text
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: iterating sources: %w", domain.ErrStore, err)
	}
	return nil
}

// DeleteDocument removes a document; paragraphs cascade.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrStore, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("%w: deleting document: %w", domain.ErrStore, err)
	}

	// An empty store accepts a new embedding length.
	_, err = tx.ExecContext(ctx,
		"DELETE FROM store_meta WHERE key = ? AND NOT EXISTS (SELECT 1 FROM paragraphs)", metaDimensions)
	if err != nil {
		return fmt.Errorf("%w: clearing dimensions: %w", domain.ErrStore, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %w", domain.ErrStore, err)
	}
	return nil
}

// CountParagraphs returns the number of paragraphs stored for a document.
func (s *Store) CountParagraphs(ctx context.Context, documentID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM paragraphs WHERE document_id = ?", documentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting paragraphs: %w", domain.ErrStore, err)
	}
	return count, nil
}

// Dimensions returns the recorded embedding length, or 0.
func (s *Store) Dimensions(ctx context.Context) (int, error) {
	return dimensions(ctx, s.db)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func dimensions(ctx context.Context, q queryRower) (int, error) {
	var value string
	err := q.QueryRowContext(ctx, "SELECT value FROM store_meta WHERE key = ?", metaDimensions).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: reading dimensions: %w", domain.ErrStore, err)
	}
	dims, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid dimensions %q: %w", domain.ErrStore, value, err)
	}
	return dims, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanDocument scans a document from a *sql.Row or *sql.Rows.
func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		doc      domain.Document
		strategy string
	)
	if err := row.Scan(&doc.ID, &doc.Name, &strategy, &doc.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: document: %w", domain.ErrStore, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: scanning document: %w", domain.ErrStore, err)
	}
	doc.Strategy = domain.ChunkingStrategy(strategy)
	return &doc, nil
}
