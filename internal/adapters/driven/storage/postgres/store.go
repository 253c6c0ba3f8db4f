package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/custodia-labs/localrag/internal/core/domain"
	"github.com/custodia-labs/localrag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

const (
	metaDimensions = "dimensions"

	// writeLockKey identifies the advisory lock held by inserts.
	writeLockKey int64 = 0x6c6f63616c726167

	uniqueViolation = "23505"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	strategy   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS store_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// ConnString builds a connection URL from database settings.
func ConnString(db domain.DatabaseSettings) string {
	port := db.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(db.User, db.Password),
		Host:     net.JoinHostPort(db.Host, strconv.Itoa(port)),
		Path:     "/" + db.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Store is a pgvector-backed document store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects, registers the pgvector types on every connection
// and ensures the base schema exists.
func NewStore(ctx context.Context, connString string) (*Store, error) {
	if connString == "" {
		return nil, fmt.Errorf("%w: connection string is required: %w", domain.ErrConfiguration, domain.ErrInvalidInput)
	}

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing connection string: %w", domain.ErrConfiguration, err)
	}

	if err := ensureExtension(ctx, poolConfig.ConnConfig); err != nil {
		return nil, err
	}

	// Register pgvector types for each connection
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: creating connection pool: %w", domain.ErrStore, err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: creating schema: %w", domain.ErrStore, err)
	}

	return &Store{pool: pool}, nil
}

// ensureExtension creates the vector extension when the role may, then
// fails fast if it is still missing.
func ensureExtension(ctx context.Context, cfg *pgx.ConnConfig) error {
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%w: connecting: %w", domain.ErrStore, err)
	}
	defer conn.Close(ctx)

	_, _ = conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")

	var exists bool
	err = conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector')",
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("%w: checking pgvector extension: %w", domain.ErrStore, err)
	}
	if !exists {
		return fmt.Errorf("%w: pgvector extension not installed, run: CREATE EXTENSION vector", domain.ErrStore)
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStore, err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func dimensions(ctx context.Context, q querier) (int, error) {
	var value string
	err := q.QueryRow(ctx, "SELECT value FROM store_meta WHERE key = $1", metaDimensions).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
