//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/custodia-labs/localrag/internal/adapters/driven/storage/storetest"
	"github.com/custodia-labs/localrag/internal/core/domain"
	"github.com/custodia-labs/localrag/internal/core/ports/driven"
)

// startPostgres starts a PostgreSQL container with the pgvector extension
// and returns database settings pointing at it.
func startPostgres(t *testing.T) domain.DatabaseSettings {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return domain.DatabaseSettings{
		Name:     "postgres",
		User:     "testuser",
		Password: "testpass",
		Host:     host,
		Port:     port.Int(),
	}
}

func TestStore_Integration(t *testing.T) {
	settings := startPostgres(t)
	base, err := NewStore(context.Background(), ConnString(settings))
	require.NoError(t, err)
	defer base.Close()

	n := 0
	storetest.Run(t, func(t *testing.T) driven.DocumentStore {
		n++
		dbName := fmt.Sprintf("case_%d", n)
		_, err := base.pool.Exec(context.Background(), "CREATE DATABASE "+dbName)
		require.NoError(t, err)

		caseSettings := settings
		caseSettings.Name = dbName
		store, err := NewStore(context.Background(), ConnString(caseSettings))
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestStore_Integration_Ping(t *testing.T) {
	settings := startPostgres(t)
	store, err := NewStore(context.Background(), ConnString(settings))
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.Ping(context.Background()))
}
