package postgres

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

func TestDSN(t *testing.T) {
	assert.Equal(t,
		"postgres://ev:secret@db:5432/sealedev?sslmode=disable",
		DSN(ClientConfig{Host: "db", Database: "sealedev", User: "ev", Password: "secret"}),
	)
	assert.Equal(t,
		"postgres://ev:secret@db:6543/sealedev?sslmode=require",
		DSN(ClientConfig{Host: "db", Port: 6543, Database: "sealedev", User: "ev", Password: "secret", SSLMode: "require"}),
	)
	assert.Equal(t, "postgres://override", DSN(ClientConfig{DSN: "postgres://override", Host: "ignored"}))
}

func TestListQuery(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	query, args := listQuery(`SELECT data FROM analyses WHERE set_id = $1`, []any{"sv3"},
		domain.ListOpts{Since: &since, Limit: 10, Offset: 20})

	assert.Equal(t,
		`SELECT data FROM analyses WHERE set_id = $1 AND created_at >= $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		query)
	assert.Equal(t, []any{"sv3", since, 10, 20}, args)

	query, args = listQuery(`SELECT data FROM analyses WHERE TRUE`, nil, domain.ListOpts{})
	assert.Equal(t, `SELECT data FROM analyses WHERE TRUE ORDER BY created_at DESC`, query)
	assert.Empty(t, args)
}

func TestMigrationFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0002_b.sql": {Data: []byte("SELECT 2;")},
		"migrations/0001_a.sql": {Data: []byte("SELECT 1;")},
		"migrations/README.md":  {Data: []byte("docs")},
		"migrations/sub/x.sql":  {Data: []byte("SELECT 3;")},
	}

	names, err := migrationFiles(fsys, "migrations")
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_a.sql", "0002_b.sql"}, names)

	embedded, err := migrationFiles(migrationsFS, "migrations")
	require.NoError(t, err)
	assert.Contains(t, embedded, "0001_analyses.sql")
}
