package migrations_test

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/edutrack-service/internal/config"
	"github.com/maxviazov/edutrack-service/internal/migrations"
	"github.com/maxviazov/edutrack-service/internal/repository"
)

func openSQLite(t *testing.T) *repository.Database {
	t.Helper()
	logger := zerolog.New(io.Discard)
	cfg := config.DatabaseConfig{
		URL:         "sqlite:///" + filepath.Join(t.TempDir(), "edutrack.db"),
		PingTimeout: 5,
	}
	db, err := repository.Open(context.Background(), cfg, &logger, repository.WithoutPooling())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunner_UpStatusDown(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	runner, err := migrations.NewRunner(db.SQL(), db.Target.Dialect, zerolog.New(io.Discard))
	require.NoError(t, err)

	before, err := runner.Status(ctx)
	require.NoError(t, err)
	require.Len(t, before, 2)
	for _, s := range before {
		assert.False(t, s.Applied, "version %d applied before Up", s.Version)
	}

	require.NoError(t, runner.Up(ctx))
	v, err := runner.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, v)

	// second Up is a no-op
	require.NoError(t, runner.Up(ctx))

	after, err := runner.Status(ctx)
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.EqualValues(t, 1, after[0].Version)
	assert.Equal(t, "00001_create_users.sql", after[0].Name)
	for _, s := range after {
		assert.True(t, s.Applied)
	}

	_, err = db.SQL().ExecContext(ctx, "INSERT INTO users (email, full_name) VALUES ('a@example.com', 'A')")
	require.NoError(t, err)

	require.NoError(t, runner.Down(ctx))
	v, err = runner.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)
}

func TestNewRunner_Rejects(t *testing.T) {
	_, err := migrations.NewRunner(nil, repository.DialectSQLite, zerolog.Nop())
	assert.Error(t, err)

	db := openSQLite(t)
	_, err = migrations.NewRunner(db.SQL(), repository.Dialect("oracle"), zerolog.Nop())
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	for _, d := range []repository.Dialect{repository.DialectPostgres, repository.DialectMySQL, repository.DialectSQLite} {
		t.Run(string(d), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, migrations.Render(&buf, d))
			out := buf.String()

			assert.Contains(t, out, "-- dialect: "+string(d))
			assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS users")
			assert.Contains(t, out, "CREATE INDEX ix_users_created_at")
			assert.NotContains(t, out, "+goose")
			assert.NotContains(t, out, "DROP TABLE")
			assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS goose_db_version")
			assert.Contains(t, out, "VALUES (2, true);")
			assert.Less(t, strings.Index(out, "version 1:"), strings.Index(out, "version 2:"))
		})
	}
}

func TestRender_AppliedScriptIsVersioned(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, migrations.Render(&buf, repository.DialectSQLite))
	_, err := db.SQL().ExecContext(ctx, buf.String())
	require.NoError(t, err)

	runner, err := migrations.NewRunner(db.SQL(), db.Target.Dialect, zerolog.Nop())
	require.NoError(t, err)

	v, err := runner.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, v)

	// online Up after an offline apply has nothing left to do
	require.NoError(t, runner.Up(ctx))
	v, err = runner.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, v)

	status, err := runner.Status(ctx)
	require.NoError(t, err)
	for _, s := range status {
		assert.True(t, s.Applied, "version %d", s.Version)
	}
}

func TestRender_UnknownDialect(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, migrations.Render(&buf, repository.Dialect("oracle")))
	assert.Zero(t, buf.Len())
}
