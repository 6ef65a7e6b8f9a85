package bunstore_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/edutrack-service/internal/config"
	"github.com/maxviazov/edutrack-service/internal/migrations"
	"github.com/maxviazov/edutrack-service/internal/model"
	"github.com/maxviazov/edutrack-service/internal/repository"
	"github.com/maxviazov/edutrack-service/internal/repository/bunstore"
	"github.com/maxviazov/edutrack-service/internal/repository/contract"
)

// openMigrated opens url, applies every migration and empties the users table.
func openMigrated(t *testing.T, url string) *repository.Database {
	t.Helper()
	logger := zerolog.New(io.Discard)
	ctx := context.Background()
	db, err := repository.Open(ctx, config.DatabaseConfig{URL: url, PingTimeout: 5}, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	runner, err := migrations.NewRunner(db.SQL(), db.Target.Dialect, logger)
	require.NoError(t, err)
	require.NoError(t, runner.Up(ctx))

	_, err = db.Bun.NewDelete().TableExpr("users").Where("1 = 1").Exec(ctx)
	require.NoError(t, err)
	return db
}

func seeder(db *repository.Database) contract.Seeder {
	return func(ctx context.Context, users ...model.User) error {
		return bunstore.InsertUsers(ctx, db.Bun, users...)
	}
}

func sqliteURL(t *testing.T) string {
	return "sqlite:///" + filepath.Join(t.TempDir(), "edutrack.db")
}

func TestSessionFactory_SQLiteContract(t *testing.T) {
	contract.RunSessionFactoryContract(t, func(t *testing.T) (repository.SessionFactory, contract.Seeder, func()) {
		db := openMigrated(t, sqliteURL(t))
		return bunstore.NewSessionFactory(db.Bun, zerolog.Nop()), seeder(db), func() {}
	})
}

func TestPinger_SQLiteContract(t *testing.T) {
	contract.RunPingerContract(t, func(t *testing.T) (repository.Pinger, func()) {
		db := openMigrated(t, sqliteURL(t))
		return bunstore.NewPinger(db.Bun), func() {}
	})
}

func TestSessionFactory_InMemorySQLite(t *testing.T) {
	db := openMigrated(t, "sqlite://:memory:")
	ctx := context.Background()
	require.NoError(t, bunstore.InsertUsers(ctx, db.Bun, model.User{Email: "a@example.com", IsActive: true}))

	f := bunstore.NewSessionFactory(db.Bun, zerolog.Nop())
	users, err := repository.WithSession(ctx, f, func(ctx context.Context, s repository.Session) ([]model.User, error) {
		return s.ListUsers(ctx, repository.Page{Limit: 10})
	})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "a@example.com", users[0].Email)
}

func TestInsertUsers_DuplicateEmail(t *testing.T) {
	db := openMigrated(t, sqliteURL(t))
	ctx := context.Background()
	require.NoError(t, bunstore.InsertUsers(ctx, db.Bun, model.User{Email: "dup@example.com"}))
	err := bunstore.InsertUsers(ctx, db.Bun, model.User{Email: "dup@example.com"})
	var qe *repository.QueryError
	require.ErrorAs(t, err, &qe)
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestNilFactoryAndPinger(t *testing.T) {
	var f *bunstore.SessionFactory
	_, err := f.Acquire(context.Background())
	assert.ErrorIs(t, err, repository.ErrNoFactory)

	assert.ErrorIs(t, bunstore.NewPinger(nil).Ping(context.Background()), repository.ErrNoFactory)
}

// Postgres run of the same suites; opt in with CONTRACT_TESTS=1 and CONTRACT_DATABASE_URL.
func postgresURL(t *testing.T) string {
	t.Helper()
	if os.Getenv("CONTRACT_TESTS") != "1" {
		t.Skip("contract tests skipped; set CONTRACT_TESTS=1 and CONTRACT_DATABASE_URL")
	}
	url := os.Getenv("CONTRACT_DATABASE_URL")
	if url == "" {
		t.Skip("CONTRACT_DATABASE_URL not set")
	}
	return url
}

func TestSessionFactory_PostgresContract(t *testing.T) {
	contract.RunSessionFactoryContract(t, func(t *testing.T) (repository.SessionFactory, contract.Seeder, func()) {
		db := openMigrated(t, postgresURL(t))
		return bunstore.NewSessionFactory(db.Bun, zerolog.Nop()), seeder(db), func() {}
	})
}

func TestPinger_PostgresContract(t *testing.T) {
	contract.RunPingerContract(t, func(t *testing.T) (repository.Pinger, func()) {
		db := openMigrated(t, postgresURL(t))
		return bunstore.NewPinger(db.Bun), func() {}
	})
}
