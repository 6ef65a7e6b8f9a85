// Package migrations owns the versioned schema of the store.
// SQL files are embedded per dialect and applied with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/maxviazov/edutrack-service/internal/repository"
)

//go:embed sql
var embedded embed.FS

// Status describes one migration as seen by the target database.
type Status struct {
	Version   int64
	Name      string
	Applied   bool
	AppliedAt time.Time
}

// Runner applies migrations online, over a live connection.
type Runner struct {
	provider *goose.Provider
	log      zerolog.Logger
}

// Source returns the migration files for a dialect, rooted at their directory.
func Source(d repository.Dialect) (fs.FS, error) {
	dir := path.Join("sql", string(d))
	if _, err := fs.Stat(embedded, dir); err != nil {
		return nil, fmt.Errorf("no migrations for dialect %q: %w", d, err)
	}
	return fs.Sub(embedded, dir)
}

func gooseDialect(d repository.Dialect) (goose.Dialect, error) {
	switch d {
	case repository.DialectPostgres:
		return goose.DialectPostgres, nil
	case repository.DialectMySQL:
		return goose.DialectMySQL, nil
	case repository.DialectSQLite:
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("unsupported dialect %q", d)
	}
}

// NewRunner prepares a goose provider over db. The caller owns db.
func NewRunner(db *sql.DB, d repository.Dialect, logger zerolog.Logger) (*Runner, error) {
	if db == nil {
		return nil, errors.New("migrations: db is required")
	}
	gd, err := gooseDialect(d)
	if err != nil {
		return nil, err
	}
	fsys, err := Source(d)
	if err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider(gd, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("migrations: new provider: %w", err)
	}
	return &Runner{
		provider: provider,
		log:      logger.With().Str("component", "migrations").Str("dialect", string(d)).Logger(),
	}, nil
}

// Up applies every pending migration, in version order.
func (r *Runner) Up(ctx context.Context) error {
	results, err := r.provider.Up(ctx)
	for _, res := range results {
		r.logResult(res)
	}
	if err != nil {
		return fmt.Errorf("migrations: up: %w", err)
	}
	if len(results) == 0 {
		r.log.Info().Msg("schema is up to date")
	}
	return nil
}

// Down rolls back the most recently applied migration.
func (r *Runner) Down(ctx context.Context) error {
	res, err := r.provider.Down(ctx)
	if res != nil {
		r.logResult(res)
	}
	if err != nil {
		return fmt.Errorf("migrations: down: %w", err)
	}
	return nil
}

// Version reports the highest applied version, 0 for an empty database.
func (r *Runner) Version(ctx context.Context) (int64, error) {
	v, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrations: version: %w", err)
	}
	return v, nil
}

func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	list, err := r.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrations: status: %w", err)
	}
	out := make([]Status, 0, len(list))
	for _, s := range list {
		out = append(out, Status{
			Version:   s.Source.Version,
			Name:      path.Base(s.Source.Path),
			Applied:   s.State == goose.StateApplied,
			AppliedAt: s.AppliedAt,
		})
	}
	return out, nil
}

func (r *Runner) logResult(res *goose.MigrationResult) {
	ev := r.log.Info()
	if res.Error != nil {
		ev = r.log.Error().Err(res.Error)
	}
	ev.Int64("version", res.Source.Version).
		Str("file", path.Base(res.Source.Path)).
		Str("direction", res.Direction).
		Dur("took", res.Duration).
		Msg("migration applied")
}
