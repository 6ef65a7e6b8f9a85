package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	// Drivers registered by name for database/sql.
	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/maxviazov/edutrack-service/internal/config"
)

// Database is the process-wide connection engine. It owns the pool;
// sessions borrow from it and give connections back on Close.
type Database struct {
	Bun    *bun.DB
	Target Target
}

// SQL exposes the underlying pool for tools that speak database/sql, such as migrations.
func (d *Database) SQL() *sql.DB { return d.Bun.DB }

// Close releases every pooled connection.
func (d *Database) Close() error {
	if d == nil || d.Bun == nil {
		return nil
	}
	return d.Bun.Close()
}

type openOptions struct {
	noPool bool
}

// OpenOption tweaks how Open configures the pool.
type OpenOption func(*openOptions)

// WithoutPooling keeps at most one connection open and never parks idle ones.
// Schema changes use it so nothing lingers on a connection between steps.
func WithoutPooling() OpenOption {
	return func(o *openOptions) { o.noPool = true }
}

// Open parses cfg.URL, opens the matching driver, wraps it in bun and
// verifies connectivity within cfg.PingTimeout.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zerolog.Logger, opts ...OpenOption) (*Database, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}

	target, err := ParseDatabaseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	sqlDB, err := openSQL(target, logger)
	if err != nil {
		return nil, err
	}
	tunePool(sqlDB, cfg, target, o)

	db := &Database{Bun: newBunDB(sqlDB, target.Dialect), Target: target}

	timeout := cfg.PingTimeoutDuration()
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.Bun.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", target.Dialect, err)
	}

	logger.Info().
		Str("dialect", string(target.Dialect)).
		Str("url", target.Redacted).
		Bool("pooled", !o.noPool).
		Msg("Successfully connected to database")

	return db, nil
}

func openSQL(target Target, logger *zerolog.Logger) (*sql.DB, error) {
	switch target.Dialect {
	case DialectPostgres:
		connConfig, err := pgx.ParseConfig(target.DSN)
		if err != nil {
			return nil, &config.ConfigurationError{Key: config.EnvDatabaseURL, Reason: "is not a valid postgres URL", Err: err}
		}
		connConfig.Tracer = &tracelog.TraceLog{
			Logger:   newPgxLogger(*logger),
			LogLevel: traceLevel(effectiveLevel(logger)),
		}
		return stdlib.OpenDB(*connConfig), nil
	case DialectMySQL:
		db, err := sql.Open("mysql", target.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open mysql: %w", err)
		}
		return db, nil
	case DialectSQLite:
		db, err := sql.Open("sqlite", target.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		return db, nil
	default:
		return nil, &config.ConfigurationError{Key: config.EnvDatabaseURL, Reason: fmt.Sprintf("has unsupported dialect %q", target.Dialect)}
	}
}

func newBunDB(sqlDB *sql.DB, d Dialect) *bun.DB {
	switch d {
	case DialectPostgres:
		return bun.NewDB(sqlDB, pgdialect.New())
	case DialectMySQL:
		return bun.NewDB(sqlDB, mysqldialect.New())
	default:
		return bun.NewDB(sqlDB, sqlitedialect.New())
	}
}

// tunePool applies pool settings. A private in-memory SQLite database only
// exists on the connection that created it, so it is pinned to one.
func tunePool(db *sql.DB, cfg config.DatabaseConfig, target Target, o openOptions) {
	switch {
	case o.noPool:
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(0)
		return
	case target.InMemory():
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Second)
	}
}

// effectiveLevel accounts for the global gate; a fresh logger reports trace
// even when everything below info is dropped.
func effectiveLevel(logger *zerolog.Logger) zerolog.Level {
	if g := zerolog.GlobalLevel(); g > logger.GetLevel() {
		return g
	}
	return logger.GetLevel()
}

func traceLevel(l zerolog.Level) tracelog.LogLevel {
	switch {
	case l <= zerolog.TraceLevel:
		return tracelog.LogLevelTrace
	case l <= zerolog.DebugLevel:
		return tracelog.LogLevelDebug
	case l <= zerolog.InfoLevel:
		return tracelog.LogLevelInfo
	case l <= zerolog.WarnLevel:
		return tracelog.LogLevelWarn
	default:
		return tracelog.LogLevelError
	}
}
