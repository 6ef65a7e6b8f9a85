// Package bunstore implements the repository contracts on top of bun,
// so the same code runs against Postgres, MySQL and SQLite.
package bunstore

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/uptrace/bun"

	"github.com/maxviazov/edutrack-service/internal/model"
	"github.com/maxviazov/edutrack-service/internal/repository"
)

// SessionFactory draws one dedicated connection per session from the bun pool.
type SessionFactory struct {
	db  *bun.DB
	log zerolog.Logger
}

func NewSessionFactory(db *bun.DB, logger zerolog.Logger) *SessionFactory {
	return &SessionFactory{
		db:  db,
		log: logger.With().Str("component", "session").Logger(),
	}
}

// Acquire blocks until the pool yields a connection or ctx is done.
func (f *SessionFactory) Acquire(ctx context.Context) (repository.Session, error) {
	if f == nil || f.db == nil {
		return nil, repository.ErrNoFactory
	}
	conn, err := f.db.Conn(ctx)
	if err != nil {
		return nil, repository.NewQueryError("acquire", err)
	}
	return &session{conn: conn, log: f.log, acquired: time.Now()}, nil
}

type session struct {
	conn     bun.Conn
	closed   atomic.Bool
	log      zerolog.Logger
	acquired time.Time
}

func (s *session) ListUsers(ctx context.Context, p repository.Page) ([]model.User, error) {
	if s.closed.Load() {
		return nil, repository.ErrSessionClosed
	}
	p = p.Sanitize()

	var rows []userRow
	err := s.conn.NewSelect().
		Model(&rows).
		OrderExpr("u.id ASC").
		Limit(p.Limit).
		Offset(p.Offset).
		Scan(ctx)
	if err != nil {
		return nil, repository.NewQueryError("list users", err)
	}

	out := make([]model.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// Close hands the connection back to the pool. Only the first call does so.
func (s *session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return repository.ErrSessionClosed
	}
	err := s.conn.Close()
	s.log.Debug().Dur("held", time.Since(s.acquired)).Err(err).Msg("session released")
	return err
}

var _ repository.SessionFactory = (*SessionFactory)(nil)
