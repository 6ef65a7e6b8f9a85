package repository

import (
	"context"

	"github.com/maxviazov/edutrack-service/internal/model"
)

// Pinger represents a minimal readiness probe capability.
// I use it to decouple health checks from storage implementation details.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Session is a short-lived handle on one connection drawn from the pool.
// It is owned by a single unit of work and must be closed exactly once;
// every call after Close fails with ErrSessionClosed.
type Session interface {
	// ListUsers returns at most p.Limit users after skipping p.Offset,
	// ordered by id ascending. An offset past the end yields an empty slice.
	ListUsers(ctx context.Context, p Page) ([]model.User, error)
	Close() error
}

// SessionFactory hands out sessions. I pass context through Acquire so a
// saturated pool honors request deadlines. Implementations are safe for
// concurrent use; the sessions they return are not.
type SessionFactory interface {
	Acquire(ctx context.Context) (Session, error)
}
