package repository

import (
	"context"
	"errors"

	"github.com/maxviazov/edutrack-service/internal/config"
)

// ErrNoFactory is returned when data access is attempted without a configured factory.
var ErrNoFactory = &config.ConfigurationError{Key: config.EnvDatabaseURL, Reason: "session factory is not initialized"}

// WithSession acquires a session, runs fn on it and releases it on every
// exit path, including a panic inside fn. A release failure is joined to
// fn's error rather than replacing it.
func WithSession[T any](ctx context.Context, f SessionFactory, fn func(ctx context.Context, s Session) (T, error)) (out T, err error) {
	if f == nil {
		return out, ErrNoFactory
	}
	s, err := f.Acquire(ctx)
	if err != nil {
		return out, err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			err = errors.Join(err, NewQueryError("release", cerr))
		}
	}()
	return fn(ctx, s)
}
