package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxviazov/edutrack-service/internal/model"
	"github.com/maxviazov/edutrack-service/internal/repository"
)

// userService runs each request inside its own session and bounds it with a timeout.
type userService struct {
	sessions repository.SessionFactory
	policy   PagePolicy
	timeout  time.Duration
	log      zerolog.Logger
}

// NewUserService wires the use case. A non-positive timeout disables the bound.
func NewUserService(sessions repository.SessionFactory, policy PagePolicy, timeout time.Duration, logger zerolog.Logger) UserService {
	l := logger.With().Str("module", "service").Str("component", "user").Logger()
	return &userService{sessions: sessions, policy: policy.normalized(), timeout: timeout, log: l}
}

func (s *userService) ListUsers(ctx context.Context, q UserListQuery) ([]model.User, error) {
	start := time.Now()
	page, err := resolvePage(q, s.policy)
	if err != nil {
		s.log.Debug().Interface("field_errors", FieldErrors(err)).Msg("list users validation failed")
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	users, err := repository.WithSession(ctx, s.sessions, func(ctx context.Context, sess repository.Session) ([]model.User, error) {
		return sess.ListUsers(ctx, page)
	})
	if err != nil {
		s.log.Error().Err(err).Int("limit", page.Limit).Int("offset", page.Offset).Msg("list users failed")
		return nil, err
	}
	s.log.Debug().Dur("took", time.Since(start)).Int("count", len(users)).Msg("users listed")
	return users, nil
}
