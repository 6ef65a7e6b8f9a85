package bunstore

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/maxviazov/edutrack-service/internal/repository"
)

type pinger struct{ db *bun.DB }

// NewPinger adapts the bun pool to the repository.Pinger interface.
func NewPinger(db *bun.DB) repository.Pinger { return &pinger{db: db} }

func (p *pinger) Ping(ctx context.Context) error {
	if p.db == nil {
		return repository.ErrNoFactory
	}
	return p.db.PingContext(ctx)
}
