package bunstore

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/maxviazov/edutrack-service/internal/model"
	"github.com/maxviazov/edutrack-service/internal/repository"
)

// userRow maps the users table created by the migrations.
type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Email     string    `bun:"email,notnull"`
	FullName  string    `bun:"full_name"`
	IsActive  bool      `bun:"is_active"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func (r userRow) toModel() model.User {
	return model.User{
		ID:        r.ID,
		Email:     r.Email,
		FullName:  r.FullName,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
	}
}

func fromModel(u model.User) userRow {
	return userRow{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// InsertUsers writes users in one statement, in the given order, so ids follow it.
// Zero ids and timestamps are left to the database.
func InsertUsers(ctx context.Context, db bun.IDB, users ...model.User) error {
	if len(users) == 0 {
		return nil
	}
	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, fromModel(u))
	}
	if _, err := db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return repository.NewQueryError("insert users", err)
	}
	return nil
}
