// Package contract holds behaviour suites any SessionFactory implementation must pass.
package contract

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maxviazov/edutrack-service/internal/model"
	"github.com/maxviazov/edutrack-service/internal/repository"
)

// Seeder inserts users in order; ids are assigned by the store.
type Seeder func(ctx context.Context, users ...model.User) error

// SessionFactoryMaker returns a factory over an empty users table plus a way to seed it.
type SessionFactoryMaker func(t *testing.T) (repository.SessionFactory, Seeder, func())

// PingerMaker returns a pinger over a reachable store.
type PingerMaker func(t *testing.T) (repository.Pinger, func())

func users(n int) []model.User {
	out := make([]model.User, n)
	for i := range out {
		out[i] = model.User{
			Email:    fmt.Sprintf("user%02d@example.com", i+1),
			FullName: fmt.Sprintf("User %02d", i+1),
			IsActive: i%2 == 0,
		}
	}
	return out
}

func list(t *testing.T, f repository.SessionFactory, p repository.Page) []model.User {
	t.Helper()
	out, err := repository.WithSession(context.Background(), f, func(ctx context.Context, s repository.Session) ([]model.User, error) {
		return s.ListUsers(ctx, p)
	})
	if err != nil {
		t.Fatalf("list %+v: %v", p, err)
	}
	return out
}

func RunSessionFactoryContract(t *testing.T, makeFactory SessionFactoryMaker) {
	t.Helper()

	t.Run("empty_table", func(t *testing.T) {
		f, _, cleanup := makeFactory(t)
		t.Cleanup(cleanup)
		got := list(t, f, repository.Page{Limit: 10})
		if got == nil || len(got) != 0 {
			t.Fatalf("expected empty non-nil slice, got %#v", got)
		}
	})

	t.Run("three_rows_window", func(t *testing.T) {
		f, seed, cleanup := makeFactory(t)
		t.Cleanup(cleanup)
		if err := seed(context.Background(), users(3)...); err != nil {
			t.Fatalf("seed: %v", err)
		}

		all := list(t, f, repository.Page{Limit: 100})
		if len(all) != 3 {
			t.Fatalf("want 3 users, got %d", len(all))
		}
		for i := 1; i < len(all); i++ {
			if all[i-1].ID >= all[i].ID {
				t.Fatalf("not ordered by id: %d then %d", all[i-1].ID, all[i].ID)
			}
		}
		if all[0].Email != "user01@example.com" || all[0].FullName != "User 01" || !all[0].IsActive {
			t.Fatalf("unexpected first row: %+v", all[0])
		}
		if all[0].CreatedAt.IsZero() {
			t.Fatalf("created_at not populated")
		}

		mid := list(t, f, repository.Page{Limit: 1, Offset: 1})
		if len(mid) != 1 || mid[0].ID != all[1].ID {
			t.Fatalf("skip=1 limit=1: got %+v, want id %d", mid, all[1].ID)
		}

		past := list(t, f, repository.Page{Limit: 5, Offset: 10})
		if past == nil || len(past) != 0 {
			t.Fatalf("skip past end: want empty slice, got %#v", past)
		}
	})

	t.Run("pagination_lengths", func(t *testing.T) {
		f, seed, cleanup := makeFactory(t)
		t.Cleanup(cleanup)
		if err := seed(context.Background(), users(25)...); err != nil {
			t.Fatalf("seed: %v", err)
		}
		cases := []struct {
			page repository.Page
			want int
		}{
			{repository.Page{Limit: 10, Offset: 0}, 10},
			{repository.Page{Limit: 10, Offset: 20}, 5},
			{repository.Page{Limit: 100, Offset: 0}, 25},
			{repository.Page{Limit: 1, Offset: 24}, 1},
			{repository.Page{Limit: 10, Offset: 25}, 0},
		}
		seen := map[int64]bool{}
		for _, tc := range cases {
			got := list(t, f, tc.page)
			if len(got) != tc.want {
				t.Fatalf("page %+v: want %d got %d", tc.page, tc.want, len(got))
			}
		}
		for off := 0; off < 25; off += 10 {
			for _, u := range list(t, f, repository.Page{Limit: 10, Offset: off}) {
				if seen[u.ID] {
					t.Fatalf("id %d returned twice across pages", u.ID)
				}
				seen[u.ID] = true
			}
		}
		if len(seen) != 25 {
			t.Fatalf("pages covered %d users, want 25", len(seen))
		}
	})

	t.Run("close_exactly_once", func(t *testing.T) {
		f, _, cleanup := makeFactory(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		s, err := f.Acquire(ctx)
		if err != nil {
			t.Fatalf("acquire: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("first close: %v", err)
		}
		if err := s.Close(); !errors.Is(err, repository.ErrSessionClosed) {
			t.Fatalf("second close: want ErrSessionClosed, got %v", err)
		}
		if _, err := s.ListUsers(ctx, repository.Page{Limit: 1}); !errors.Is(err, repository.ErrSessionClosed) {
			t.Fatalf("use after close: want ErrSessionClosed, got %v", err)
		}
	})

	// Two requests in flight must not share a connection: both sessions stay
	// usable side by side and closing one leaves the other intact.
	t.Run("concurrent_sessions_are_distinct", func(t *testing.T) {
		f, seed, cleanup := makeFactory(t)
		t.Cleanup(cleanup)
		if err := seed(context.Background(), users(4)...); err != nil {
			t.Fatalf("seed: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		first, err := f.Acquire(ctx)
		if err != nil {
			t.Fatalf("acquire first: %v", err)
		}
		second, err := f.Acquire(ctx)
		if err != nil {
			_ = first.Close()
			t.Fatalf("acquire second while first is held: %v", err)
		}
		if first == second {
			t.Fatalf("factory handed out the same session twice")
		}

		var got [2][]model.User
		g, gctx := errgroup.WithContext(ctx)
		for i, s := range []repository.Session{first, second} {
			i, s := i, s
			g.Go(func() error {
				out, err := s.ListUsers(gctx, repository.Page{Limit: 2, Offset: i * 2})
				got[i] = out
				return err
			})
		}
		if err := g.Wait(); err != nil {
			t.Fatalf("concurrent list: %v", err)
		}
		if len(got[0]) != 2 || len(got[1]) != 2 || got[0][1].ID >= got[1][0].ID {
			t.Fatalf("unexpected windows: %+v / %+v", got[0], got[1])
		}

		if err := first.Close(); err != nil {
			t.Fatalf("close first: %v", err)
		}
		if _, err := second.ListUsers(ctx, repository.Page{Limit: 1}); err != nil {
			t.Fatalf("second session broken by closing the first: %v", err)
		}
		if err := second.Close(); err != nil {
			t.Fatalf("close second: %v", err)
		}
	})

	t.Run("released_sessions_are_reusable", func(t *testing.T) {
		f, _, cleanup := makeFactory(t)
		t.Cleanup(cleanup)
		// More sequential sessions than any sane pool size.
		for i := 0; i < 50; i++ {
			_ = list(t, f, repository.Page{Limit: 1})
		}
	})

	t.Run("cancelled_context", func(t *testing.T) {
		f, _, cleanup := makeFactory(t)
		t.Cleanup(cleanup)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := repository.WithSession(ctx, f, func(ctx context.Context, s repository.Session) ([]model.User, error) {
			return s.ListUsers(ctx, repository.Page{Limit: 1})
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("want context.Canceled, got %v", err)
		}
	})
}

func RunPingerContract(t *testing.T, makePinger PingerMaker) {
	t.Helper()
	t.Run("ping_ok", func(t *testing.T) {
		p, cleanup := makePinger(t)
		t.Cleanup(cleanup)
		if err := p.Ping(context.Background()); err != nil {
			t.Fatalf("ping: %v", err)
		}
	})
}
