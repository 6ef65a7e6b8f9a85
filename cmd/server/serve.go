package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/maxviazov/edutrack-service/internal/config"
	"github.com/maxviazov/edutrack-service/internal/handler"
	"github.com/maxviazov/edutrack-service/internal/migrations"
	"github.com/maxviazov/edutrack-service/internal/repository"
	"github.com/maxviazov/edutrack-service/internal/repository/bunstore"
	"github.com/maxviazov/edutrack-service/internal/service"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, opts)
		},
	}
}

func serve(cmd *cobra.Command, opts *rootOptions) error {
	cfg, log, err := opts.bootstrap()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.Database, &log)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("closing database pool")
		}
	}()

	if cfg.Database.MigrateOnStart {
		runner, err := migrations.NewRunner(db.SQL(), db.Target.Dialect, log)
		if err != nil {
			return err
		}
		if err := runner.Up(ctx); err != nil {
			log.Error().Err(err).Msg("startup migration failed")
			return err
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           newRouter(cfg, log, db),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
	return run(ctx, srv, cfg.HTTP.ShutdownTimeoutDuration(), log)
}

// newRouter wires store → service → handlers for one database.
func newRouter(cfg *config.Config, log zerolog.Logger, db *repository.Database) *gin.Engine {
	dev := cfg.App.Env == "dev" || cfg.App.Env == "test"
	if !dev {
		gin.SetMode(gin.ReleaseMode)
	}

	sessions := bunstore.NewSessionFactory(db.Bun, log)
	users := service.NewUserService(
		sessions,
		service.PagePolicy{DefaultLimit: cfg.Pagination.DefaultLimit, MaxLimit: cfg.Pagination.MaxLimit},
		cfg.Database.QueryTimeoutDuration(),
		log,
	)

	r := handler.NewRouter(log, dev)
	handler.Register(r, bunstore.NewPinger(db.Bun), users)
	return r
}

// run serves until ctx is cancelled or the listener fails, then drains
// in-flight requests within shutdownTimeout.
func run(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, log zerolog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("🚀 Service started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
