package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/maxviazov/edutrack-service/internal/config"
	"github.com/maxviazov/edutrack-service/internal/migrations"
	"github.com/maxviazov/edutrack-service/internal/repository"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(newMigrateUpCmd(opts), newMigrateDownCmd(opts), newMigrateStatusCmd(opts))
	return cmd
}

func newMigrateUpCmd(opts *rootOptions) *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Long: `Apply every pending migration to the database named by DATABASE_URL.

With --offline nothing is executed: the SQL for the URL's dialect is
written to stdout so it can be reviewed and applied by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.bootstrap()
			if err != nil {
				return err
			}
			if offline {
				target, err := repository.ParseDatabaseURL(cfg.Database.URL)
				if err != nil {
					return err
				}
				return migrations.Render(cmd.OutOrStdout(), target.Dialect)
			}
			return withRunner(cmd, cfg, log, func(r *migrations.Runner) error {
				return r.Up(cmd.Context())
			})
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "print SQL instead of executing it")
	return cmd
}

func newMigrateDownCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.bootstrap()
			if err != nil {
				return err
			}
			return withRunner(cmd, cfg, log, func(r *migrations.Runner) error {
				return r.Down(cmd.Context())
			})
		},
	}
}

func newMigrateStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which migrations are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.bootstrap()
			if err != nil {
				return err
			}
			return withRunner(cmd, cfg, log, func(r *migrations.Runner) error {
				list, err := r.Status(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "VERSION\tNAME\tSTATE\tAPPLIED AT")
				for _, s := range list {
					state, at := "pending", "-"
					if s.Applied {
						state, at = "applied", s.AppliedAt.UTC().Format(time.RFC3339)
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Version, s.Name, state, at)
				}
				return tw.Flush()
			})
		},
	}
}

// withRunner opens a dedicated, unpooled connection for schema work and
// closes it once fn returns.
func withRunner(cmd *cobra.Command, cfg *config.Config, log zerolog.Logger, fn func(*migrations.Runner) error) error {
	db, err := repository.Open(cmd.Context(), cfg.Database, &log, repository.WithoutPooling())
	if err != nil {
		return err
	}
	defer db.Close()

	runner, err := migrations.NewRunner(db.SQL(), db.Target.Dialect, log)
	if err != nil {
		return err
	}
	return fn(runner)
}
