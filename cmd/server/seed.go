package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/maxviazov/edutrack-service/internal/model"
	"github.com/maxviazov/edutrack-service/internal/repository"
	"github.com/maxviazov/edutrack-service/internal/repository/bunstore"
)

// seedUser is one entry of a seed file.
type seedUser struct {
	Email    string `yaml:"email"`
	FullName string `yaml:"full_name"`
	IsActive *bool  `yaml:"is_active"`
}

func readSeedFile(path string) ([]model.User, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Users []seedUser `yaml:"users"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make([]model.User, 0, len(doc.Users))
	for i, u := range doc.Users {
		if u.Email == "" {
			return nil, fmt.Errorf("%s: users[%d] has no email", path, i)
		}
		active := true
		if u.IsActive != nil {
			active = *u.IsActive
		}
		out = append(out, model.User{Email: u.Email, FullName: u.FullName, IsActive: active})
	}
	return out, nil
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert users from a YAML file, for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := readSeedFile(file)
			if err != nil {
				return err
			}
			cfg, log, err := opts.bootstrap()
			if err != nil {
				return err
			}
			db, err := repository.Open(cmd.Context(), cfg.Database, &log, repository.WithoutPooling())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := bunstore.InsertUsers(cmd.Context(), db.Bun, users...); err != nil {
				return err
			}
			log.Info().Int("count", len(users)).Str("file", file).Msg("users seeded")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "seed.yaml", "YAML file with a top-level users list")
	return cmd
}
