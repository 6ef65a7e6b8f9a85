package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/maxviazov/edutrack-service/internal/config"
	"github.com/maxviazov/edutrack-service/internal/logger"
)

var version = "dev" // set by the linker

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	envFile    string
}

// newRootCmd builds the command tree. Running without a subcommand serves HTTP.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "edutrack",
		Short:        "EduTrack HTTP service and schema tooling",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "optional YAML config file")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before configuration; missing file is ignored")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newSeedCmd(opts))
	return cmd
}

// loadEnvFile exports variables from path without overriding ones already set.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// bootstrap loads the environment, configuration and root logger, in that order.
func (o *rootOptions) bootstrap() (*config.Config, zerolog.Logger, error) {
	if err := loadEnvFile(o.envFile); err != nil {
		return nil, zerolog.Nop(), err
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log, err := logger.New(&cfg.Logger)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, log, nil
}
