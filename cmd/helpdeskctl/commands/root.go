package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/observability"
)

var dsn string

var rootCmd = &cobra.Command{
	Use:   "helpdeskctl",
	Short: "Operational commands for the help desk service",
	Long: `helpdeskctl manages the help desk database.

Subcommands:
  migrate up|down  - apply or roll back the embedded schema migrations
  seed             - load demo users, profiles, categories and tickets`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsn, "db", "", "Postgres DSN (defaults to POSTGRES_DSN)")
	rootCmd.AddCommand(migrateCmd, seedCmd)
}

// setup loads configuration, applying the --db override, and builds a logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if dsn != "" {
		cfg.Postgres.DSN = dsn
	}
	if cfg.Postgres.DSN == "" {
		return nil, nil, fmt.Errorf("a database is required: pass --db or set POSTGRES_DSN")
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
