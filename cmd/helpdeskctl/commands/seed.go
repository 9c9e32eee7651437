package commands

import (
	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

var migrateFirst bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo data",
	Long: `Load demo data. Each table is skipped when it already contains rows.

Examples:
  helpdeskctl seed --db postgres://localhost/helpdesk
  helpdeskctl seed --migrate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed(cmd)
	},
}

func init() {
	seedCmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply migrations before seeding")
}

func runSeed(cmd *cobra.Command) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if migrateFirst {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, persistence.MigrateUp, logger); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	pool := pg.Pool
	seeder := service.NewSeeder(service.SeedDependencies{
		UserRepo:       repository.NewUserRepository(pool),
		ClientRepo:     repository.NewClientRepository(pool),
		TechnicianRepo: repository.NewTechnicianRepository(pool),
		CategoryRepo:   repository.NewCategoryRepository(pool),
		TicketRepo:     repository.NewTicketRepository(pool),
		Tx:             repository.NewTxManager(pool),
		BcryptCost:     cfg.Auth.BcryptCost,
		Logger:         logger,
	})
	if err := seeder.Run(ctx); err != nil {
		return err
	}
	cmd.Println("seed complete")
	return nil
}
