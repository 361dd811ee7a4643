package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/SscSPs/water_permits_app/internal/platform/config"
	"github.com/SscSPs/water_permits_app/pkg/database"
)

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Apply every pending migration from MIGRATIONS_PATH to the database at PGSQL_URL.
With --down, revert the most recent migration instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.StorageDriver != config.StorageDriverPostgres {
				return fmt.Errorf("migrate needs STORAGE_DRIVER=%s", config.StorageDriverPostgres)
			}

			direction := database.MigrateUp
			if down {
				direction = database.MigrateDown
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, direction, logger); err != nil {
				return err
			}
			fmt.Printf("✓ Migrations %s complete\n", direction)
			return nil
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "Revert the most recent migration")
	return cmd
}
