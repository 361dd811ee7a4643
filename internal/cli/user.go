package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SscSPs/water_permits_app/internal/core/domain"
	"github.com/SscSPs/water_permits_app/internal/core/services"
	"github.com/SscSPs/water_permits_app/internal/dto"
	"github.com/SscSPs/water_permits_app/internal/platform/config"
	"github.com/SscSPs/water_permits_app/internal/repositories/database/pgsql"
	"github.com/SscSPs/water_permits_app/pkg/database"
)

// CreateUserCmd returns the create-user command
func CreateUserCmd() *cobra.Command {
	var req dto.CreateUserRequest
	var role string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Provision a user account",
		Long: `Create a user directly in the database. Use it to bootstrap the first ICT account,
which can then create every other user through the API.

Roles: permitting_officer, chairperson, catchment_manager, catchment_chairperson,
permit_supervisor, ict`,
		Example: `  permitsctl create-user --username ict --name "ICT Admin" --role ict --password 's3cret-pass'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.StorageDriver != config.StorageDriverPostgres {
				return fmt.Errorf("create-user needs STORAGE_DRIVER=%s", config.StorageDriverPostgres)
			}

			pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, true)
			if err != nil {
				return err
			}
			defer database.ClosePgxPool(pool)

			req.Role = domain.UserRole(role)
			users := services.NewUserService(pgsql.NewRepositoryProvider(pool).UserRepo)
			user, err := users.CreateUser(ctx, req, "permitsctl")
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			fmt.Printf("✓ Created user %s (%s) as %s\n", user.Username, user.UserID, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Username, "username", "", "Login name (required)")
	cmd.Flags().StringVar(&req.Name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&role, "role", "", "Role (required)")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password, at least 8 characters (required)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("role")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
