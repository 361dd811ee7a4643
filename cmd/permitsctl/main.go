package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SscSPs/water_permits_app/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "permitsctl",
		Short: "Operations tool for the water permits backend",
		Long: `permitsctl runs maintenance tasks against the water permits database:
schema migrations and account provisioning.`,
	}

	rootCmd.AddCommand(cli.MigrateCmd())
	rootCmd.AddCommand(cli.CreateUserCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
