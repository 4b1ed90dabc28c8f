package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tversu/timing-bot/internal/infrastructure/persistence/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply, roll back or list database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, conn, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer conn.Close()

		n, err := postgres.NewMigrator(conn).Up(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("applied %d migration(s)", n)))
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the last applied migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, conn, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer conn.Close()

		version, err := postgres.NewMigrator(conn).Down(cmd.Context())
		if err != nil {
			return err
		}
		if version == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("nothing to roll back"))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("rolled back migration %d", version)))
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List migrations and whether they are applied",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, conn, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer conn.Close()

		status, err := postgres.NewMigrator(conn).Status(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), renderMigrations(status))
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}
