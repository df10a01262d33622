package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Container == nil {
			return fmt.Errorf("app not initialized")
		}
		conn := app.Container.DBConn

		if err := migrations.Up(cmd.Context(), conn, app.Container.Logger); err != nil {
			return err
		}
		version, err := migrations.Version(cmd.Context(), conn)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s schema at version %d\n", conn.Driver(), version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
