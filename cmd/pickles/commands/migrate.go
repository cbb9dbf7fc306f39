package commands

import (
	"github.com/picklesmaker/pickles/cmd/pickles/output"
	"github.com/picklesmaker/pickles/internal/app"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Migrate(cmd.Context(), appConfig()); err != nil {
			return err
		}
		output.Success("Database schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
