package commands

import (
	"errors"
	"os"
	"strings"

	"github.com/picklesmaker/pickles/cmd/pickles/output"
	"github.com/picklesmaker/pickles/internal/app"
	"github.com/spf13/cobra"
)

// adminPasswordEnv supplies the password when --password is omitted.
const adminPasswordEnv = "PICKLES_ADMIN_PASSWORD"

var (
	adminUsername string
	adminPassword string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage staff accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a staff account for the admin API",
	Long: `Create an active staff account. The password comes from --password or,
when omitted, from the PICKLES_ADMIN_PASSWORD environment variable.

Examples:
  pickles admin create --username editor --password 'correct horse'
  PICKLES_ADMIN_PASSWORD=... pickles admin create --username editor`,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := adminPassword
		if password == "" {
			password = strings.TrimSpace(os.Getenv(adminPasswordEnv))
		}
		if password == "" {
			return errors.New("a password is required (--password or " + adminPasswordEnv + ")")
		}

		ctx := cmd.Context()
		return withRuntime(ctx, func(rt *app.Runtime) error {
			admin, err := app.CreateAdmin(ctx, rt.DB, app.CreateAdminParams{Username: adminUsername, Password: password})
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(map[string]any{"id": admin.ID, "username": admin.Username})
			}
			output.Success("Created admin %q (id %d)", admin.Username, admin.ID)
			output.Muted("Sign in with POST /v0/admin/login")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminCreateCmd)

	adminCreateCmd.Flags().StringVarP(&adminUsername, "username", "u", "", "Login name")
	adminCreateCmd.Flags().StringVarP(&adminPassword, "password", "p", "", "Password (at least 8 characters)")
	_ = adminCreateCmd.MarkFlagRequired("username")
}
