package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/picklesmaker/pickles/internal/app"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Run the public maker API (/v0/maker) and the admin API (/v0/admin).
The database is migrated on startup. SIGINT or SIGTERM stops the server gracefully.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
		defer stop()
		return app.RunServer(ctx, appConfig())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
