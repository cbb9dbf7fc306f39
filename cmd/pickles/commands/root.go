package commands

import (
	"fmt"
	"os"

	"github.com/picklesmaker/pickles/internal/buildinfo"
	"github.com/picklesmaker/pickles/internal/config"
	"github.com/spf13/cobra"
)

var (
	configPath string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "pickles",
	Short: "Pickles - vehicle marketing copy configurator",
	Long: `Pickles assembles character-limited marketing copy for a vehicle selection
(brand, model, year, package) from a catalog of rules and content items.

Commands:
  serve     - Run the maker and admin HTTP APIs
  migrate   - Create or update the database schema
  backup    - Create, list and restore catalog backups
  seed      - Load the demo catalog
  settings  - Show and change runtime settings
  admin     - Manage staff accounts`,
	Version:       buildinfo.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config.yaml (default: $WRITABLE_PATH/config.yaml or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// appConfig returns the command-line level settings.
func appConfig() config.AppConfig {
	return config.AppConfig{ConfigPath: configPath}
}
