package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/picklesmaker/pickles/cmd/pickles/output"
	"github.com/picklesmaker/pickles/internal/app"
	"github.com/picklesmaker/pickles/internal/content"
	"github.com/picklesmaker/pickles/internal/settings"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show and change runtime settings",
	Long: `Runtime settings override the content limits and display options from
config.yaml without a restart. Keys:

  ` + strings.Join(settings.KnownKeys(), "\n  "),
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored settings and the effective content limits",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd.Context(), func(rt *app.Runtime) error {
			stored := settings.DBConfigValues()
			effective := settings.ContentOptions(rt.Config.ContentOptions())
			if jsonOutput {
				limits := make(map[content.Category]int, len(content.Categories))
				for _, category := range content.Categories {
					limits[category] = effective.Limit(category)
				}
				return printJSON(map[string]any{"stored": stored, "limits": limits, "separator": effective.Separator})
			}

			output.Section("Stored")
			if len(stored) == 0 {
				output.Muted("none, config.yaml values apply")
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, key := range settings.KnownKeys() {
				if raw, ok := stored[key]; ok {
					fmt.Fprintf(w, "%s\t%s\n", key, string(raw))
				}
			}
			if errFlush := w.Flush(); errFlush != nil {
				return errFlush
			}

			output.Section("Effective limits")
			for _, category := range content.Categories {
				output.KeyValue(string(category), effective.Limit(category))
			}
			output.KeyValue("separator", fmt.Sprintf("%q", effective.Separator))
			return nil
		})
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a setting",
	Long: `Store a setting. The value is used as JSON when it parses, otherwise as a
string.

Examples:
  pickles settings set CONTENT_LIMIT_INTERIOR 400
  pickles settings set SITE_NAME "Dealer Copy"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToUpper(strings.TrimSpace(args[0]))
		if !settings.IsKnownKey(key) {
			return fmt.Errorf("unknown setting %q", key)
		}
		value := settingValue(args[1])
		if !settings.ValidValue(key, value) {
			return fmt.Errorf("invalid value %s for %s", string(value), key)
		}

		ctx := cmd.Context()
		return withRuntime(ctx, func(rt *app.Runtime) error {
			if err := settings.Upsert(ctx, rt.DB, key, value, ""); err != nil {
				return err
			}
			invalidateReports(ctx, rt)
			output.Success("%s = %s", key, string(value))
			return nil
		})
	},
}

var settingsUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a setting, restoring the config.yaml value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToUpper(strings.TrimSpace(args[0]))
		if !settings.IsKnownKey(key) {
			return fmt.Errorf("unknown setting %q", key)
		}
		ctx := cmd.Context()
		return withRuntime(ctx, func(rt *app.Runtime) error {
			if err := settings.Delete(ctx, rt.DB, key); err != nil {
				return err
			}
			invalidateReports(ctx, rt)
			output.Success("Removed %s", key)
			return nil
		})
	},
}

// settingValue reads a command-line argument as JSON, quoting it when it
// is not valid JSON on its own.
func settingValue(arg string) json.RawMessage {
	if json.Valid([]byte(arg)) {
		return json.RawMessage(arg)
	}
	quoted, _ := json.Marshal(arg)
	return quoted
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsListCmd, settingsSetCmd, settingsUnsetCmd)
}
