package commands

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/picklesmaker/pickles/cmd/pickles/output"
	"github.com/picklesmaker/pickles/internal/app"
	"github.com/spf13/cobra"
)

var restoreClear bool

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create, list and restore catalog backups",
	Long: `Catalog backups are JSON snapshots of every brand, model, series, year,
package, generation, content group, content item and rule.

Subcommands:
  create   - Write a new backup (and upload it when S3 is configured)
  list     - Show backups, newest first
  restore  - Load a backup into the database`,
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Write a new backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withRuntime(ctx, func(rt *app.Runtime) error {
			manager, err := app.BackupManager(ctx, rt)
			if err != nil {
				return err
			}
			info, err := manager.Create(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(info)
			}
			output.Success("Backup written to %s", info.Path)
			output.KeyValue("Objects", info.Objects)
			output.KeyValue("Size", output.HumanSize(info.Size))
			if info.RemoteURI != "" {
				output.KeyValue("Uploaded to", info.RemoteURI)
			}
			return nil
		})
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withRuntime(ctx, func(rt *app.Runtime) error {
			manager, err := app.BackupManager(ctx, rt)
			if err != nil {
				return err
			}
			infos, err := manager.List()
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(infos)
			}
			if len(infos) == 0 {
				output.Info("No backups in %s", manager.Dir())
				return nil
			}
			output.Section("Backups in " + manager.Dir())
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED")
			for _, info := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\n", info.Name, output.HumanSize(info.Size), info.ModifiedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		})
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <name>",
	Short: "Load a backup into the database",
	Long: `Load a backup into the database in one transaction. Rows with the same id
are overwritten; --clear empties the catalog first. Without --clear the
restore is refused when a snapshot row shares a name or rule filter with a
different existing row.

Examples:
  pickles backup restore backup_20250921_155700.json.gz
  pickles backup restore backup_20250921_155700.json.gz --clear`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withRuntime(ctx, func(rt *app.Runtime) error {
			manager, err := app.BackupManager(ctx, rt)
			if err != nil {
				return err
			}
			result, err := manager.Restore(ctx, args[0], restoreClear)
			if err != nil {
				return err
			}
			invalidateReports(ctx, rt)
			if jsonOutput {
				return printJSON(result)
			}
			output.Success("Restored %s (taken %s)", args[0], result.SnapshotCreatedAt.Format("2006-01-02 15:04:05"))
			if result.Cleared {
				output.Warning("Existing catalog data was cleared first")
			}
			if result.NormalizedLegacy > 0 {
				output.Info("Normalized %d legacy placements", result.NormalizedLegacy)
			}
			keys := make([]string, 0, len(result.Counts))
			for k := range result.Counts {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				output.KeyValue(k, result.Counts[k])
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd)

	backupRestoreCmd.Flags().BoolVar(&restoreClear, "clear", false, "Delete all catalog data before restoring")
}
