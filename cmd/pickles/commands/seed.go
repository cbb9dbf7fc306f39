package commands

import (
	"errors"
	"strings"

	"github.com/picklesmaker/pickles/cmd/pickles/output"
	"github.com/picklesmaker/pickles/internal/app"
	"github.com/picklesmaker/pickles/internal/demo"
	"github.com/spf13/cobra"
)

var (
	seedClear   bool
	seedSummary bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo catalog",
	Long: `Load a small demo catalog (BMW i4, Audi A4) with packages, groups and rules.
Seeding refuses to touch a non-empty catalog unless --clear is given.

Examples:
  pickles seed
  pickles seed --clear --summary`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withRuntime(ctx, func(rt *app.Runtime) error {
			if err := demo.Seed(ctx, rt.DB, seedClear); err != nil {
				if errors.Is(err, demo.ErrNotEmpty) {
					output.Error("The catalog already has data; rerun with --clear to replace it")
				}
				return err
			}
			invalidateReports(ctx, rt)
			output.Success("Demo catalog loaded")
			if !seedSummary {
				return nil
			}

			summary, err := demo.Summarize(ctx, rt.DB)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(summary)
			}
			output.Section("Brands")
			for _, b := range summary.Brands {
				output.KeyValue(b.Name, strings.Join(b.Models, ", "))
			}
			output.Section("Content groups")
			for _, g := range summary.Groups {
				output.KeyValue(g.Name, fmtGroup(g))
			}
			output.Section("Placements")
			for _, placement := range []string{"interior", "exterior", "highlights", "options"} {
				output.KeyValue(placement, summary.Placements[placement])
			}
			return nil
		})
	},
}

func fmtGroup(g demo.GroupSummary) string {
	return strings.Join([]string{
		output.Plural(g.Members, "member"),
		"max " + output.Plural(int64(g.MaxItems), "item"),
	}, ", ")
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().BoolVar(&seedClear, "clear", false, "Delete existing catalog data first")
	seedCmd.Flags().BoolVar(&seedSummary, "summary", false, "Print what was loaded")
}
