package commands

import (
	"context"
	"encoding/json"
	"os"

	"github.com/picklesmaker/pickles/cmd/pickles/output"
	"github.com/picklesmaker/pickles/internal/app"
	"github.com/picklesmaker/pickles/internal/cache"
)

// withRuntime opens the configured database, runs fn and closes it again.
func withRuntime(ctx context.Context, fn func(rt *app.Runtime) error) error {
	rt, err := app.Open(ctx, appConfig())
	if err != nil {
		return err
	}
	defer func() {
		if errClose := rt.Close(); errClose != nil {
			output.Warning("close database: %v", errClose)
		}
	}()
	return fn(rt)
}

// invalidateReports drops cached reports after a bulk catalog change.
func invalidateReports(ctx context.Context, rt *app.Runtime) {
	reports := cache.New(rt.Config.Redis)
	defer func() { _ = reports.Close() }()
	if err := reports.Invalidate(ctx); err != nil {
		output.Warning("could not invalidate report cache: %v", err)
	}
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
