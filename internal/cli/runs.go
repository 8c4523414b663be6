package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/espalier/internal/presentation/tui"
)

var errNoStore = errors.New("no snapshot store configured (store.backend is \"none\")")

// ListRuns prints the stored run IDs.
func ListRuns(ctx context.Context, app *App, out io.Writer, opts OutputOptions) error {
	if app.Runs == nil {
		return errNoStore
	}
	ids, err := app.Runs.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if opts.JSON {
		if ids == nil {
			ids = []string{}
		}
		return writeJSON(out, map[string]any{"runs": ids})
	}
	if len(ids) == 0 {
		fmt.Fprintln(out, "No stored runs found.")
		return nil
	}
	fmt.Fprintln(out, "Stored runs:")
	for _, id := range ids {
		fmt.Fprintln(out, "- "+id)
	}
	return nil
}

// InspectRun prints one stored run.
func InspectRun(ctx context.Context, app *App, requestID string, out io.Writer, opts OutputOptions) error {
	if app.Runs == nil {
		return errNoStore
	}
	snap, err := app.Runs.Load(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to load run '%s': %w", requestID, err)
	}
	if opts.JSON {
		return writeJSON(out, snap)
	}
	return tui.NewRenderer(out).Print(tui.SnapshotMarkdown(snap))
}

// RemoveRuns deletes every listed run, reporting each failure. The returned
// error is non-nil when at least one removal failed.
func RemoveRuns(ctx context.Context, app *App, ids []string, out io.Writer) error {
	if app.Runs == nil {
		return errNoStore
	}
	var errs []error
	for _, id := range ids {
		if err := app.Runs.Delete(ctx, id); err != nil {
			fmt.Fprintf(out, "Error removing '%s': %v\n", id, err)
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(out, "Removed run '%s'\n", id)
	}
	return errors.Join(errs...)
}
