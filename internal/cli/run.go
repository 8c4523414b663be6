package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/espalier/internal/presentation/tui"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/runs"
)

// OutputOptions selects how reports are printed.
type OutputOptions struct {
	JSON  bool
	Quiet bool
}

type reportJSON struct {
	RequestID string            `json:"request_id"`
	Topic     string            `json:"topic"`
	Result    domain.Projection `json:"result"`
	Error     string            `json:"error,omitempty"`
	Step      string            `json:"failed_step,omitempty"`
}

// Research runs one topic and prints the report. A failed run still prints
// the partial report before the error is returned.
func Research(ctx context.Context, app *App, rawTopic string, out io.Writer, opts OutputOptions) error {
	topic, err := domain.SanitizeTopic(rawTopic, app.Config.Server.MaxTopicLength)
	if err != nil {
		return fmt.Errorf("invalid topic: %w", err)
	}

	if !opts.Quiet && !opts.JSON {
		printSystemMessage(out, "Researching %q...", topic)
	}
	report, runErr := app.Service.Research(ctx, topic)
	return printReport(out, report, runErr, opts)
}

// Resume continues a persisted run and prints the outcome.
func Resume(ctx context.Context, app *App, requestID string, out io.Writer, opts OutputOptions) error {
	if app.Runs == nil {
		return errNoStore
	}
	if !opts.Quiet && !opts.JSON {
		printSystemMessage(out, "Resuming run '%s'...", requestID)
	}

	report, err := app.Runs.Resume(ctx, requestID, app.Service)
	if errors.Is(err, runs.ErrRunCompleted) || errors.Is(err, domain.ErrRunNotFound) || errors.Is(err, runs.ErrSealed) {
		return err
	}
	return printReport(out, report, err, opts)
}

func printReport(out io.Writer, report *domain.Report, runErr error, opts OutputOptions) error {
	if report == nil {
		return runErr
	}

	if opts.JSON {
		body := reportJSON{
			RequestID: report.RequestID,
			Topic:     report.Result.Topic,
			Result:    report.Result,
		}
		if runErr != nil {
			body.Error = runErr.Error()
			body.Step = report.State.CurrentStep
		}
		if err := writeJSON(out, body); err != nil {
			return err
		}
		return runErr
	}

	if err := tui.NewRenderer(out).Print(tui.ReportMarkdown(report)); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("run %s failed: %w", report.RequestID, runErr)
	}
	return nil
}
