package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/gzparity/internal/history"
	"github.com/roach88/gzparity/internal/report"
)

// HistoryOptions holds flags shared by the history subcommands.
type HistoryOptions struct {
	*RootOptions
	Database string
}

// RunInfo describes one recorded run in a listing.
type RunInfo struct {
	ID         string    `json:"id"`
	Reference  string    `json:"reference"`
	Candidate  string    `json:"candidate"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Total      int       `json:"total"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
}

// HistoryResult holds the run listing.
type HistoryResult struct {
	Runs  []RunInfo `json:"runs"`
	Total int       `json:"total"`
}

// NewHistoryCommand creates the history command group.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded runs",
		Long: `Inspect runs recorded with the run command's --db flag.

Verdicts stay queryable after workspaces and evidence directories
are cleaned up: every diverging channel is stored with the run.

Examples:
  gzparity history list --db runs.db
  gzparity history show a1b2c3d4 --db runs.db
  gzparity history show a1b2c3d4 --db runs.db --format json`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the run database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newHistoryListCommand(opts))
	cmd.AddCommand(newHistoryShowCommand(opts))

	return cmd
}

func newHistoryListCommand(opts *HistoryOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List recorded runs, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(opts, limit, cmd)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")

	return cmd
}

func newHistoryShowCommand(opts *HistoryOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <run-id>",
		Short:         "Show one recorded run with its verdicts",
		Long:          "Show a recorded run. The run ID may be any unique prefix.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(opts, args[0], cmd)
		},
	}

	return cmd
}

// openHistory opens an existing run database. Reads must not create
// an empty database as a side effect, so the path is checked first.
func openHistory(path string) (*history.Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("run database not found: %s", path))
	}

	st, err := history.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open run database", err)
	}
	return st, nil
}

func runHistoryList(opts *HistoryOptions, limit int, cmd *cobra.Command) error {
	st, err := openHistory(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.ListRuns(context.Background(), limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	result := HistoryResult{
		Runs:  make([]RunInfo, 0, len(records)),
		Total: len(records),
	}
	for _, rec := range records {
		result.Runs = append(result.Runs, RunInfo{
			ID:         rec.ID,
			Reference:  rec.Reference,
			Candidate:  rec.Candidate,
			StartedAt:  rec.StartedAt,
			DurationMS: rec.Duration.Milliseconds(),
			Total:      rec.Total,
			Passed:     rec.Passed,
			Failed:     rec.Failed,
			Skipped:    rec.Skipped,
		})
	}

	if opts.Format == "json" {
		return outputHistoryJSON(cmd, result)
	}
	return outputHistoryText(cmd, result)
}

func runHistoryShow(opts *HistoryOptions, id string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := openHistory(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()

	rec, err := st.GetRun(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, history.ErrRunNotFound):
			if opts.Format == "json" {
				_ = formatter.Error(ErrCodeRunNotFound, fmt.Sprintf("run not found: %s", id), nil)
			}
			return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", id))
		case errors.Is(err, history.ErrAmbiguousRunID):
			if opts.Format == "json" {
				_ = formatter.Error(ErrCodeRunNotFound, fmt.Sprintf("run id %q matches more than one run", id), nil)
			}
			return NewExitError(ExitCommandError, fmt.Sprintf("run id %q matches more than one run", id))
		}
		return WrapExitError(ExitCommandError, "failed to look up run", err)
	}

	summary, err := st.Summary(ctx, rec.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load run", err)
	}

	if opts.Format == "json" {
		response := CLIResponse{
			Status: "ok",
			Data:   report.NewPayload(summary),
			RunID:  rec.ID,
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(response)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run %s (recorded %s)\n", rec.ID, rec.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Reference: %s\n", rec.Reference)
	fmt.Fprintf(w, "Candidate: %s\n", rec.Candidate)
	fmt.Fprintln(w)
	report.Render(w, summary)
	return nil
}

// outputHistoryJSON outputs the run listing as JSON.
func outputHistoryJSON(cmd *cobra.Command, result HistoryResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputHistoryText outputs the run listing as text.
func outputHistoryText(cmd *cobra.Command, result HistoryResult) error {
	w := cmd.OutOrStdout()

	if result.Total == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return nil
	}

	for _, run := range result.Runs {
		fmt.Fprintf(w, "%s  %s  passed %d/%d", shortID(run.ID),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Passed, run.Passed+run.Failed)
		if run.Failed > 0 {
			fmt.Fprintf(w, " (%d diverged)", run.Failed)
		}
		if run.Skipped > 0 {
			fmt.Fprintf(w, " (%d skipped)", run.Skipped)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "          %s vs %s\n", run.Reference, run.Candidate)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d run(s)\n", result.Total)
	return nil
}

// shortID truncates a run ID for display. Any unique prefix works for
// history show, so the first UUID group is enough to act on.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
