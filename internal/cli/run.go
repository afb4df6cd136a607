package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/gzparity/internal/history"
	"github.com/roach88/gzparity/internal/invoke"
	"github.com/roach88/gzparity/internal/registry"
	"github.com/roach88/gzparity/internal/report"
	"github.com/roach88/gzparity/internal/runner"
	"github.com/roach88/gzparity/internal/workspace"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Reference      string
	Candidate      string
	Suite          string
	Fixtures       string
	Sweep          bool
	Filter         string
	Results        string
	Database       string
	Timeout        time.Duration
	Parallel       int
	KeepWorkspaces bool

	// Invoker allows overriding the process runner (for testing).
	// If nil, defaults to an OS invoker with the configured timeout.
	Invoker invoke.Runner
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the case catalog against both implementations",
		Long: `Run every case against the reference and the candidate.

Each case gets two fresh workspaces, one per implementation. Both
tools run with identical arguments and stdin, then stdout, stderr,
exit status, and workspace file changes are compared byte for byte.
Volatile gzip header bytes (MTIME, OS) are masked before comparing.

Evidence for every diverging case is preserved under the results
directory: both streams, both workspaces, and a verdict file.

Exit codes:
  0 - All executed cases agreed
  1 - One or more cases diverged
  2 - Command error (missing executable, aborted run, etc.)

Examples:
  gzparity run --reference /bin/gzip --candidate ./mygzip
  gzparity run --reference gzip --candidate ./mygzip --fixtures ./corpus --sweep
  gzparity run --reference gzip --candidate ./mygzip --filter "level-*"
  gzparity run --reference gzip --candidate ./mygzip --db runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParity(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Reference, "reference", "", "path to the trusted implementation (required)")
	_ = cmd.MarkFlagRequired("reference")
	cmd.Flags().StringVar(&opts.Candidate, "candidate", "", "path to the implementation under test (required)")
	_ = cmd.MarkFlagRequired("candidate")
	cmd.Flags().StringVar(&opts.Suite, "suite", "", "YAML suite file replacing the built-in catalog")
	cmd.Flags().StringVar(&opts.Fixtures, "fixtures", "", "directory input fixtures are read from")
	cmd.Flags().BoolVar(&opts.Sweep, "sweep", false, "append a compression case per fixture file")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter cases by glob pattern")
	cmd.Flags().StringVar(&opts.Results, "results", "results", "directory diverging-case evidence is preserved under")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "per-invocation timeout")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 1, "cases in flight at once")
	cmd.Flags().BoolVar(&opts.KeepWorkspaces, "keep-workspaces", false, "keep per-case workspaces for inspection")

	return cmd
}

func runParity(opts *RunOptions, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	reference, err := resolveTool(opts.Reference)
	if err != nil {
		_ = formatter.Error(ErrCodeToolMissing, fmt.Sprintf("reference not runnable: %v", err), nil)
		return WrapExitError(ExitCommandError, "reference not runnable", err)
	}
	candidate, err := resolveTool(opts.Candidate)
	if err != nil {
		_ = formatter.Error(ErrCodeToolMissing, fmt.Sprintf("candidate not runnable: %v", err), nil)
		return WrapExitError(ExitCommandError, "candidate not runnable", err)
	}

	cases, err := assembleCases(opts, formatter)
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		if opts.Format == "json" {
			return formatter.Success(report.NewPayload(&runner.Summary{
				Reference: reference,
				Candidate: candidate,
				StartedAt: time.Now(),
			}))
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No cases selected.")
		return nil
	}

	workspaces, err := workspace.NewManager("")
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("failed to create workspace root: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to create workspace root", err)
	}
	workspaces.Preserve = opts.KeepWorkspaces
	defer func() {
		if closeErr := workspaces.Close(); closeErr != nil {
			slog.Error("error removing workspaces", "error", closeErr)
		}
	}()

	invoker := opts.Invoker
	if invoker == nil {
		invoker = &invoke.OSInvoker{Timeout: opts.Timeout}
	}

	r := &runner.Runner{
		Reference:  reference,
		Candidate:  candidate,
		Fixtures:   opts.Fixtures,
		Results:    opts.Results,
		Invoker:    invoker,
		Workspaces: workspaces,
		Parallel:   opts.Parallel,
		Logger:     logger,
	}

	// Live per-case lines in text mode only. JSON output is a single
	// document at the end.
	if opts.Format != "json" {
		out := cmd.OutOrStdout()
		r.OnResult = func(res runner.CaseResult) {
			for _, line := range report.CaseLines(res) {
				fmt.Fprintln(out, line)
			}
		}
	}

	// Setup signal handling for clean shutdown. Use the command's
	// context if available (for testing), otherwise create one.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping run", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("run starting",
		"reference", reference, "candidate", candidate, "cases", len(cases))

	summary, runErr := r.Run(ctx, cases)
	if runErr != nil {
		code, msg := ErrCodeRunAborted, "run aborted"
		if errors.Is(runErr, context.Canceled) {
			code, msg = ErrCodeInterrupted, "run interrupted"
		}
		if opts.Format == "json" {
			_ = formatter.Error(code, fmt.Sprintf("%s: %v", msg, runErr), nil)
		}
		return WrapExitError(ExitCommandError, msg, runErr)
	}

	var runID string
	if opts.Database != "" {
		runID, err = recordRun(ctx, opts.Database, summary)
		if err != nil {
			if opts.Format == "json" {
				_ = formatter.Error(ErrCodeStore, fmt.Sprintf("failed to record run: %v", err), nil)
			}
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		slog.Info("run recorded", "id", runID)
	}

	if opts.KeepWorkspaces {
		slog.Info("workspaces preserved", "dir", workspaces.Root())
	}

	if opts.Format == "json" {
		return outputRunJSON(cmd, summary, runID)
	}
	return outputRunText(cmd, summary, runID)
}

// assembleCases builds the case list for one run: the built-in catalog
// or a suite file, plus swept fixtures, narrowed by the filter.
func assembleCases(opts *RunOptions, formatter *OutputFormatter) ([]registry.Case, error) {
	cases := registry.Builtin()

	if opts.Suite != "" {
		suite, err := registry.LoadSuite(opts.Suite)
		if err != nil {
			_ = formatter.Error(ErrCodeSuiteInvalid, fmt.Sprintf("failed to load suite: %v", err), nil)
			return nil, WrapExitError(ExitCommandError, "failed to load suite", err)
		}
		cases = suite.Cases
	}

	if opts.Sweep {
		if opts.Fixtures == "" {
			_ = formatter.Error(ErrCodeBadFlags, "--sweep requires --fixtures", nil)
			return nil, NewExitError(ExitCommandError, "--sweep requires --fixtures")
		}
		swept, err := registry.Sweep(opts.Fixtures)
		if err != nil {
			_ = formatter.Error(ErrCodeBadFlags, fmt.Sprintf("fixture sweep failed: %v", err), nil)
			return nil, WrapExitError(ExitCommandError, "fixture sweep failed", err)
		}
		cases = append(cases, swept...)
	}

	if opts.Filter != "" {
		filtered, err := registry.Filter(cases, opts.Filter)
		if err != nil {
			_ = formatter.Error(ErrCodeBadFlags, err.Error(), nil)
			return nil, WrapExitError(ExitCommandError, "invalid filter pattern", err)
		}
		cases = filtered
	}

	return cases, nil
}

// resolveTool resolves an executable the way the shell would and pins
// the result absolute, since cases run from per-case workspaces.
func resolveTool(path string) (string, error) {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(resolved)
}

// recordRun stores the summary in the run database.
func recordRun(ctx context.Context, path string, summary *runner.Summary) (string, error) {
	st, err := history.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing run database", "error", closeErr)
		}
	}()

	return st.RecordRun(ctx, summary)
}

// outputRunJSON outputs the run summary as JSON.
func outputRunJSON(cmd *cobra.Command, summary *runner.Summary, runID string) error {
	response := CLIResponse{
		Status: "ok",
		Data:   report.NewPayload(summary),
		RunID:  runID,
	}
	if summary.Failed() > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeDiverged,
			Message: fmt.Sprintf("%d case(s) diverged", summary.Failed()),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	return summaryExit(summary)
}

// outputRunText outputs the summary tail after the live per-case lines.
func outputRunText(cmd *cobra.Command, summary *runner.Summary, runID string) error {
	w := cmd.OutOrStdout()

	report.RenderTail(w, summary)
	if runID != "" {
		fmt.Fprintf(w, "Recorded as run %s\n", shortID(runID))
	}

	return summaryExit(summary)
}

// summaryExit maps a completed run onto the process exit contract.
// Divergence is exit 1. A run where every executed case agreed but
// some never ran still exits nonzero, with the command-error code, so
// a missing fixture cannot read as proven parity in a pipeline.
func summaryExit(summary *runner.Summary) error {
	if summary.Failed() > 0 {
		// Parity failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d case(s) diverged", summary.Failed()))
	}
	if summary.Skipped() > 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("%d case(s) skipped (setup failures)", summary.Skipped()))
	}
	return nil
}
