package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/roach88/gzparity/internal/compare"
	"github.com/roach88/gzparity/internal/invoke"
	"github.com/roach88/gzparity/internal/registry"
	"github.com/roach88/gzparity/internal/snapshot"
	"github.com/roach88/gzparity/internal/workspace"
)

// Runner executes cases against a reference and a candidate executable.
// Configure the fields before the first Run call; the runner itself
// holds no per-run state.
type Runner struct {
	// Reference is the path of the trusted implementation.
	Reference string

	// Candidate is the path of the implementation under test.
	Candidate string

	// Fixtures is the directory input fixtures are read from. May be
	// empty when no case declares an input.
	Fixtures string

	// Results is the directory failed-case evidence is preserved under.
	// Empty disables preservation.
	Results string

	// Invoker runs the child processes. Tests substitute a scripted
	// implementation.
	Invoker invoke.Runner

	// Workspaces allocates the per-case scratch directories.
	Workspaces *workspace.Manager

	// Parallel is the number of cases in flight at once. Values below 1
	// mean sequential execution. Cases are isolated by construction, so
	// parallel runs observe the same verdicts as sequential ones.
	Parallel int

	// OnResult, when set, is called once per completed case, serialized,
	// in completion order.
	OnResult func(CaseResult)

	// Logger receives debug-level progress. Nil discards.
	Logger *slog.Logger
}

// Run executes the cases and aggregates their results. The returned
// summary keeps registry order. A non-nil error means the run was
// aborted: a harness-fatal invocation error or operator cancellation.
// The summary still carries every result recorded before the abort.
func (r *Runner) Run(ctx context.Context, cases []registry.Case) (*Summary, error) {
	summary := &Summary{
		Reference: r.Reference,
		Candidate: r.Candidate,
		StartedAt: time.Now(),
	}

	workers := r.Parallel
	if workers < 1 {
		workers = 1
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		fatal   error
		results = make([]*CaseResult, len(cases))
		sem     = make(chan struct{}, workers)
	)

	for i, c := range cases {
		if runCtx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, c registry.Case) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := r.runCase(runCtx, c)
			if err != nil {
				// Cancellation fallout from an abort already in progress
				// is not itself the fatal error.
				if !errors.Is(err, context.Canceled) {
					mu.Lock()
					if fatal == nil {
						fatal = fmt.Errorf("case %s: %w", c.Name, err)
					}
					mu.Unlock()
				}
				cancel()
				return
			}

			mu.Lock()
			results[i] = &result
			if r.OnResult != nil {
				r.OnResult(result)
			}
			mu.Unlock()
		}(i, c)
	}
	wg.Wait()

	for _, res := range results {
		if res != nil {
			summary.Results = append(summary.Results, *res)
		}
	}
	summary.Duration = time.Since(summary.StartedAt)

	if fatal != nil {
		return summary, fatal
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// sideEvidence bundles everything observed from one implementation's run.
type sideEvidence struct {
	Obs     compare.Observation
	Outcome invoke.Outcome
	Changes snapshot.Changes
	Ws      *workspace.Workspace
}

// runCase runs one case end to end. Setup failures are recorded as a
// skipped result with a nil error; a non-nil error aborts the whole run.
func (r *Runner) runCase(ctx context.Context, c registry.Case) (CaseResult, error) {
	start := time.Now()
	result := CaseResult{Name: c.Name, Description: c.Description}
	log := r.logger().With("case", c.Name)

	refWs, err := r.prepare(c, "ref")
	if err != nil {
		return r.skip(result, start, err)
	}
	candWs, err := r.prepare(c, "cand")
	if err != nil {
		refWs.Release()
		return r.skip(result, start, err)
	}
	release := func() {
		refWs.Release()
		candWs.Release()
	}

	log.Debug("workspaces prepared", "reference", refWs.Dir, "candidate", candWs.Dir)

	ref, err := r.observe(ctx, c, refWs, r.Reference)
	if err != nil {
		release()
		return result, err
	}
	cand, err := r.observe(ctx, c, candWs, r.Candidate)
	if err != nil {
		release()
		return result, err
	}

	verdict := compare.Compare(ref.Obs, cand.Obs, c.ComparePolicy())
	result.Verdict = verdict
	result.RefChanges = ref.Changes
	result.CandChanges = cand.Changes

	if verdict.Match() {
		result.Status = StatusPass
		log.Debug("case passed", "duration", time.Since(start))
	} else {
		result.Status = StatusFail
		log.Debug("case failed", "differences", len(verdict.Diffs))
		if r.Results != "" {
			dir, err := preserveArtifacts(r.Results, c, ref, cand, verdict)
			if err != nil {
				release()
				return result, fmt.Errorf("failed to preserve evidence: %w", err)
			}
			result.ArtifactDir = dir
		}
	}

	release()
	result.Duration = time.Since(start)
	return result, nil
}

// prepare acquires a workspace and materializes the case's environment
// in it. Both sides go through the same path, so the two workspaces are
// identical at invocation time.
func (r *Runner) prepare(c registry.Case, side string) (*workspace.Workspace, error) {
	ws, err := r.Workspaces.Acquire(c.Name + "-" + side)
	if err != nil {
		return nil, &SetupError{Stage: "workspace", Err: err}
	}
	if err := r.populate(ws, c); err != nil {
		ws.Release()
		return nil, err
	}
	return ws, nil
}

func (r *Runner) populate(ws *workspace.Workspace, c registry.Case) error {
	if c.Input != "" {
		if r.Fixtures == "" {
			return &SetupError{
				Stage: "fixture",
				Err:   fmt.Errorf("case needs fixture %s but no fixtures directory was given", c.Input),
			}
		}
		data, err := os.ReadFile(filepath.Join(r.Fixtures, c.Input))
		if err != nil {
			return &SetupError{Stage: "fixture", Err: err}
		}
		if err := ws.WriteFile(c.Input, data); err != nil {
			return &SetupError{Stage: "fixture", Err: err}
		}
	}

	for _, pre := range c.Pre {
		if pre.Dir {
			if err := os.MkdirAll(ws.Path(pre.Path), 0o755); err != nil {
				return &SetupError{Stage: "precondition", Err: err}
			}
			continue
		}
		if err := ws.WriteFile(pre.Path, []byte(pre.Content)); err != nil {
			return &SetupError{Stage: "precondition", Err: err}
		}
	}
	return nil
}

// observe invokes one executable in its workspace and captures the file
// state around it. Snapshots cover the case's declared paths only, so
// the comparison stays deterministic; a case declaring nothing gets a
// whole-workspace capture instead.
func (r *Runner) observe(ctx context.Context, c registry.Case, ws *workspace.Workspace, exe string) (sideEvidence, error) {
	tracked := c.TrackedPaths()

	before, err := snapshot.Capture(ws.Dir, tracked...)
	if err != nil {
		return sideEvidence{}, fmt.Errorf("pre-invocation snapshot: %w", err)
	}

	outcome, err := r.Invoker.Run(ctx, invoke.Invocation{
		Path:  exe,
		Args:  c.Args,
		Dir:   ws.Dir,
		Stdin: []byte(c.Stdin),
	})
	if err != nil {
		return sideEvidence{}, err
	}

	after, err := snapshot.Capture(ws.Dir, tracked...)
	if err != nil {
		return sideEvidence{}, fmt.Errorf("post-invocation snapshot: %w", err)
	}

	output, outputPresent := after.Content(c.OutputName())
	return sideEvidence{
		Outcome: outcome,
		Changes: snapshot.Diff(before, after),
		Ws:      ws,
		Obs: compare.Observation{
			ExitCode:      outcome.ExitCode,
			Stdout:        outcome.Stdout,
			Stderr:        outcome.Stderr,
			OutputPresent: outputPresent,
			Output:        output,
			InputPresent:  c.Input != "" && after.Has(c.Input),
		},
	}, nil
}

func (r *Runner) skip(result CaseResult, start time.Time, err error) (CaseResult, error) {
	result.Status = StatusSkip
	result.SkipReason = err.Error()
	result.Duration = time.Since(start)
	r.logger().Warn("case skipped", "case", result.Name, "reason", result.SkipReason)
	return result, nil
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
