// Package invoke executes one tool as a child process and captures its
// observable behavior: exit status, raw stdout bytes, raw stderr bytes.
package invoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Invocation describes one child-process execution.
type Invocation struct {
	// Path is the executable to run.
	Path string

	// Args is the argument vector, passed through byte-identically.
	Args []string

	// Dir is the working directory. The invoked process may create,
	// overwrite, or delete files here; the invoker does not interpret
	// those effects.
	Dir string

	// Stdin is piped to the process. Empty means immediate EOF.
	Stdin []byte
}

// Outcome captures the result of one invocation. Stdout and Stderr are
// raw byte captures: compressed output streamed to stdout must not pass
// through any encoding transform.
type Outcome struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// Runner abstracts process execution so the harness can be driven with
// scripted outcomes in tests.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (Outcome, error)
}

// OSInvoker runs real child processes.
type OSInvoker struct {
	// Timeout bounds each invocation; the process is killed once it
	// elapses. Zero means no limit.
	Timeout time.Duration
}

// Run executes the invocation and waits for termination.
//
// A non-zero exit status is not an error: it is returned in the Outcome
// for comparison. Errors are reserved for harness-fatal conditions
// (FatalError: start failure, timeout) and for context cancellation.
func (o *OSInvoker) Run(ctx context.Context, inv Invocation) (Outcome, error) {
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)
	cmd.Dir = inv.Dir
	if len(inv.Stdin) > 0 {
		cmd.Stdin = bytes.NewReader(inv.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	outcome := Outcome{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	if err == nil {
		return outcome, nil
	}

	// A killed process also surfaces as an ExitError, so the context has
	// to be checked first to tell a timeout from a real exit status.
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return Outcome{}, &FatalError{
				Code:       ErrCodeTimeout,
				Message:    fmt.Sprintf("invocation exceeded %s and was killed", o.Timeout),
				Executable: inv.Path,
				Err:        ctxErr,
			}
		}
		// Operator cancellation; not a tool behavior.
		return Outcome{}, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		outcome.ExitCode = exitErr.ExitCode()
		return outcome, nil
	}

	return Outcome{}, &FatalError{
		Code:       ErrCodeStartFailed,
		Message:    "executable could not be started",
		Executable: inv.Path,
		Err:        err,
	}
}
