package invoke

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSInvoker_CapturesStreamsAndExitZero(t *testing.T) {
	inv := Invocation{
		Path: "/bin/sh",
		Args: []string{"-c", "printf out; printf err >&2"},
		Dir:  t.TempDir(),
	}

	outcome, err := (&OSInvoker{}).Run(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.ExitCode)
	assert.Equal(t, []byte("out"), outcome.Stdout)
	assert.Equal(t, []byte("err"), outcome.Stderr)
}

func TestOSInvoker_NonZeroExitIsNotAnError(t *testing.T) {
	inv := Invocation{
		Path: "/bin/sh",
		Args: []string{"-c", "exit 3"},
		Dir:  t.TempDir(),
	}

	outcome, err := (&OSInvoker{}).Run(context.Background(), inv)
	require.NoError(t, err, "a failing tool is a comparable outcome, not a harness error")
	assert.Equal(t, 3, outcome.ExitCode)
}

func TestOSInvoker_StdinPipedThrough(t *testing.T) {
	inv := Invocation{
		Path:  "/bin/sh",
		Args:  []string{"-c", "cat"},
		Dir:   t.TempDir(),
		Stdin: []byte("piped input"),
	}

	outcome, err := (&OSInvoker{}).Run(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, []byte("piped input"), outcome.Stdout)
}

func TestOSInvoker_BinarySafeCapture(t *testing.T) {
	// Raw gzip magic bytes through stdout must survive untouched.
	inv := Invocation{
		Path: "/bin/sh",
		Args: []string{"-c", `printf '\037\213\010\000'`},
		Dir:  t.TempDir(),
	}

	outcome, err := (&OSInvoker{}).Run(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1f, 0x8b, 0x08, 0x00}, outcome.Stdout)
}

func TestOSInvoker_RunsInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	inv := Invocation{
		Path: "/bin/sh",
		Args: []string{"-c", "touch created.txt"},
		Dir:  dir,
	}

	_, err := (&OSInvoker{}).Run(context.Background(), inv)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "created.txt"))
}

func TestOSInvoker_MissingExecutableIsFatal(t *testing.T) {
	inv := Invocation{
		Path: filepath.Join(t.TempDir(), "no-such-tool"),
		Dir:  t.TempDir(),
	}

	_, err := (&OSInvoker{}).Run(context.Background(), inv)
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.True(t, IsStartFailure(err))
	assert.False(t, IsTimeout(err))
	assert.Contains(t, err.Error(), "START_FAILED")
}

func TestOSInvoker_TimeoutKillsAndIsFatal(t *testing.T) {
	inv := Invocation{
		Path: "/bin/sh",
		Args: []string{"-c", "sleep 5"},
		Dir:  t.TempDir(),
	}

	start := time.Now()
	_, err := (&OSInvoker{Timeout: 50 * time.Millisecond}).Run(context.Background(), inv)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Less(t, time.Since(start), 3*time.Second, "hung invocation must be killed promptly")
}

func TestOSInvoker_CancelledContextIsNotFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inv := Invocation{
		Path: "/bin/sh",
		Args: []string{"-c", "sleep 5"},
		Dir:  t.TempDir(),
	}

	_, err := (&OSInvoker{}).Run(ctx, inv)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsFatal(err), "operator cancellation is not a harness fault")
}

func TestFatalError_ErrorFormat(t *testing.T) {
	err := &FatalError{Code: ErrCodeTimeout, Message: "killed", Executable: "/usr/bin/gzip"}
	assert.Equal(t, "TIMEOUT: killed (executable=/usr/bin/gzip)", err.Error())

	err = &FatalError{Code: ErrCodeStartFailed, Message: "missing"}
	assert.Equal(t, "START_FAILED: missing", err.Error())
}

func TestFatalError_Unwrap(t *testing.T) {
	inner := context.DeadlineExceeded
	err := &FatalError{Code: ErrCodeTimeout, Message: "killed", Err: inner}
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
