package runner

import "fmt"

// SetupError means a case's environment could not be built: the fixture
// was missing, a pre-condition file could not be written, or the
// workspace could not be acquired. The case is skipped rather than
// failed, since neither tool ever ran.
type SetupError struct {
	// Stage names the setup step that failed: workspace, fixture, or
	// precondition.
	Stage string

	// Err is the underlying error.
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup failed at %s: %v", e.Stage, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}
