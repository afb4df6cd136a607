// Package workspace allocates isolated scratch directories for test cases.
//
// Each case gets one workspace per implementation so the two tools can
// never observe each other's files. Acquisition and release form a scoped
// pair: Release removes the directory unconditionally, on every exit path,
// and the Manager's Close sweeps anything still left (interrupted runs).
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Manager owns a root directory under which workspaces are created.
type Manager struct {
	root string

	// Preserve disables all removal, for post-mortem inspection of
	// workspace contents. Set before the first Acquire.
	Preserve bool
}

// NewManager creates a manager rooted at base, creating the directory if
// needed. An empty base allocates a fresh directory under the system temp
// location.
func NewManager(base string) (*Manager, error) {
	if base == "" {
		root, err := os.MkdirTemp("", "gzparity-")
		if err != nil {
			return nil, fmt.Errorf("failed to allocate workspace root: %w", err)
		}
		return &Manager{root: root}, nil
	}

	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace root: %w", err)
	}
	return &Manager{root: base}, nil
}

// Root returns the directory under which workspaces are created.
func (m *Manager) Root() string {
	return m.root
}

// Acquire creates a fresh, uniquely named workspace for the given label.
// Safe for concurrent use: names embed a random suffix, so parallel
// acquisitions for the same label never collide.
func (m *Manager) Acquire(label string) (*Workspace, error) {
	name := Slug(label) + "-" + uuid.NewString()[:8]
	dir := filepath.Join(m.root, name)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to acquire workspace for %q: %w", label, err)
	}
	return &Workspace{Dir: dir, preserve: m.Preserve}, nil
}

// Close removes the root and everything under it, sweeping workspaces
// whose Release never ran. No-op when Preserve is set.
func (m *Manager) Close() error {
	if m.Preserve {
		return nil
	}
	return os.RemoveAll(m.root)
}

// Workspace is one isolated scratch directory.
type Workspace struct {
	Dir string

	preserve bool
}

// Path resolves a path relative to the workspace.
func (w *Workspace) Path(rel string) string {
	return filepath.Join(w.Dir, rel)
}

// WriteFile materializes a file inside the workspace, creating parent
// directories as needed. Used for input fixtures and for pre-condition
// files (created after acquisition, before invocation, so setup is
// reproducible per run).
func (w *Workspace) WriteFile(rel string, data []byte) error {
	path := w.Path(rel)
	if dir := filepath.Dir(path); dir != w.Dir {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", rel, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return nil
}

// Release removes the workspace directory and all of its contents.
// Idempotent; a released workspace can be released again without error.
func (w *Workspace) Release() error {
	if w.preserve {
		return nil
	}
	return os.RemoveAll(w.Dir)
}

// Slug converts a case label into a filesystem-safe directory component.
// Labels are NFC normalized first so the same label yields the same name
// on platforms that decompose filenames differently.
func Slug(label string) string {
	normalized := norm.NFC.String(label)

	var b strings.Builder
	for _, r := range normalized {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "case"
	}
	return b.String()
}
