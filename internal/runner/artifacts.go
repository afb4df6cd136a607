package runner

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/roach88/gzparity/internal/compare"
	"github.com/roach88/gzparity/internal/registry"
	"github.com/roach88/gzparity/internal/snapshot"
	"github.com/roach88/gzparity/internal/workspace"
)

// Artifact file names inside a preserved case directory.
const (
	artifactRefStdout  = "reference.stdout"
	artifactRefStderr  = "reference.stderr"
	artifactCandStdout = "candidate.stdout"
	artifactCandStderr = "candidate.stderr"
	artifactRefTree    = "reference"
	artifactCandTree   = "candidate"
	artifactVerdict    = "verdict.txt"
)

// preserveArtifacts writes a failed case's evidence under resultsDir:
// both raw stream captures, a copy of each workspace as the tool left
// it, and a human-readable verdict. Evidence for a re-run of the same
// case replaces the previous run's.
func preserveArtifacts(resultsDir string, c registry.Case, ref, cand sideEvidence, verdict compare.Verdict) (string, error) {
	dir := filepath.Join(resultsDir, workspace.Slug(c.Name))
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("failed to clear %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	streams := []struct {
		name string
		data []byte
	}{
		{artifactRefStdout, ref.Outcome.Stdout},
		{artifactRefStderr, ref.Outcome.Stderr},
		{artifactCandStdout, cand.Outcome.Stdout},
		{artifactCandStderr, cand.Outcome.Stderr},
	}
	for _, s := range streams {
		if err := os.WriteFile(filepath.Join(dir, s.name), s.data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", s.name, err)
		}
	}

	if err := copyTree(ref.Ws.Dir, filepath.Join(dir, artifactRefTree)); err != nil {
		return "", fmt.Errorf("failed to copy reference workspace: %w", err)
	}
	if err := copyTree(cand.Ws.Dir, filepath.Join(dir, artifactCandTree)); err != nil {
		return "", fmt.Errorf("failed to copy candidate workspace: %w", err)
	}

	report := formatVerdict(c, ref, cand, verdict)
	if err := os.WriteFile(filepath.Join(dir, artifactVerdict), report, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", artifactVerdict, err)
	}

	return dir, nil
}

// formatVerdict renders the evidence index: what ran, what diverged,
// and what each tool did to its workspace.
func formatVerdict(c registry.Case, ref, cand sideEvidence, verdict compare.Verdict) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "case: %s\n", c.Name)
	if c.Description != "" {
		fmt.Fprintf(&b, "description: %s\n", c.Description)
	}
	fmt.Fprintf(&b, "args: %q\n", c.Args)
	fmt.Fprintf(&b, "policy: %s\n", c.Policy)
	fmt.Fprintf(&b, "reference exit: %d\n", ref.Outcome.ExitCode)
	fmt.Fprintf(&b, "candidate exit: %d\n", cand.Outcome.ExitCode)

	fmt.Fprintf(&b, "\ndifferences (%d):\n", len(verdict.Diffs))
	for _, d := range verdict.Diffs {
		fmt.Fprintf(&b, "  %s\n", d.String())
	}

	fmt.Fprintf(&b, "\nreference workspace changes:\n%s", formatChanges(ref.Changes))
	fmt.Fprintf(&b, "\ncandidate workspace changes:\n%s", formatChanges(cand.Changes))

	return b.Bytes()
}

func formatChanges(ch snapshot.Changes) string {
	if ch.Empty() {
		return "  (none)\n"
	}

	var b bytes.Buffer
	for _, p := range ch.Created {
		fmt.Fprintf(&b, "  created: %s\n", p)
	}
	for _, p := range ch.Modified {
		fmt.Fprintf(&b, "  modified: %s\n", p)
	}
	for _, p := range ch.Removed {
		fmt.Fprintf(&b, "  removed: %s\n", p)
	}
	return b.String()
}

// copyTree copies a workspace directory recursively. Contents only;
// permissions are normalized, symlinks are not expected in workspaces.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}
