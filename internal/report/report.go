// Package report renders run summaries for people and machines.
//
// The text form is line oriented: one marker line per case, indented
// detail lines under failures and skips, and a trailing count. The JSON
// form carries the full difference records so tooling can triage
// without re-running.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/roach88/gzparity/internal/compare"
	"github.com/roach88/gzparity/internal/runner"
	"github.com/roach88/gzparity/internal/snapshot"
)

// CaseLines renders one case as its marker line plus indented detail.
func CaseLines(res runner.CaseResult) []string {
	switch res.Status {
	case runner.StatusPass:
		return []string{fmt.Sprintf("✓ %s", res.Name)}

	case runner.StatusSkip:
		return []string{
			fmt.Sprintf("- %s", res.Name),
			fmt.Sprintf("  skipped: %s", res.SkipReason),
		}

	default:
		lines := []string{fmt.Sprintf("✗ %s", res.Name)}
		for _, d := range res.Verdict.Diffs {
			lines = append(lines, "  "+d.String())
		}
		if res.ArtifactDir != "" {
			lines = append(lines, fmt.Sprintf("  evidence: %s", res.ArtifactDir))
		}
		return lines
	}
}

// Render writes the complete text report: every case line followed by
// the count tail.
func Render(w io.Writer, s *runner.Summary) {
	for _, res := range s.Results {
		for _, line := range CaseLines(res) {
			fmt.Fprintln(w, line)
		}
	}
	RenderTail(w, s)
}

// RenderTail writes the closing counts. The passed-out-of line counts
// executed cases only; skipped cases never produced a verdict and are
// reported on their own line so they cannot inflate either side.
func RenderTail(w io.Writer, s *runner.Summary) {
	fmt.Fprintln(w)
	if skipped := s.Skipped(); skipped > 0 {
		fmt.Fprintf(w, "Skipped: %d (setup failures)\n", skipped)
	}
	fmt.Fprintf(w, "Passed: %d out of %d\n", s.Passed(), s.Passed()+s.Failed())
}

// RunPayload is the machine-readable form of a run summary.
type RunPayload struct {
	Reference  string        `json:"reference"`
	Candidate  string        `json:"candidate"`
	StartedAt  time.Time     `json:"started_at"`
	DurationMS int64         `json:"duration_ms"`
	Total      int           `json:"total"`
	Passed     int           `json:"passed"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Cases      []CasePayload `json:"cases"`
}

// CasePayload is the machine-readable form of one case result.
type CasePayload struct {
	Name        string               `json:"name"`
	Status      string               `json:"status"`
	Differences []compare.Difference `json:"differences,omitempty"`
	SkipReason  string               `json:"skip_reason,omitempty"`
	ArtifactDir string               `json:"artifact_dir,omitempty"`
	DurationMS  int64                `json:"duration_ms"`
	RefChanges  snapshot.Changes     `json:"reference_changes"`
	CandChanges snapshot.Changes     `json:"candidate_changes"`
}

// NewPayload converts a summary into its JSON-friendly form.
func NewPayload(s *runner.Summary) RunPayload {
	p := RunPayload{
		Reference:  s.Reference,
		Candidate:  s.Candidate,
		StartedAt:  s.StartedAt,
		DurationMS: s.Duration.Milliseconds(),
		Total:      s.Total(),
		Passed:     s.Passed(),
		Failed:     s.Failed(),
		Skipped:    s.Skipped(),
		Cases:      make([]CasePayload, 0, len(s.Results)),
	}

	for _, res := range s.Results {
		p.Cases = append(p.Cases, CasePayload{
			Name:        res.Name,
			Status:      string(res.Status),
			Differences: res.Verdict.Diffs,
			SkipReason:  res.SkipReason,
			ArtifactDir: res.ArtifactDir,
			DurationMS:  res.Duration.Milliseconds(),
			RefChanges:  res.RefChanges,
			CandChanges: res.CandChanges,
		})
	}
	return p
}
