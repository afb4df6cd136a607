package runner

import (
	"time"

	"github.com/roach88/gzparity/internal/compare"
	"github.com/roach88/gzparity/internal/snapshot"
)

// Status classifies how one case ended.
type Status string

const (
	// StatusPass means every compared channel agreed.
	StatusPass Status = "pass"

	// StatusFail means at least one channel diverged.
	StatusFail Status = "fail"

	// StatusSkip means the case never ran because its setup failed,
	// e.g. a missing fixture. Distinct from failure: nothing was
	// compared, so nothing is known about parity.
	StatusSkip Status = "skip"
)

// CaseResult is the recorded outcome of one case.
type CaseResult struct {
	Name        string
	Description string
	Status      Status

	// Verdict carries the diverging channels when Status is StatusFail.
	Verdict compare.Verdict

	// SkipReason explains a StatusSkip.
	SkipReason string

	// ArtifactDir points at preserved evidence for a failed case.
	// Empty when nothing was preserved.
	ArtifactDir string

	// RefChanges and CandChanges list what each tool did to its
	// workspace, straight from the before/after captures.
	RefChanges  snapshot.Changes
	CandChanges snapshot.Changes

	Duration time.Duration
}

// Summary aggregates a whole run. Results keep the registry order
// regardless of completion order under parallel execution.
type Summary struct {
	Reference string
	Candidate string
	StartedAt time.Time
	Duration  time.Duration
	Results   []CaseResult
}

// Passed counts cases where every channel agreed.
func (s *Summary) Passed() int { return s.count(StatusPass) }

// Failed counts cases with at least one diverging channel.
func (s *Summary) Failed() int { return s.count(StatusFail) }

// Skipped counts cases that never ran.
func (s *Summary) Skipped() int { return s.count(StatusSkip) }

// Total counts every recorded case.
func (s *Summary) Total() int { return len(s.Results) }

// AllPassed reports whether no case failed. Skipped cases do not fail
// the run; they are surfaced separately so a missing fixture cannot
// masquerade as proven parity.
func (s *Summary) AllPassed() bool { return s.Failed() == 0 }

func (s *Summary) count(status Status) int {
	n := 0
	for i := range s.Results {
		if s.Results[i].Status == status {
			n++
		}
	}
	return n
}
