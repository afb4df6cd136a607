package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roach88/gzparity/internal/compare"
	"github.com/roach88/gzparity/internal/runner"
)

// testSummary builds a summary with one result per status.
func testSummary() *runner.Summary {
	return &runner.Summary{
		Reference: "/usr/bin/gzip",
		Candidate: "/usr/local/bin/gzip-rs",
		StartedAt: time.Date(2024, 5, 14, 9, 30, 0, 0, time.UTC),
		Duration:  2 * time.Second,
		Results: []runner.CaseResult{
			{Name: "no-arguments", Status: runner.StatusPass, Duration: 50 * time.Millisecond},
			{
				Name:   "help",
				Status: runner.StatusFail,
				Verdict: compare.Verdict{Diffs: []compare.Difference{{
					Channel:   compare.ChannelStdout,
					Reference: "usage text a",
					Candidate: "usage text b",
					Offset:    0,
				}}},
				ArtifactDir: "results/help",
				Duration:    75 * time.Millisecond,
			},
			{
				Name:       "sweep-ghost",
				Status:     runner.StatusSkip,
				SkipReason: "setup failed at fixture: missing",
			},
		},
	}
}

func TestRecordRun_Roundtrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	runID, err := s.RecordRun(ctx, testSummary())
	if err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}
	if runID == "" {
		t.Fatal("RecordRun() returned empty id")
	}

	rec, err := s.GetRun(ctx, runID)
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}
	if rec.Reference != "/usr/bin/gzip" {
		t.Errorf("reference = %q", rec.Reference)
	}
	if rec.Total != 3 || rec.Passed != 1 || rec.Failed != 1 || rec.Skipped != 1 {
		t.Errorf("counts = %d/%d/%d/%d, expected 3/1/1/1",
			rec.Total, rec.Passed, rec.Failed, rec.Skipped)
	}
	if !rec.StartedAt.Equal(time.Date(2024, 5, 14, 9, 30, 0, 0, time.UTC)) {
		t.Errorf("started_at = %v", rec.StartedAt)
	}
	if rec.Duration != 2*time.Second {
		t.Errorf("duration = %v", rec.Duration)
	}
}

func TestCaseResults_RestoresDifferences(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	runID, err := s.RecordRun(ctx, testSummary())
	if err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}

	results, err := s.CaseResults(ctx, runID)
	if err != nil {
		t.Fatalf("CaseResults() failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d case results, expected 3", len(results))
	}

	// Execution order preserved
	if results[0].Name != "no-arguments" || results[2].Name != "sweep-ghost" {
		t.Errorf("order: %s, %s, %s", results[0].Name, results[1].Name, results[2].Name)
	}

	help := results[1]
	if help.Status != runner.StatusFail {
		t.Errorf("help status = %s", help.Status)
	}
	if len(help.Verdict.Diffs) != 1 {
		t.Fatalf("help diffs = %d, expected 1", len(help.Verdict.Diffs))
	}
	if help.Verdict.Diffs[0].Channel != compare.ChannelStdout {
		t.Errorf("channel = %s", help.Verdict.Diffs[0].Channel)
	}
	if help.ArtifactDir != "results/help" {
		t.Errorf("artifact dir = %q", help.ArtifactDir)
	}

	skip := results[2]
	if skip.SkipReason != "setup failed at fixture: missing" {
		t.Errorf("skip reason = %q", skip.SkipReason)
	}
	if len(skip.Verdict.Diffs) != 0 {
		t.Errorf("skip carried %d diffs", len(skip.Verdict.Diffs))
	}
}

func TestSummary_RebuildsStoredRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	runID, err := s.RecordRun(ctx, testSummary())
	if err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}

	summary, err := s.Summary(ctx, runID)
	if err != nil {
		t.Fatalf("Summary() failed: %v", err)
	}
	if summary.Passed() != 1 || summary.Failed() != 1 || summary.Skipped() != 1 {
		t.Errorf("rebuilt counts = %d/%d/%d",
			summary.Passed(), summary.Failed(), summary.Skipped())
	}
	if summary.Candidate != "/usr/local/bin/gzip-rs" {
		t.Errorf("candidate = %q", summary.Candidate)
	}
}

func TestGetRun_Prefix(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	runID, err := s.RecordRun(ctx, testSummary())
	if err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}

	rec, err := s.GetRun(ctx, runID[:8])
	if err != nil {
		t.Fatalf("GetRun() by prefix failed: %v", err)
	}
	if rec.ID != runID {
		t.Errorf("prefix lookup returned %s, expected %s", rec.ID, runID)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetRun(context.Background(), "no-such-run")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	older := testSummary()
	older.StartedAt = time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)
	newer := testSummary()
	newer.StartedAt = time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)

	if _, err := s.RecordRun(ctx, older); err != nil {
		t.Fatalf("RecordRun(older) failed: %v", err)
	}
	newerID, err := s.RecordRun(ctx, newer)
	if err != nil {
		t.Fatalf("RecordRun(newer) failed: %v", err)
	}

	records, err := s.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d runs, expected 2", len(records))
	}
	if records[0].ID != newerID {
		t.Errorf("newest run not first: got %s", records[0].ID)
	}
}

func TestListRuns_Limit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		summary := testSummary()
		summary.StartedAt = summary.StartedAt.Add(time.Duration(i) * time.Hour)
		if _, err := s.RecordRun(ctx, summary); err != nil {
			t.Fatalf("RecordRun(%d) failed: %v", i, err)
		}
	}

	records, err := s.ListRuns(ctx, 3)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("got %d runs, expected 3", len(records))
	}
}

func TestRecordRun_EmptySummary(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	runID, err := s.RecordRun(ctx, &runner.Summary{
		Reference: "/bin/a",
		Candidate: "/bin/b",
		StartedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}

	rec, err := s.GetRun(ctx, runID)
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}
	if rec.Total != 0 {
		t.Errorf("total = %d, expected 0", rec.Total)
	}

	results, err := s.CaseResults(ctx, runID)
	if err != nil {
		t.Fatalf("CaseResults() failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d case results, expected 0", len(results))
	}
}
