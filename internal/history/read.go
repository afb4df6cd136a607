package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/gzparity/internal/compare"
	"github.com/roach88/gzparity/internal/runner"
)

// ErrRunNotFound is returned when no stored run matches the given ID or
// ID prefix.
var ErrRunNotFound = errors.New("run not found")

// ErrAmbiguousRunID is returned when an ID prefix matches more than one
// stored run.
var ErrAmbiguousRunID = errors.New("run id prefix is ambiguous")

// RunRecord is the stored header of one run.
type RunRecord struct {
	ID        string
	Reference string
	Candidate string
	StartedAt time.Time
	Duration  time.Duration
	Total     int
	Passed    int
	Failed    int
	Skipped   int
}

// ListRuns returns the most recent runs, newest first. A non-positive
// limit applies a default of 20.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reference, candidate, started_at, duration_ms,
		       total, passed, failed, skipped
		FROM runs
		ORDER BY started_at DESC, id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return records, nil
}

// GetRun looks a run up by its full ID or by a unique prefix.
func (s *Store) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	if id == "" {
		return nil, ErrRunNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reference, candidate, started_at, duration_ms,
		       total, passed, failed, skipped
		FROM runs
		WHERE id = ? OR id LIKE ? || '%'
		ORDER BY started_at DESC, id ASC
		LIMIT 2
	`, id, id)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("get run: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	switch len(records) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return &records[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousRunID, id)
	}
}

// CaseResults returns a stored run's case results in execution order.
// Differences are restored from their JSON form, so a stored failure
// carries the same detail a fresh one does.
func (s *Store) CaseResults(ctx context.Context, runID string) ([]runner.CaseResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, status, differences, skip_reason, artifact_dir, duration_ms
		FROM case_results
		WHERE run_id = ?
		ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("case results: %w", err)
	}
	defer rows.Close()

	var results []runner.CaseResult
	for rows.Next() {
		var (
			res        runner.CaseResult
			status     string
			diffs      *string
			skipReason *string
			artifacts  *string
			durationMS int64
		)
		if err := rows.Scan(&res.Name, &status, &diffs, &skipReason, &artifacts, &durationMS); err != nil {
			return nil, fmt.Errorf("case results: scan: %w", err)
		}

		res.Status = runner.Status(status)
		res.Duration = time.Duration(durationMS) * time.Millisecond
		if diffs != nil {
			var d []compare.Difference
			if err := json.Unmarshal([]byte(*diffs), &d); err != nil {
				return nil, fmt.Errorf("case results: decode differences for %s: %w", res.Name, err)
			}
			res.Verdict = compare.Verdict{Diffs: d}
		}
		if skipReason != nil {
			res.SkipReason = *skipReason
		}
		if artifacts != nil {
			res.ArtifactDir = *artifacts
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("case results: %w", err)
	}
	return results, nil
}

// Summary rebuilds a stored run as a runner summary, ready for the
// report renderer.
func (s *Store) Summary(ctx context.Context, id string) (*runner.Summary, error) {
	rec, err := s.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}

	results, err := s.CaseResults(ctx, rec.ID)
	if err != nil {
		return nil, err
	}

	return &runner.Summary{
		Reference: rec.Reference,
		Candidate: rec.Candidate,
		StartedAt: rec.StartedAt,
		Duration:  rec.Duration,
		Results:   results,
	}, nil
}

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var (
		rec        RunRecord
		startedAt  string
		durationMS int64
	)
	err := row.Scan(
		&rec.ID, &rec.Reference, &rec.Candidate, &startedAt, &durationMS,
		&rec.Total, &rec.Passed, &rec.Failed, &rec.Skipped,
	)
	if err != nil {
		return RunRecord{}, err
	}

	rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return RunRecord{}, fmt.Errorf("parse started_at: %w", err)
	}
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	return rec, nil
}
