package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/gzparity/internal/runner"
)

// RecordRun stores a completed run and all of its case results in one
// transaction, and returns the generated run ID. Partial runs (aborted
// by a fatal error) can be recorded too; the counts reflect whatever
// the summary holds.
func (s *Store) RecordRun(ctx context.Context, summary *runner.Summary) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, reference, candidate, started_at, duration_ms, total, passed, failed, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		summary.Reference,
		summary.Candidate,
		summary.StartedAt.UTC().Format(time.RFC3339Nano),
		summary.Duration.Milliseconds(),
		summary.Total(),
		summary.Passed(),
		summary.Failed(),
		summary.Skipped(),
	)
	if err != nil {
		return "", fmt.Errorf("record run: insert run: %w", err)
	}

	for _, res := range summary.Results {
		var diffsJSON any
		if len(res.Verdict.Diffs) > 0 {
			data, err := json.Marshal(res.Verdict.Diffs)
			if err != nil {
				return "", fmt.Errorf("record run: marshal differences for %s: %w", res.Name, err)
			}
			diffsJSON = string(data)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO case_results
			(run_id, name, status, differences, skip_reason, artifact_dir, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			runID,
			res.Name,
			string(res.Status),
			diffsJSON,
			nullIfEmpty(res.SkipReason),
			nullIfEmpty(res.ArtifactDir),
			res.Duration.Milliseconds(),
		)
		if err != nil {
			return "", fmt.Errorf("record run: insert case %s: %w", res.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("record run: commit: %w", err)
	}

	return runID, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
