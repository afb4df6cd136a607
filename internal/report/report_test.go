package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gzparity/internal/compare"
	"github.com/roach88/gzparity/internal/runner"
	"github.com/roach88/gzparity/internal/snapshot"
)

// mixedSummary covers all three statuses with deterministic content.
func mixedSummary() *runner.Summary {
	return &runner.Summary{
		Reference: "/usr/bin/gzip",
		Candidate: "/usr/local/bin/gzip-rs",
		StartedAt: time.Date(2024, 5, 14, 9, 30, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Results: []runner.CaseResult{
			{
				Name:     "no-arguments",
				Status:   runner.StatusPass,
				Duration: 120 * time.Millisecond,
			},
			{
				Name:   "help",
				Status: runner.StatusFail,
				Verdict: compare.Verdict{Diffs: []compare.Difference{{
					Channel:   compare.ChannelStdout,
					Reference: `34 bytes, "usage: gzip [-cd" at offset 0`,
					Candidate: `34 bytes, "Usage: gzip [-cd" at offset 0`,
					Offset:    0,
				}}},
				ArtifactDir: "results/help",
				Duration:    95 * time.Millisecond,
			},
			{
				Name:       "sweep-ghost.bin",
				Status:     runner.StatusSkip,
				SkipReason: "setup failed at fixture: open fixtures/ghost.bin: no such file or directory",
			},
			{
				Name:   "destructive-delete",
				Status: runner.StatusPass,
				RefChanges: snapshot.Changes{
					Created: []string{"sample.txt.gz"},
					Removed: []string{"sample.txt"},
				},
				CandChanges: snapshot.Changes{
					Created: []string{"sample.txt.gz"},
					Removed: []string{"sample.txt"},
				},
				Duration: 180 * time.Millisecond,
			},
		},
	}
}

func TestRender_Mixed(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, mixedSummary())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "summary_mixed", buf.Bytes())
}

func TestRender_AllPass(t *testing.T) {
	s := &runner.Summary{
		Reference: "/usr/bin/gzip",
		Candidate: "/usr/local/bin/gzip-rs",
		Results: []runner.CaseResult{
			{Name: "no-arguments", Status: runner.StatusPass},
			{Name: "help", Status: runner.StatusPass},
		},
	}

	var buf bytes.Buffer
	Render(&buf, s)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "summary_all_pass", buf.Bytes())
}

func TestCaseLines_Pass(t *testing.T) {
	lines := CaseLines(runner.CaseResult{Name: "level-3", Status: runner.StatusPass})
	assert.Equal(t, []string{"✓ level-3"}, lines)
}

func TestCaseLines_FailListsEveryDifference(t *testing.T) {
	res := runner.CaseResult{
		Name:   "quiet",
		Status: runner.StatusFail,
		Verdict: compare.Verdict{Diffs: []compare.Difference{
			{Channel: compare.ChannelExitStatus, Reference: "success (0)", Candidate: "failure (1)", Offset: -1},
			{Channel: compare.ChannelStderr, Reference: "0 bytes, ends before offset 0", Candidate: `5 bytes, "oops\n" at offset 0`, Offset: 0},
		}},
	}

	lines := CaseLines(res)
	require.Len(t, lines, 3)
	assert.Equal(t, "✗ quiet", lines[0])
	assert.Contains(t, lines[1], "exit-status")
	assert.Contains(t, lines[2], "stderr")
}

func TestCaseLines_Skip(t *testing.T) {
	lines := CaseLines(runner.CaseResult{
		Name:       "sweep-big.bin",
		Status:     runner.StatusSkip,
		SkipReason: "setup failed at fixture: missing",
	})
	require.Len(t, lines, 2)
	assert.Equal(t, "- sweep-big.bin", lines[0])
	assert.Contains(t, lines[1], "skipped:")
}

func TestRenderTail_NoSkips(t *testing.T) {
	s := &runner.Summary{Results: []runner.CaseResult{{Name: "a", Status: runner.StatusPass}}}

	var buf bytes.Buffer
	RenderTail(&buf, s)
	assert.Equal(t, "\nPassed: 1 out of 1\n", buf.String())
}

func TestRenderTail_SkipsExcludedFromCount(t *testing.T) {
	s := &runner.Summary{Results: []runner.CaseResult{
		{Name: "a", Status: runner.StatusPass},
		{Name: "b", Status: runner.StatusSkip, SkipReason: "missing fixture"},
		{Name: "c", Status: runner.StatusFail},
	}}

	var buf bytes.Buffer
	RenderTail(&buf, s)
	assert.Equal(t, "\nSkipped: 1 (setup failures)\nPassed: 1 out of 2\n", buf.String())
}

func TestNewPayload(t *testing.T) {
	p := NewPayload(mixedSummary())

	assert.Equal(t, "/usr/bin/gzip", p.Reference)
	assert.Equal(t, int64(1500), p.DurationMS)
	assert.Equal(t, 4, p.Total)
	assert.Equal(t, 2, p.Passed)
	assert.Equal(t, 1, p.Failed)
	assert.Equal(t, 1, p.Skipped)
	require.Len(t, p.Cases, 4)

	help := p.Cases[1]
	assert.Equal(t, "fail", help.Status)
	require.Len(t, help.Differences, 1)
	assert.Equal(t, compare.ChannelStdout, help.Differences[0].Channel)
	assert.Equal(t, "results/help", help.ArtifactDir)
}

func TestPayload_JSONShape(t *testing.T) {
	data, err := json.Marshal(NewPayload(mixedSummary()))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, float64(4), decoded["total"])
	cases, ok := decoded["cases"].([]any)
	require.True(t, ok)
	require.Len(t, cases, 4)

	pass := cases[0].(map[string]any)
	_, hasDiffs := pass["differences"]
	assert.False(t, hasDiffs, "passing cases omit the differences key")

	skip := cases[2].(map[string]any)
	assert.Contains(t, skip["skip_reason"], "fixture")
}
