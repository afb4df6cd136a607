package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCases(t *testing.T, format string, verbose bool, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format, Verbose: verbose}
	cmd := NewCasesCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestCasesListsBuiltinCatalog(t *testing.T) {
	buf, err := executeCases(t, "text", false)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "no-arguments")
	assert.Contains(t, output, "level-9")
	assert.Contains(t, output, "destructive-delete")
	assert.Contains(t, output, "case(s)")
}

func TestCasesVerboseShowsDescriptions(t *testing.T) {
	buf, err := executeCases(t, "text", true)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no operands, empty stdin")
}

func TestCasesFilter(t *testing.T) {
	buf, err := executeCases(t, "text", false, "--filter", "level-*")
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "level-1")
	assert.Contains(t, output, "level-9")
	assert.NotContains(t, output, "no-arguments")
	assert.Contains(t, output, "9 case(s)")
}

func TestCasesInvalidFilter(t *testing.T) {
	_, err := executeCases(t, "text", false, "--filter", "[broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCasesFilterMatchesNothing(t *testing.T) {
	buf, err := executeCases(t, "text", false, "--filter", "zzz-*")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No cases selected.")
}

func TestCasesFromSuite(t *testing.T) {
	path := writeSuite(t, "mini.yaml", `name: mini
cases:
  - name: only-one
    policy: stdout-only
`)

	buf, err := executeCases(t, "text", false, "--suite", path)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Suite: mini")
	assert.Contains(t, output, "only-one")
	assert.Contains(t, output, "1 case(s)")
}

func TestCasesJSON(t *testing.T) {
	buf, err := executeCases(t, "json", false)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	listed, ok := data["cases"].([]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, listed)
	assert.Equal(t, float64(len(listed)), data["total"])

	first, ok := listed[0].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, first["name"])
	assert.NotEmpty(t, first["policy"])
}
