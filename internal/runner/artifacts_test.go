package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gzparity/internal/snapshot"
)

func TestFormatChanges(t *testing.T) {
	assert.Equal(t, "  (none)\n", formatChanges(snapshot.Changes{}))

	got := formatChanges(snapshot.Changes{
		Created:  []string{"a.gz"},
		Removed:  []string{"a"},
		Modified: []string{"log"},
	})
	assert.Equal(t, "  created: a.gz\n  modified: log\n  removed: a\n", got)
}

func TestCopyTree_Nested(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "tree", "deep"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "top.txt"), []byte("top"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "tree", "deep", "leaf.gz"), []byte{0x1f, 0x8b}, 0o644))

	dst := filepath.Join(t.TempDir(), "copy")
	require.NoError(t, copyTree(src, dst))

	top, err := os.ReadFile(filepath.Join(dst, "top.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("top"), top)

	leaf, err := os.ReadFile(filepath.Join(dst, "tree", "deep", "leaf.gz"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1f, 0x8b}, leaf)
}
