package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for _, name := range []string{"a.hcl", "b.txt", "nested/c.hcl", "nested/deeper/d.hcl"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o600))
	}
	single := filepath.Join(dir, "a.hcl")

	files, err := FindFilesByExtension([]string{dir, single, filepath.Join(dir, "missing"), filepath.Join(dir, "b.txt")}, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{
		single,
		filepath.Join(dir, "nested", "c.hcl"),
		filepath.Join(dir, "nested", "deeper", "d.hcl"),
	}, files)

	files, err = FindFilesByExtension(nil, ".hcl")
	require.NoError(t, err)
	assert.Empty(t, files)

	assert.Panics(t, func() { _, _ = FindFilesByExtension([]string{dir}, "") })
}
