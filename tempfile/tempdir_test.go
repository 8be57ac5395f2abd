package tempfile

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTempDirWithSpecificDir(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, dir, GetTempDir(dir))
}

func TestGetTempDirFallback(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	// a regular file is not usable, so the pre-computed choice is returned
	got := GetTempDir(file)
	assert.NotEqual(t, file, got)
	assert.Equal(t, GetTempDir(""), got)
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
}

func TestGetTempDirConsistency(t *testing.T) {
	assert.Equal(t, GetTempDir(""), GetTempDir(""))
	assert.Contains(t, buildCandidateList(), GetTempDir(""))
}

func TestIsDirectoryUsable(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, isDirectoryUsable(dir))
	assert.True(t, isDirectoryUsable(filepath.Join(dir, "subdir")), "creatable directory")

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, []byte("test"), 0o644))
	assert.False(t, isDirectoryUsable(file))
}

func TestBuildCandidateList(t *testing.T) {
	candidates := buildCandidateList()
	require.NotEmpty(t, candidates)

	switch runtime.GOOS {
	case "linux", "darwin", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris":
		assert.Equal(t, "/var/tmp", candidates[0], "disk-backed location comes first")
	}
	assert.Contains(t, candidates, os.TempDir())
}
