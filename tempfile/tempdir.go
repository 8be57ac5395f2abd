package tempfile

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// scratchDirName is the subdirectory used when falling back to the home or working directory
const scratchDirName = ".tapesort"

var (
	// directory choice, computed once
	defaultDir       string
	dirDiscoveryOnce sync.Once
)

// GetTempDir returns the directory scratch namespaces should be created in.
// A usable non-empty dir is returned as is. Otherwise a pre-computed directory is
// returned, preferring disk-backed locations (such as /var/tmp) over the OS temp
// dir, since tapes are meant to live on secondary storage rather than in tmpfs.
func GetTempDir(dir string) string {
	if dir != "" && isDirectoryUsable(dir) {
		return dir
	}
	dirDiscoveryOnce.Do(func() {
		defaultDir = findBestDirectory()
	})
	return defaultDir
}

// findBestDirectory returns the first usable candidate, or the OS temp dir
func findBestDirectory() string {
	for _, candidate := range buildCandidateList() {
		if isDirectoryUsable(candidate) {
			return candidate
		}
	}
	return os.TempDir()
}

// buildCandidateList returns temporary directory candidates in priority order
func buildCandidateList() []string {
	var candidates []string

	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris":
		candidates = append(candidates, "/var/tmp")
	case "darwin":
		candidates = append(candidates, "/var/tmp", "/private/var/tmp")
	}

	candidates = append(candidates, os.TempDir())

	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, scratchDirName))
	}
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(wd, scratchDirName))
	}
	return candidates
}

// isDirectoryUsable reports whether dir is an existing directory or could be created.
// Writability is only tested when the scratch directory is actually made.
func isDirectoryUsable(dir string) bool {
	stat, err := os.Stat(dir)
	if err != nil {
		return os.IsNotExist(err)
	}
	return stat.IsDir()
}
