// Package tempfile manages the scratch storage backing tapes.
// A Scratch is a private directory holding sequentially numbered tape files;
// each sorter owns one so that concurrent sorts in a process never share names.
package tempfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
)

// Scratch is a namespace for tape files. Names are drawn from a counter that
// only ever increases, so a name is never handed out twice by the same Scratch.
type Scratch struct {
	dir  string
	next atomic.Int64
}

// New creates a fresh scratch directory inside dir (see GetTempDir for how an
// empty dir is resolved). The prefix is used for the directory name.
func New(dir, prefix string) (*Scratch, error) {
	base := GetTempDir(dir)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	d, err := os.MkdirTemp(base, prefix)
	if err != nil {
		return nil, err
	}
	return &Scratch{dir: d}, nil
}

// Dir returns the scratch directory
func (s *Scratch) Dir() string {
	return s.dir
}

// NextName reserves the next tape file name and returns its path and number
func (s *Scratch) NextName() (string, int) {
	n := int(s.next.Add(1) - 1)
	return filepath.Join(s.dir, fmt.Sprintf("t%d.tape", n)), n
}

// Create reserves the next name and creates (or truncates) the file for reading and writing
func (s *Scratch) Create() (*os.File, int, error) {
	path, n := s.NextName()
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, n, err
	}
	return f, n, nil
}

// Close removes the scratch directory and anything left in it.
// Removing an already removed directory is not an error.
func (s *Scratch) Close() error {
	return os.RemoveAll(s.dir)
}

// Remove deletes a single file. A missing file is not an error.
func Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
