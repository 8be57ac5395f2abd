package tempfile

import (
	"errors"
	"io"
	"sync"
)

// ErrClosed is returned by MockFile operations after Close
var ErrClosed = errors.New("tempfile: mock file closed")

// MockFile is an in-memory stand-in for a tape's backing *os.File.
// It supports the subset of file operations a page handler needs and can be told to
// fail a given physical read, write or truncate, which makes error paths testable
// without touching the filesystem.
type MockFile struct {
	mu     sync.Mutex
	name   string
	data   []byte
	off    int64
	closed bool

	reads, writes int
	failRead      int
	failWrite     int
	failTruncate  bool
	failErr       error
}

// Mock returns an empty MockFile reporting name as its Name
func Mock(name string) *MockFile {
	return &MockFile{name: name, failRead: -1, failWrite: -1}
}

// MockWith returns a MockFile whose content is a copy of data
func MockWith(name string, data []byte) *MockFile {
	m := Mock(name)
	m.data = append([]byte(nil), data...)
	return m
}

// FailReadAt makes the n-th (0 based) Read call return err
func (m *MockFile) FailReadAt(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failRead, m.failErr = n, err
}

// FailWriteAt makes the n-th (0 based) Write call return err
func (m *MockFile) FailWriteAt(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrite, m.failErr = n, err
}

// FailTruncate makes every Truncate call return err
func (m *MockFile) FailTruncate(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failTruncate, m.failErr = true, err
}

// Name returns the name given to Mock
func (m *MockFile) Name() string {
	return m.name
}

// Bytes returns a copy of the current content
func (m *MockFile) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

// Calls returns how many Read and Write calls were made
func (m *MockFile) Calls() (reads, writes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads, m.writes
}

func (m *MockFile) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	call := m.reads
	m.reads++
	if call == m.failRead {
		return 0, m.failErr
	}
	if m.off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.off:])
	m.off += int64(n)
	return n, nil
}

func (m *MockFile) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	call := m.writes
	m.writes++
	if call == m.failWrite {
		return 0, m.failErr
	}
	end := m.off + int64(len(p))
	if end > int64(len(m.data)) {
		m.data = append(m.data, make([]byte, end-int64(len(m.data)))...)
	}
	copy(m.data[m.off:], p)
	m.off = end
	return len(p), nil
}

// Seek implements io.Seeker
func (m *MockFile) Seek(offset int64, whence int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = m.off + offset
	case io.SeekEnd:
		abs = int64(len(m.data)) + offset
	default:
		return 0, errors.New("tempfile: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("tempfile: negative position")
	}
	m.off = abs
	return abs, nil
}

// Truncate changes the size of the content; the offset is left untouched like os.File
func (m *MockFile) Truncate(size int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.failTruncate {
		return m.failErr
	}
	if size < int64(len(m.data)) {
		m.data = m.data[:size]
	} else {
		m.data = append(m.data, make([]byte, size-int64(len(m.data)))...)
	}
	return nil
}

// Close marks the file closed; further operations fail with ErrClosed
func (m *MockFile) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.closed = true
	return nil
}
