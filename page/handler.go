// Package page implements block buffered, record granular access to a single file.
//
// A Handler keeps one page of K fixed-width records in memory. Records are appended
// to or sliced off the page one at a time, and the page is moved to or from the file
// in a single physical operation. Every physical read and write is counted, which is
// what the tape sort uses to report its disk cost.
package page

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// File is the storage a Handler is built on. *os.File satisfies it, as does
// tempfile.MockFile.
type File interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer
	Truncate(size int64) error
	Name() string
}

// Encoder serializes a record to exactly the handler's record size.
type Encoder[E any] func(E) ([]byte, error)

// Decoder deserializes one record. The slice is only valid for the duration of
// the call and must not be retained.
type Decoder[E any] func([]byte) (E, error)

// Handler buffers one page of records for a single file.
// It is not safe for concurrent use.
type Handler[E any] struct {
	file       File
	recordSize int
	pageSize   int // bytes
	encode     Encoder[E]
	decode     Decoder[E]

	page      []byte // backing array for buf
	buf       []byte // unread records, or records waiting to be written when pending
	pending   bool
	endOfFile bool
	pos       int64 // file offset, always in sync with the file's own offset
	size      int64 // file length
	ops       int
}

// Create creates or truncates the file at path and returns a Handler for it
func Create[E any](path string, recordSize, pageRecords int, encode Encoder[E], decode Decoder[E]) (*Handler[E], error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, NewDiskError(err, "create", path)
	}
	h, err := New(f, recordSize, pageRecords, encode, decode)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return h, nil
}

// New returns a Handler over an open file. Any existing content is readable,
// starting from the beginning of the file.
func New[E any](f File, recordSize, pageRecords int, encode Encoder[E], decode Decoder[E]) (*Handler[E], error) {
	if recordSize < 1 || pageRecords < 1 {
		return nil, fmt.Errorf("page: invalid geometry: %d records of %d bytes", pageRecords, recordSize)
	}
	if encode == nil || decode == nil {
		return nil, errors.New("page: encoder and decoder are required")
	}
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, NewDiskError(err, "seek", f.Name())
	}
	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return nil, NewDiskError(err, "rewind", f.Name())
	}
	h := &Handler[E]{
		file:       f,
		recordSize: recordSize,
		pageSize:   recordSize * pageRecords,
		encode:     encode,
		decode:     decode,
		size:       size,
	}
	h.page = make([]byte, h.pageSize)
	h.buf = h.page[:0]
	return h, nil
}

// Name returns the name of the underlying file
func (h *Handler[E]) Name() string {
	return h.file.Name()
}

// RecordSize returns the encoded width of one record in bytes
func (h *Handler[E]) RecordSize() int {
	return h.recordSize
}

// Ops returns the number of physical reads and writes since creation or the last Clear
func (h *Handler[E]) Ops() int {
	return h.ops
}

// Size returns the number of bytes stored, including records not yet written out
func (h *Handler[E]) Size() int64 {
	if h.pending {
		return h.size + int64(len(h.buf))
	}
	return h.size
}

// EOF reports whether every record has been read: the page is drained and no
// physical read could return more data.
func (h *Handler[E]) EOF() bool {
	return len(h.buf) == 0 && (h.endOfFile || h.pos >= h.size)
}

// Write appends a record. A full page is written out first.
func (h *Handler[E]) Write(e E) error {
	if !h.pending && len(h.buf) != 0 {
		return &InvariantError{Op: "write", Reason: "page holds unread records"}
	}
	if len(h.buf) >= h.pageSize {
		if err := h.writePage(); err != nil {
			return err
		}
	}
	data, err := h.encode(e)
	if err != nil {
		return NewSerializationError(err, "write")
	}
	if len(data) != h.recordSize {
		return NewSerializationError(fmt.Errorf("encoded %d bytes, record size is %d", len(data), h.recordSize), "write")
	}
	if !h.pending {
		h.buf = h.page[:0]
		h.pending = true
	}
	h.buf = append(h.buf, data...)
	return nil
}

// Read returns the next record and advances past it.
// When the page runs dry the next one is read ahead so that EOF stays accurate.
func (h *Handler[E]) Read() (E, error) {
	e, err := h.head("read")
	if err != nil {
		return e, err
	}
	h.buf = h.buf[h.recordSize:]
	if len(h.buf) == 0 {
		// a failed read ahead leaves the page empty, so the next Read or View
		// issues it again and reports the error there
		_ = h.readPage()
	}
	return e, nil
}

// View returns the next record without advancing
func (h *Handler[E]) View() (E, error) {
	return h.head("view")
}

func (h *Handler[E]) head(op string) (E, error) {
	var zero E
	if h.pending {
		return zero, &InvariantError{Op: op, Reason: "page holds unflushed writes"}
	}
	if len(h.buf) == 0 {
		if err := h.readPage(); err != nil {
			return zero, err
		}
	}
	if len(h.buf) == 0 {
		return zero, ErrExhausted
	}
	if len(h.buf) < h.recordSize {
		return zero, NewDeserializationError(ErrShortRecord, len(h.buf), op)
	}
	e, err := h.decode(h.buf[:h.recordSize])
	if err != nil {
		return zero, NewDeserializationError(err, h.recordSize, op)
	}
	return e, nil
}

// Flush writes out any buffered records and rewinds to the start of the file,
// turning a handler that was being written into one that can be read.
func (h *Handler[E]) Flush() error {
	if h.pending {
		if err := h.writePage(); err != nil {
			return err
		}
	}
	return h.rewind()
}

// Clear truncates the file, drops the page and resets the operation counter
func (h *Handler[E]) Clear() error {
	if err := h.rewind(); err != nil {
		return err
	}
	if err := h.file.Truncate(0); err != nil {
		return NewDiskError(err, "truncate", h.Name())
	}
	h.size = 0
	h.ops = 0
	return nil
}

// Scan calls fn for every record in storage order, including buffered writes,
// without disturbing the handler: position, page contents, end of file state
// and the operation counter are the same afterwards.
func (h *Handler[E]) Scan(fn func(E) error) error {
	if _, err := h.file.Seek(0, io.SeekStart); err != nil {
		return NewDiskError(err, "seek", h.Name())
	}
	scanErr := h.scanFile(fn)
	if _, err := h.file.Seek(h.pos, io.SeekStart); err != nil && scanErr == nil {
		scanErr = NewDiskError(err, "seek", h.Name())
	}
	if scanErr != nil || !h.pending {
		return scanErr
	}
	for off := 0; off < len(h.buf); off += h.recordSize {
		e, err := h.decode(h.buf[off : off+h.recordSize])
		if err != nil {
			return NewDeserializationError(err, h.recordSize, "scan")
		}
		if err = fn(e); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler[E]) scanFile(fn func(E) error) error {
	scratch := make([]byte, h.pageSize)
	for remaining := h.size; remaining > 0; {
		n, err := io.ReadFull(h.file, scratch)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return NewDiskError(err, "scan", h.Name())
		}
		if n == 0 {
			return nil
		}
		remaining -= int64(n)
		data := scratch[:n]
		for len(data) >= h.recordSize {
			e, err := h.decode(data[:h.recordSize])
			if err != nil {
				return NewDeserializationError(err, h.recordSize, "scan")
			}
			if err = fn(e); err != nil {
				return err
			}
			data = data[h.recordSize:]
		}
		if len(data) != 0 {
			return NewDeserializationError(ErrShortRecord, len(data), "scan")
		}
	}
	return nil
}

// Close closes the underlying file
func (h *Handler[E]) Close() error {
	return h.file.Close()
}

// readPage performs one physical read of a full page into the empty buffer
func (h *Handler[E]) readPage() error {
	if h.endOfFile {
		return nil
	}
	if len(h.buf) != 0 {
		return &InvariantError{Op: "read page", Reason: "page not empty"}
	}
	if h.pos >= h.size {
		// nothing left; skip the physical read
		h.endOfFile = true
		return nil
	}
	h.ops++
	n, err := io.ReadFull(h.file, h.page)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		err = NewDiskError(err, "read page", h.Name())
		if n > 0 {
			// drop the partial page and go back to its start
			if _, serr := h.file.Seek(h.pos, io.SeekStart); serr != nil {
				err = errors.Join(err, NewDiskError(serr, "seek", h.Name()))
			}
		}
		return err
	}
	h.pos += int64(n)
	h.buf = h.page[:n]
	if n < h.pageSize || h.pos >= h.size {
		h.endOfFile = true
	}
	return nil
}

// writePage performs one physical write of the buffer, always at the end of the file.
// An empty buffer is not written.
func (h *Handler[E]) writePage() error {
	if len(h.buf) == 0 {
		return nil
	}
	if h.pos != h.size {
		if _, err := h.file.Seek(h.size, io.SeekStart); err != nil {
			return NewDiskError(err, "seek", h.Name())
		}
		h.pos = h.size
	}
	h.ops++
	n, err := h.file.Write(h.buf)
	h.pos += int64(n)
	h.size = h.pos
	if err != nil {
		return NewDiskError(err, "write page", h.Name())
	}
	h.buf = h.page[:0]
	h.pending = false
	return nil
}

func (h *Handler[E]) rewind() error {
	if _, err := h.file.Seek(0, io.SeekStart); err != nil {
		return NewDiskError(err, "rewind", h.Name())
	}
	h.pos = 0
	h.endOfFile = false
	h.buf = h.page[:0]
	h.pending = false
	return nil
}
