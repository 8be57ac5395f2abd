package tapesort

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lanrat/tapesort/page"
	"github.com/lanrat/tapesort/tempfile"
)

// Tape is a sequential store of records kept in a scratch file.
// Alongside the data a tape remembers the length of every sorted run it holds,
// in storage order; a tape with exactly one run is sorted.
//
// Tapes are created by a Sorter and must be released with Close, which removes the
// scratch file. A Tape is not safe for concurrent use.
type Tape[E any] struct {
	id       int
	h        *page.Handler[E]
	format   FormatGeneric[E]
	runLen   []int
	reported int // disk operations already collected by the orchestrator
	damaged  bool // a sort failed after erasing this tape; only Clear and Close work
	closed   bool
}

// ID returns the tape number drawn from its sorter's scratch counter
func (t *Tape[E]) ID() int {
	return t.id
}

// Path returns the location of the scratch file
func (t *Tape[E]) Path() string {
	return t.h.Name()
}

func (t *Tape[E]) usable() error {
	switch {
	case t.closed:
		return ErrClosed
	case t.damaged:
		return ErrDamaged
	}
	return nil
}

// Push appends a record
func (t *Tape[E]) Push(e E) error {
	if err := t.usable(); err != nil {
		return err
	}
	return t.h.Write(e)
}

// Next returns the next record and advances past it
func (t *Tape[E]) Next() (E, error) {
	if err := t.usable(); err != nil {
		var zero E
		return zero, err
	}
	return t.h.Read()
}

// View returns the next record without advancing
func (t *Tape[E]) View() (E, error) {
	if err := t.usable(); err != nil {
		var zero E
		return zero, err
	}
	return t.h.View()
}

// Damaged reports whether a failed sort left the tape with only part of its
// records. A damaged tape must be cleared before it can be used again.
func (t *Tape[E]) Damaged() bool {
	return t.damaged
}

// IsEmpty reports whether every record has been read
func (t *Tape[E]) IsEmpty() bool {
	return t.closed || t.h.EOF()
}

// Flush writes out buffered records and rewinds the tape for reading
func (t *Tape[E]) Flush() error {
	if err := t.usable(); err != nil {
		return err
	}
	return t.h.Flush()
}

// Clear erases all records and run lengths, and makes a damaged tape usable again
func (t *Tape[E]) Clear() error {
	if t.closed {
		return ErrClosed
	}
	if err := t.h.Clear(); err != nil {
		return err
	}
	t.runLen = nil
	t.reported = 0
	t.damaged = false
	return nil
}

// Runs returns a copy of the run lengths, in storage order
func (t *Tape[E]) Runs() []int {
	return append([]int(nil), t.runLen...)
}

// Records returns the number of whole records stored, including buffered writes
func (t *Tape[E]) Records() int {
	return int(t.h.Size() / int64(t.h.RecordSize()))
}

// DiskOps returns the physical reads and writes made since the tape was created or cleared
func (t *Tape[E]) DiskOps() int {
	return t.h.Ops()
}

// takeOps returns the disk operations made since the previous call
func (t *Tape[E]) takeOps() int {
	ops := t.h.Ops() - t.reported
	t.reported = t.h.Ops()
	return ops
}

// sorted reports whether the tape holds exactly one run
func (t *Tape[E]) sorted() bool {
	return len(t.runLen) == 1
}

// Print writes every record, one per line, followed by the record count and the
// run lengths. The tape can keep being read or written afterwards exactly as before.
func (t *Tape[E]) Print(w io.Writer) error {
	if t.closed {
		return ErrClosed
	}
	n := 0
	err := t.h.Scan(func(e E) error {
		n++
		_, err := fmt.Fprintln(w, t.format(e))
		return err
	})
	if err != nil {
		return err
	}
	runs := make([]string, len(t.runLen))
	for i, r := range t.runLen {
		runs[i] = strconv.Itoa(r)
	}
	_, err = fmt.Fprintf(w, "N: %d\nruns: %s\n", n, strings.Join(runs, " "))
	return err
}

// Close releases the tape and removes its scratch file.
// Closing an already closed tape, or one whose file is gone, is not an error.
func (t *Tape[E]) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	return errors.Join(t.h.Close(), tempfile.Remove(t.h.Name()))
}
