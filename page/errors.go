package page

import (
	"errors"
	"fmt"
)

var (
	// ErrExhausted is returned by Read and View when no record is left to return
	ErrExhausted = errors.New("page: no more records")
	// ErrShortRecord is returned when the data left on a page is smaller than one record
	ErrShortRecord = errors.New("page: trailing bytes shorter than a record")
)

// DiskError is an OS level failure of a physical file operation
type DiskError struct {
	// Op is the operation that failed, ex: "read page", "truncate"
	Op string
	// Path is the file the operation was performed on
	Path string
	// Err is the underlying I/O error
	Err error
}

func (e *DiskError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("disk error during %s on %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("disk error during %s: %v", e.Op, e.Err)
}

func (e *DiskError) Unwrap() error {
	return e.Err
}

// NewDiskError creates a DiskError wrapping the underlying I/O error
func NewDiskError(err error, op, path string) error {
	return &DiskError{Op: op, Path: path, Err: err}
}

// SerializationError represents a record that could not be encoded to its fixed width
type SerializationError struct {
	// Cause is the encoder error, or a description of the width mismatch
	Cause error
	// Context provides additional information about what was being serialized
	Context string
}

func (e *SerializationError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("serialization error in %s: %v", e.Context, e.Cause)
	}
	return fmt.Sprintf("serialization error: %v", e.Cause)
}

func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// NewSerializationError creates a SerializationError
func NewSerializationError(cause error, context string) error {
	return &SerializationError{Cause: cause, Context: context}
}

// DeserializationError represents bytes that could not be decoded into a record
type DeserializationError struct {
	// Cause is the decoder error
	Cause error
	// DataSize is the size of the data that failed to deserialize
	DataSize int
	// Context provides additional information about what was being deserialized
	Context string
}

func (e *DeserializationError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("deserialization error in %s (data size: %d bytes): %v", e.Context, e.DataSize, e.Cause)
	}
	return fmt.Sprintf("deserialization error (data size: %d bytes): %v", e.DataSize, e.Cause)
}

func (e *DeserializationError) Unwrap() error {
	return e.Cause
}

// NewDeserializationError creates a DeserializationError
func NewDeserializationError(cause error, dataSize int, context string) error {
	return &DeserializationError{Cause: cause, DataSize: dataSize, Context: context}
}

// InvariantError reports a handler used out of sequence, ex: reading while writes are
// still buffered. It indicates a bug in the caller rather than bad data or a bad disk.
type InvariantError struct {
	Op     string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("page invariant violated in %s: %s", e.Op, e.Reason)
}
