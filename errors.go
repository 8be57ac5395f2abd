package tapesort

import (
	"errors"
	"fmt"

	"github.com/lanrat/tapesort/page"
)

// Errors raised by the page layer, re-exported so callers need a single import
type (
	// DiskError is an OS level failure of a physical file operation
	DiskError = page.DiskError
	// SerializationError represents a record that could not be encoded
	SerializationError = page.SerializationError
	// DeserializationError represents bytes that could not be decoded into a record
	DeserializationError = page.DeserializationError
	// InvariantError reports a tape used out of sequence, which indicates a bug
	InvariantError = page.InvariantError
)

var (
	// ErrExhausted is returned when reading past the last record of a tape
	ErrExhausted = page.ErrExhausted
	// ErrShortRecord is returned when a tape or file ends in a partial record
	ErrShortRecord = page.ErrShortRecord
	// ErrEmptyInput is returned when sorting a tape that holds no records
	ErrEmptyInput = errors.New("tapesort: input tape holds no records")
	// ErrClosed is returned when using a tape or sorter after Close
	ErrClosed = errors.New("tapesort: closed")
	// ErrDamaged is returned when using a tape that lost records in a failed sort
	ErrDamaged = errors.New("tapesort: tape lost records in a failed sort, Clear it first")
)

// NewDiskError creates a DiskError wrapping the underlying I/O error
func NewDiskError(err error, operation, path string) error {
	return page.NewDiskError(err, operation, path)
}

// NewDeserializationError creates a DeserializationError
func NewDeserializationError(cause error, dataSize int, context string) error {
	return page.NewDeserializationError(cause, dataSize, context)
}

// ConfigError represents an error in configuration parameters
type ConfigError struct {
	// Field is the name of the configuration field that's invalid
	Field string
	// Value is the invalid value provided
	Value interface{}
	// Reason explains why the value is invalid
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field %s (value: %v): %s", e.Field, e.Value, e.Reason)
}

// PhaseError wraps any failure that aborted a sort, with enough context to tell
// where the sort was when it happened.
type PhaseError struct {
	// Kind is "distribute" or "merge"
	Kind string
	// Phase is the 1 based number of the distribute/merge round
	Phase int
	// Role is "source" or "target", empty if no single tape is to blame
	Role string
	// Tape is the index of the tape within its role, -1 if no single tape is to blame
	Tape int
	Err  error
}

func (e *PhaseError) Error() string {
	if e.Tape >= 0 {
		return fmt.Sprintf("%s phase %d (%s tape %d): %v", e.Kind, e.Phase, e.Role, e.Tape, e.Err)
	}
	return fmt.Sprintf("%s phase %d: %v", e.Kind, e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

func sourceError(tape int, err error) *PhaseError {
	return &PhaseError{Role: "source", Tape: tape, Err: err}
}

func targetError(tape int, err error) *PhaseError {
	return &PhaseError{Role: "target", Tape: tape, Err: err}
}

// inPhase fills in the phase context of err, wrapping it if needed
func inPhase(err error, kind string, phase int) error {
	var pe *PhaseError
	if !errors.As(err, &pe) {
		pe = &PhaseError{Tape: -1, Err: err}
	}
	pe.Kind, pe.Phase = kind, phase
	return pe
}
