package tapesort

import (
	"fmt"
	"slices"
)

// FromBytesGeneric is a function type for deserializing one fixed-width record.
// It's used every time a record is read back from a tape.
// The slice is only valid during the call. Errors are wrapped in a DeserializationError.
type FromBytesGeneric[E any] func([]byte) (E, error)

// ToBytesGeneric is a function type for serializing a record to exactly Codec.Size bytes.
// The output must be deterministic and readable by the matching FromBytesGeneric.
// Errors, and outputs of the wrong width, are wrapped in a SerializationError.
type ToBytesGeneric[E any] func(E) ([]byte, error)

// CompareGeneric is a function type for comparing two records.
// It must implement a total order and follows the same semantics as cmp.Compare:
// negative if a sorts before b, zero if they are equal and positive otherwise.
type CompareGeneric[E any] func(a, b E) int

// FormatGeneric renders a record for humans, used when printing tapes
type FormatGeneric[E any] func(E) string

// Codec is the capability set the sorter needs from a record type.
// The sorter never looks inside a record: it only compares, encodes and decodes whole records.
type Codec[E any] struct {
	// Size is the encoded width of every record in bytes
	Size      int
	ToBytes   ToBytesGeneric[E]
	FromBytes FromBytesGeneric[E]
	Compare   CompareGeneric[E]
	// Format is optional, fmt.Sprint is used when nil
	Format FormatGeneric[E]
}

func (c Codec[E]) validate() error {
	switch {
	case c.Size < 1:
		return &ConfigError{Field: "Codec.Size", Value: c.Size, Reason: "must be at least 1"}
	case c.ToBytes == nil:
		return &ConfigError{Field: "Codec.ToBytes", Value: nil, Reason: "is required"}
	case c.FromBytes == nil:
		return &ConfigError{Field: "Codec.FromBytes", Value: nil, Reason: "is required"}
	case c.Compare == nil:
		return &ConfigError{Field: "Codec.Compare", Value: nil, Reason: "is required"}
	}
	return nil
}

func (c Codec[E]) format(e E) string {
	if c.Format == nil {
		return fmt.Sprint(e)
	}
	return c.Format(e)
}

// IsSorted reports whether records are in non-decreasing order under c.Compare
func (c Codec[E]) IsSorted(records []E) bool {
	return slices.IsSortedFunc(records, c.Compare)
}
