// Package record provides ready made record types for tapesort: a signed integer key
// and the triangle ordered by area. Each comes with its tapesort.Codec, a parser for
// its text form and a random generator.
package record

import (
	"math/rand/v2"

	"github.com/lanrat/tapesort"
)

// Kind bundles everything the command line needs to work with one record type
type Kind[E any] struct {
	Name   string
	Codec  tapesort.Codec[E]
	Parse  func(string) (E, error)
	Random func(*rand.Rand) E
}
