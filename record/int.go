package record

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/lanrat/tapesort"
)

// IntSize is the encoded width of an Int
const IntSize = 8

// Int is a record holding a single int64 key, encoded big endian
type Int int64

// Compare orders Ints numerically
func (i Int) Compare(o Int) int {
	return cmp.Compare(i, o)
}

func (i Int) String() string {
	return strconv.FormatInt(int64(i), 10)
}

// IntToBytes encodes i in IntSize bytes
func IntToBytes(i Int) ([]byte, error) {
	return binary.BigEndian.AppendUint64(make([]byte, 0, IntSize), uint64(i)), nil
}

// IntFromBytes decodes an Int written by IntToBytes
func IntFromBytes(b []byte) (Int, error) {
	if len(b) != IntSize {
		return 0, fmt.Errorf("record: int needs %d bytes, got %d", IntSize, len(b))
	}
	return Int(binary.BigEndian.Uint64(b)), nil
}

// ParseInt parses the decimal text form of an Int
func ParseInt(s string) (Int, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return Int(v), nil
}

// RandomInt returns an Int in [0, 1000)
func RandomInt(r *rand.Rand) Int {
	return Int(r.IntN(1000))
}

// IntCodec returns the tapesort codec for Int
func IntCodec() tapesort.Codec[Int] {
	return tapesort.Codec[Int]{
		Size:      IntSize,
		ToBytes:   IntToBytes,
		FromBytes: IntFromBytes,
		Compare:   Int.Compare,
		Format:    Int.String,
	}
}

// Ints describes the Int record kind
func Ints() Kind[Int] {
	return Kind[Int]{Name: "int", Codec: IntCodec(), Parse: ParseInt, Random: RandomInt}
}
