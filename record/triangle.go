package record

import (
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/lanrat/tapesort"
)

// TriangleSize is the encoded width of a Triangle: six little endian int32s
const TriangleSize = 6 * 4

// ErrTriangleFormat is returned by ParseTriangle for text that does not hold three points
var ErrTriangleFormat = errors.New("record: triangle needs three points like (x, y)")

// Point is a point on an integer grid
type Point struct {
	X, Y int32
}

// Distance returns the euclidean distance between p and q
func (p Point) Distance(q Point) float64 {
	dx := float64(p.X) - float64(q.X)
	dy := float64(p.Y) - float64(q.Y)
	return math.Hypot(dx, dy)
}

func (p Point) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Triangle is a record ordered by its area
type Triangle struct {
	A, B, C Point
}

// Area returns the area by Heron's formula; degenerate triangles have area 0
func (t Triangle) Area() float64 {
	a := t.A.Distance(t.B)
	b := t.B.Distance(t.C)
	c := t.C.Distance(t.A)
	s := (a + b + c) / 2
	area := math.Sqrt(s * (s - a) * (s - b) * (s - c))
	if math.IsNaN(area) {
		return 0
	}
	return area
}

// Compare orders triangles by area
func (t Triangle) Compare(o Triangle) int {
	return cmp.Compare(t.Area(), o.Area())
}

func (t Triangle) String() string {
	return fmt.Sprintf("{ %s %s %s } area:%.2f", t.A, t.B, t.C, t.Area())
}

// TriangleToBytes encodes t in TriangleSize bytes
func TriangleToBytes(t Triangle) ([]byte, error) {
	b := make([]byte, 0, TriangleSize)
	for _, p := range [3]Point{t.A, t.B, t.C} {
		b = binary.LittleEndian.AppendUint32(b, uint32(p.X))
		b = binary.LittleEndian.AppendUint32(b, uint32(p.Y))
	}
	return b, nil
}

// TriangleFromBytes decodes a Triangle written by TriangleToBytes
func TriangleFromBytes(b []byte) (Triangle, error) {
	if len(b) != TriangleSize {
		return Triangle{}, fmt.Errorf("record: triangle needs %d bytes, got %d", TriangleSize, len(b))
	}
	var pts [3]Point
	for i := range pts {
		pts[i].X = int32(binary.LittleEndian.Uint32(b[8*i:]))
		pts[i].Y = int32(binary.LittleEndian.Uint32(b[8*i+4:]))
	}
	return Triangle{A: pts[0], B: pts[1], C: pts[2]}, nil
}

// ParseTriangle reads three points written as (x, y). Anything outside the
// parentheses is ignored, so the output of String parses back.
func ParseTriangle(s string) (Triangle, error) {
	var pts []Point
	for {
		open := strings.IndexByte(s, '(')
		if open < 0 {
			break
		}
		end := strings.IndexByte(s[open:], ')')
		if end < 0 {
			return Triangle{}, ErrTriangleFormat
		}
		p, err := parsePoint(s[open+1 : open+end])
		if err != nil {
			return Triangle{}, err
		}
		pts = append(pts, p)
		s = s[open+end+1:]
	}
	if len(pts) != 3 {
		return Triangle{}, ErrTriangleFormat
	}
	return Triangle{A: pts[0], B: pts[1], C: pts[2]}, nil
}

func parsePoint(s string) (Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return Point{}, ErrTriangleFormat
	}
	x, err := strconv.ParseInt(strings.TrimSpace(xs), 10, 32)
	if err != nil {
		return Point{}, err
	}
	y, err := strconv.ParseInt(strings.TrimSpace(ys), 10, 32)
	if err != nil {
		return Point{}, err
	}
	return Point{X: int32(x), Y: int32(y)}, nil
}

// RandomTriangle returns a triangle with coordinates in [-31, 31]
func RandomTriangle(r *rand.Rand) Triangle {
	p := func() Point {
		return Point{X: int32(r.IntN(63)) - 31, Y: int32(r.IntN(63)) - 31}
	}
	return Triangle{A: p(), B: p(), C: p()}
}

// TriangleCodec returns the tapesort codec for Triangle
func TriangleCodec() tapesort.Codec[Triangle] {
	return tapesort.Codec[Triangle]{
		Size:      TriangleSize,
		ToBytes:   TriangleToBytes,
		FromBytes: TriangleFromBytes,
		Compare:   Triangle.Compare,
		Format:    Triangle.String,
	}
}

// Triangles describes the Triangle record kind
func Triangles() Kind[Triangle] {
	return Kind[Triangle]{Name: "triangle", Codec: TriangleCodec(), Parse: ParseTriangle, Random: RandomTriangle}
}
