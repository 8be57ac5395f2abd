package record_test

import (
	"math/rand/v2"
	"testing"

	"github.com/lanrat/tapesort/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntCodec(t *testing.T) {
	c := record.IntCodec()
	for _, v := range []record.Int{0, 1, -1, 1 << 62, -(1 << 62)} {
		b, err := c.ToBytes(v)
		require.NoError(t, err)
		require.Len(t, b, c.Size)
		got, err := c.FromBytes(b)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
	_, err := c.FromBytes([]byte{1, 2, 3})
	assert.Error(t, err)

	assert.Negative(t, c.Compare(-3, 2))
	assert.Zero(t, c.Compare(7, 7))
	assert.Equal(t, "-42", c.Format(-42))
}

func TestParseInt(t *testing.T) {
	v, err := record.ParseInt(" 123 ")
	require.NoError(t, err)
	assert.Equal(t, record.Int(123), v)
	_, err = record.ParseInt("twelve")
	assert.Error(t, err)
}

func TestTriangleArea(t *testing.T) {
	right := record.Triangle{A: record.Point{X: 0, Y: 0}, B: record.Point{X: 3, Y: 0}, C: record.Point{X: 0, Y: 4}}
	assert.InDelta(t, 6.0, right.Area(), 1e-9)

	line := record.Triangle{A: record.Point{X: 0, Y: 0}, B: record.Point{X: 1, Y: 1}, C: record.Point{X: 2, Y: 2}}
	assert.InDelta(t, 0.0, line.Area(), 1e-6)

	assert.Positive(t, right.Compare(line))
	assert.Zero(t, right.Compare(right))
}

func TestTriangleCodec(t *testing.T) {
	c := record.TriangleCodec()
	tri := record.Triangle{A: record.Point{X: -31, Y: 5}, B: record.Point{X: 2, Y: -7}, C: record.Point{X: 30, Y: 30}}
	b, err := c.ToBytes(tri)
	require.NoError(t, err)
	require.Len(t, b, record.TriangleSize)
	got, err := c.FromBytes(b)
	require.NoError(t, err)
	assert.Equal(t, tri, got)

	_, err = c.FromBytes(b[:10])
	assert.Error(t, err)
}

func TestParseTriangle(t *testing.T) {
	tri, err := record.ParseTriangle("{(1, 2) (3,4)(-5 , 6)}")
	require.NoError(t, err)
	assert.Equal(t, record.Triangle{A: record.Point{X: 1, Y: 2}, B: record.Point{X: 3, Y: 4}, C: record.Point{X: -5, Y: 6}}, tri)

	// the display form parses back
	back, err := record.ParseTriangle(tri.String())
	require.NoError(t, err)
	assert.Equal(t, tri, back)

	for _, bad := range []string{"", "(1, 2) (3, 4)", "(1, 2) (3, 4) (5, 6) (7, 8)", "(1 2) (3, 4) (5, 6)", "(1, 2) (3, 4) (5, x)", "(1, 2) (3, 4) (5, 6"} {
		_, err := record.ParseTriangle(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestRandom(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 100; i++ {
		v := record.RandomInt(r)
		assert.GreaterOrEqual(t, int64(v), int64(0))
		assert.Less(t, int64(v), int64(1000))

		tri := record.RandomTriangle(r)
		for _, p := range []record.Point{tri.A, tri.B, tri.C} {
			assert.GreaterOrEqual(t, p.X, int32(-31))
			assert.LessOrEqual(t, p.X, int32(31))
			assert.GreaterOrEqual(t, p.Y, int32(-31))
			assert.LessOrEqual(t, p.Y, int32(31))
		}
	}
}

func TestKinds(t *testing.T) {
	ints := record.Ints()
	assert.Equal(t, "int", ints.Name)
	assert.Equal(t, record.IntSize, ints.Codec.Size)

	tris := record.Triangles()
	assert.Equal(t, "triangle", tris.Name)
	assert.Equal(t, record.TriangleSize, tris.Codec.Size)
}
