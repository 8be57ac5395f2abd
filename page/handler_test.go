package page_test

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/lanrat/tapesort/page"
	"github.com/lanrat/tapesort/tempfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeU32(v uint32) ([]byte, error) {
	return binary.BigEndian.AppendUint32(nil, v), nil
}

func decodeU32(b []byte) (uint32, error) {
	return binary.BigEndian.Uint32(b), nil
}

func newMockHandler(t *testing.T, k int, data []byte) (*page.Handler[uint32], *tempfile.MockFile) {
	t.Helper()
	m := tempfile.MockWith("mock.tape", data)
	h, err := page.New(m, 4, k, encodeU32, decodeU32)
	require.NoError(t, err)
	return h, m
}

func readAll(t *testing.T, h *page.Handler[uint32]) []uint32 {
	t.Helper()
	var out []uint32
	for !h.EOF() {
		v, err := h.Read()
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func TestPassCost(t *testing.T) {
	const k = 4
	for _, m := range []int{0, 1, k - 1, k, k + 1, 3 * k, 3*k + 2, 100} {
		t.Run(fmt.Sprintf("M=%d", m), func(t *testing.T) {
			h, mock := newMockHandler(t, k, nil)
			want := make([]uint32, m)
			for i := range want {
				want[i] = uint32(i * 7)
				require.NoError(t, h.Write(want[i]))
			}
			require.NoError(t, h.Flush())
			assert.Equal(t, ceilDiv(m, k), h.Ops(), "write pass")
			_, writes := mock.Calls()
			assert.Equal(t, ceilDiv(m, k), writes)

			got := readAll(t, h)
			if m == 0 {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, want, got)
			}
			assert.Equal(t, 2*ceilDiv(m, k), h.Ops(), "write pass plus read pass")
			assert.Equal(t, int64(4*m), h.Size())
		})
	}
}

func TestViewDoesNotAdvance(t *testing.T) {
	h, _ := newMockHandler(t, 2, nil)
	for _, v := range []uint32{10, 20, 30} {
		require.NoError(t, h.Write(v))
	}
	require.NoError(t, h.Flush())

	for i := 0; i < 3; i++ {
		v, err := h.View()
		require.NoError(t, err)
		assert.Equal(t, uint32(10), v)
	}
	v, err := h.Read()
	require.NoError(t, err)
	assert.Equal(t, uint32(10), v)
	v, err = h.View()
	require.NoError(t, err)
	assert.Equal(t, uint32(20), v)
	assert.Equal(t, []uint32{20, 30}, readAll(t, h))
}

func TestEOF(t *testing.T) {
	h, _ := newMockHandler(t, 2, nil)
	assert.True(t, h.EOF(), "empty handler")

	_, err := h.Read()
	assert.ErrorIs(t, err, page.ErrExhausted)
	assert.Equal(t, 0, h.Ops(), "no physical read on an empty file")

	require.NoError(t, h.Write(1))
	assert.False(t, h.EOF(), "pending write")
	require.NoError(t, h.Write(2))
	require.NoError(t, h.Flush())
	assert.False(t, h.EOF())

	_, err = h.Read()
	require.NoError(t, err)
	assert.False(t, h.EOF())
	_, err = h.Read()
	require.NoError(t, err)
	assert.True(t, h.EOF(), "read ahead must notice the end without a probe")

	_, err = h.View()
	assert.ErrorIs(t, err, page.ErrExhausted)
}

func TestShortLastPage(t *testing.T) {
	// 5 records with K=2: pages of 2, 2 and 1
	data := make([]byte, 0, 20)
	for i := uint32(1); i <= 5; i++ {
		data = binary.BigEndian.AppendUint32(data, i)
	}
	h, _ := newMockHandler(t, 2, data)
	assert.Equal(t, []uint32{1, 2, 3, 4, 5}, readAll(t, h))
	assert.Equal(t, 3, h.Ops())
}

func TestTrailingBytes(t *testing.T) {
	data := binary.BigEndian.AppendUint32(nil, 7)
	data = append(data, 0xff, 0xff)
	h, _ := newMockHandler(t, 4, data)

	v, err := h.Read()
	require.NoError(t, err)
	assert.Equal(t, uint32(7), v)

	_, err = h.Read()
	var de *page.DeserializationError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, page.ErrShortRecord)
	assert.Equal(t, 2, de.DataSize)
}

func TestClear(t *testing.T) {
	h, mock := newMockHandler(t, 2, nil)
	for i := uint32(0); i < 5; i++ {
		require.NoError(t, h.Write(i))
	}
	require.NoError(t, h.Flush())
	require.NotZero(t, h.Ops())

	require.NoError(t, h.Clear())
	assert.Equal(t, 0, h.Ops())
	assert.Equal(t, int64(0), h.Size())
	assert.Empty(t, mock.Bytes())
	assert.True(t, h.EOF())

	require.NoError(t, h.Write(42))
	require.NoError(t, h.Flush())
	assert.Equal(t, []uint32{42}, readAll(t, h))
}

func TestAppendAfterFlush(t *testing.T) {
	h, _ := newMockHandler(t, 3, nil)
	require.NoError(t, h.Write(1))
	require.NoError(t, h.Write(2))
	require.NoError(t, h.Flush())
	require.NoError(t, h.Write(3))
	require.NoError(t, h.Flush())
	assert.Equal(t, int64(12), h.Size())
	assert.Equal(t, []uint32{1, 2, 3}, readAll(t, h))
}

func TestInvariants(t *testing.T) {
	h, _ := newMockHandler(t, 2, nil)
	require.NoError(t, h.Write(1))

	var ie *page.InvariantError
	_, err := h.Read()
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "read", ie.Op)
	_, err = h.View()
	require.ErrorAs(t, err, &ie)

	require.NoError(t, h.Write(2))
	require.NoError(t, h.Write(3))
	require.NoError(t, h.Flush())
	_, err = h.View() // loads a page
	require.NoError(t, err)
	err = h.Write(4)
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "write", ie.Op)
}

func TestSerializationErrors(t *testing.T) {
	boom := errors.New("boom")
	m := tempfile.Mock("mock")
	h, err := page.New(m, 4, 2,
		func(v uint32) ([]byte, error) {
			switch v {
			case 0:
				return nil, boom
			case 1:
				return []byte{1, 2, 3}, nil
			}
			return encodeU32(v)
		},
		func(b []byte) (uint32, error) {
			v, _ := decodeU32(b)
			if v == 13 {
				return 0, boom
			}
			return v, nil
		})
	require.NoError(t, err)

	var se *page.SerializationError
	err = h.Write(0)
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, boom)
	err = h.Write(1)
	require.ErrorAs(t, err, &se)

	require.NoError(t, h.Write(13))
	require.NoError(t, h.Flush())
	_, err = h.Read()
	var de *page.DeserializationError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, boom)
}

func TestDiskErrors(t *testing.T) {
	boom := errors.New("disk on fire")

	t.Run("write", func(t *testing.T) {
		h, m := newMockHandler(t, 2, nil)
		m.FailWriteAt(1, boom)
		var err error
		for i := uint32(0); i < 5 && err == nil; i++ {
			err = h.Write(i)
		}
		var de *page.DiskError
		require.ErrorAs(t, err, &de)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, "write page", de.Op)
		assert.Equal(t, "mock.tape", de.Path)
	})

	t.Run("read", func(t *testing.T) {
		h, m := newMockHandler(t, 2, make([]byte, 16))
		m.FailReadAt(0, boom)
		_, err := h.Read()
		var de *page.DiskError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "read page", de.Op)
		assert.False(t, h.EOF())

		// the failed page is read again on the next call
		assert.Len(t, readAll(t, h), 4)
	})

	t.Run("truncate", func(t *testing.T) {
		h, m := newMockHandler(t, 2, nil)
		m.FailTruncate(boom)
		err := h.Clear()
		var de *page.DiskError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "truncate", de.Op)
	})
}

func TestFailedReadAheadKeepsRecords(t *testing.T) {
	var data []byte
	for _, v := range []uint32{1, 2} {
		b, _ := encodeU32(v)
		data = append(data, b...)
	}
	h, m := newMockHandler(t, 1, data)
	m.FailReadAt(1, errors.New("transient"))

	v, err := h.Read()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v, "the record is returned even though the read ahead failed")
	assert.False(t, h.EOF())

	v, err = h.Read()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), v)
	assert.True(t, h.EOF())
}

func TestFailedReadIsReported(t *testing.T) {
	var data []byte
	for _, v := range []uint32{1, 2, 3} {
		b, _ := encodeU32(v)
		data = append(data, b...)
	}
	h, m := newMockHandler(t, 1, data)
	m.FailReadAt(1, errors.New("transient"))

	_, err := h.Read()
	require.NoError(t, err)
	m.FailReadAt(2, errors.New("still failing"))
	_, err = h.View()
	var de *page.DiskError
	require.ErrorAs(t, err, &de)
	assert.ErrorContains(t, err, "still failing")

	assert.Equal(t, []uint32{2, 3}, readAll(t, h))
}

func TestScanPreservesState(t *testing.T) {
	h, _ := newMockHandler(t, 3, nil)
	for i := uint32(0); i < 10; i++ {
		require.NoError(t, h.Write(i))
	}
	require.NoError(t, h.Flush())

	for i := 0; i < 4; i++ {
		_, err := h.Read()
		require.NoError(t, err)
	}
	ops := h.Ops()

	var seen []uint32
	require.NoError(t, h.Scan(func(v uint32) error {
		seen = append(seen, v)
		return nil
	}))
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, seen)
	assert.Equal(t, ops, h.Ops(), "scan must not count toward disk operations")

	assert.Equal(t, []uint32{4, 5, 6, 7, 8, 9}, readAll(t, h))
}

func TestScanIncludesPending(t *testing.T) {
	h, _ := newMockHandler(t, 2, nil)
	for i := uint32(0); i < 3; i++ {
		require.NoError(t, h.Write(i))
	}
	var seen []uint32
	require.NoError(t, h.Scan(func(v uint32) error {
		seen = append(seen, v)
		return nil
	}))
	assert.Equal(t, []uint32{0, 1, 2}, seen)

	require.NoError(t, h.Write(3))
	require.NoError(t, h.Flush())
	assert.Equal(t, []uint32{0, 1, 2, 3}, readAll(t, h))
}

func TestScanStops(t *testing.T) {
	h, _ := newMockHandler(t, 2, nil)
	for i := uint32(0); i < 6; i++ {
		require.NoError(t, h.Write(i))
	}
	require.NoError(t, h.Flush())
	stop := errors.New("stop")
	n := 0
	err := h.Scan(func(uint32) error {
		n++
		if n == 3 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 3, n)
	assert.Len(t, readAll(t, h), 6)
}

func TestCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t0.tape")
	h, err := page.Create(path, 4, 8, encodeU32, decodeU32)
	require.NoError(t, err)
	defer h.Close()
	assert.Equal(t, path, h.Name())
	assert.Equal(t, 4, h.RecordSize())

	for i := uint32(0); i < 20; i++ {
		require.NoError(t, h.Write(i))
	}
	require.NoError(t, h.Flush())
	got := readAll(t, h)
	assert.Len(t, got, 20)
	assert.Equal(t, 6, h.Ops())

	_, err = page.Create(filepath.Join(t.TempDir(), "missing", "t.tape"), 4, 8, encodeU32, decodeU32)
	var de *page.DiskError
	assert.ErrorAs(t, err, &de)
}

func TestNewValidation(t *testing.T) {
	_, err := page.New(tempfile.Mock("m"), 0, 1, encodeU32, decodeU32)
	assert.Error(t, err)
	_, err = page.New(tempfile.Mock("m"), 4, 0, encodeU32, decodeU32)
	assert.Error(t, err)
	_, err = page.New[uint32](tempfile.Mock("m"), 4, 1, nil, decodeU32)
	assert.Error(t, err)
}

func TestReadAheadUsesWholePages(t *testing.T) {
	h, m := newMockHandler(t, 4, make([]byte, 4*8))
	_, err := h.View()
	require.NoError(t, err)
	reads, _ := m.Calls()
	assert.Equal(t, 1, reads)
	pos, err := m.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(16), pos, "a physical read takes exactly one page")
}
