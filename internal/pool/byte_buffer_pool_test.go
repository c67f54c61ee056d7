package pool

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/fastxlsx/errs"
)

// =============================================================================
// ByteBuffer Tests
// =============================================================================

func TestNewByteBuffer(t *testing.T) {
	bb, err := NewByteBuffer(1024)

	require.NoError(t, err)
	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len(), "new buffer should have zero length")
	assert.Equal(t, 1024, bb.Cap(), "new buffer should have specified capacity")
}

func TestNewByteBuffer_NonPositiveSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		bb, err := NewByteBuffer(size)

		require.Error(t, err)
		assert.Nil(t, bb)
		assert.ErrorIs(t, err, errs.ErrInvalidConfiguration)
	}
}

func TestByteBuffer_ReserveCommit(t *testing.T) {
	bb := newByteBuffer(16)

	dst := bb.Reserve(5)
	require.GreaterOrEqual(t, len(dst), 5)
	copy(dst, "hello")
	require.NoError(t, bb.Commit(5))

	assert.Equal(t, []byte("hello"), bb.Bytes())
}

func TestByteBuffer_Reserve_GrowsByDoubling(t *testing.T) {
	bb := newByteBuffer(8)
	_, _ = bb.WriteString("12345678")

	bb.Reserve(1)

	assert.Equal(t, 16, bb.Cap(), "capacity should double when the hint is small")
	assert.Equal(t, []byte("12345678"), bb.Bytes(), "growth should preserve data")
}

func TestByteBuffer_Reserve_GrowsByHint(t *testing.T) {
	bb := newByteBuffer(8)
	_, _ = bb.WriteString("1234")

	dst := bb.Reserve(100)

	assert.GreaterOrEqual(t, len(dst), 100)
	assert.Equal(t, 104, bb.Cap(), "capacity should cover committed length plus hint")
	assert.Equal(t, []byte("1234"), bb.Bytes())
}

func TestByteBuffer_Reserve_SufficientCapacity(t *testing.T) {
	bb := newByteBuffer(64)
	_, _ = bb.WriteString("abc")

	bb.Reserve(10)

	assert.Equal(t, 64, bb.Cap(), "no growth when capacity suffices")
}

func TestByteBuffer_Commit_OutOfRange(t *testing.T) {
	bb := newByteBuffer(16)
	dst := bb.Reserve(4)

	err := bb.Commit(len(dst) + 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrOutOfRange)

	err = bb.Commit(-1)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrOutOfRange)

	assert.Equal(t, 0, bb.Len(), "failed commit must not advance the cursor")
}

func TestByteBuffer_Commit_WithoutReserve(t *testing.T) {
	bb := newByteBuffer(16)

	assert.ErrorIs(t, bb.Commit(1), errs.ErrOutOfRange)
	assert.NoError(t, bb.Commit(0))
}

func TestByteBuffer_Commit_Partial(t *testing.T) {
	bb := newByteBuffer(16)

	dst := bb.Reserve(8)
	copy(dst, "ab")
	require.NoError(t, bb.Commit(2))

	dst = bb.Reserve(2)
	copy(dst, "cd")
	require.NoError(t, bb.Commit(2))

	assert.Equal(t, "abcd", string(bb.Bytes()))
}

func TestByteBuffer_Write(t *testing.T) {
	bb := newByteBuffer(4)

	n, err := bb.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, _ = bb.WriteString(" world")
	require.NoError(t, bb.WriteByte('!'))

	assert.Equal(t, "hello world!", string(bb.Bytes()))
}

func TestByteBuffer_Drain(t *testing.T) {
	bb := newByteBuffer(16)
	_, _ = bb.WriteString("row data")
	capBefore := bb.Cap()

	var out bytes.Buffer
	n, err := bb.Drain(&out)

	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
	assert.Equal(t, "row data", out.String())
	assert.Equal(t, 0, bb.Len(), "drain should rewind the cursor")
	assert.Equal(t, capBefore, bb.Cap(), "drain should keep the allocation")
	assert.Equal(t, int64(8), bb.Drained())

	_, _ = bb.WriteString("next")
	_, err = bb.Drain(&out)
	require.NoError(t, err)
	assert.Equal(t, "row datanext", out.String())
	assert.Equal(t, int64(12), bb.Drained())
}

func TestByteBuffer_Drain_OnlyTruncates(t *testing.T) {
	bb := newByteBuffer(16)
	_, _ = bb.WriteString("row data")
	backing := bb.B[:8]

	_, err := bb.Drain(io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, "row data", string(backing), "drain leaves the backing bytes in place")

	bb.Reset()
	assert.Equal(t, make([]byte, 8), backing, "reset zeroes what was written since the last drain")
}

func TestByteBuffer_Drain_NilWriter(t *testing.T) {
	bb := newByteBuffer(16)

	_, err := bb.Drain(nil)
	assert.ErrorIs(t, err, errs.ErrInvalidConfiguration)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestByteBuffer_Drain_ErrorKeepsData(t *testing.T) {
	bb := newByteBuffer(16)
	_, _ = bb.WriteString("keep")

	_, err := bb.Drain(failingWriter{})

	require.Error(t, err)
	assert.Equal(t, "keep", string(bb.Bytes()))
}

func TestByteBuffer_Reset(t *testing.T) {
	bb := newByteBuffer(16)
	_, _ = bb.WriteString("some data")
	backing := bb.B[:9]

	bb.Reset()

	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, make([]byte, 9), backing, "reset should zero the committed bytes")
}

// =============================================================================
// ByteBufferPool Tests
// =============================================================================

func TestGetPutCellBuffer(t *testing.T) {
	bb := GetCellBuffer()
	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len())

	_, _ = bb.WriteString("data")
	PutCellBuffer(bb)
	PutCellBuffer(nil)

	again := GetCellBuffer()
	require.NotNil(t, again)
	assert.Equal(t, 0, again.Len(), "pooled buffers must come back empty")
	PutCellBuffer(again)
}

func TestGetPutPartBuffer(t *testing.T) {
	bb := GetPartBuffer()
	require.NotNil(t, bb)
	assert.GreaterOrEqual(t, bb.Cap(), 0)
	PutPartBuffer(bb)
}

func TestByteBufferPool_MaxThreshold_Discard(t *testing.T) {
	p := NewByteBufferPool(8, 16)

	bb := p.Get()
	bb.Reserve(64)
	require.Greater(t, bb.Cap(), 16)
	p.Put(bb)

	next := p.Get()
	assert.LessOrEqual(t, next.Cap(), 16, "oversized buffers should not be retained")
}

func TestByteBufferPool_ConcurrentAccess(t *testing.T) {
	p := NewByteBufferPool(32, 0)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				bb := p.Get()
				_, _ = bb.WriteString("concurrent")
				assert.Equal(t, "concurrent", string(bb.Bytes()))
				p.Put(bb)
			}
		}()
	}
	wg.Wait()
}
