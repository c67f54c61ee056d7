package pool

import (
	"fmt"
	"io"
	"sync"

	"github.com/arloliu/fastxlsx/errs"
)

// Default sizes for the pooled cell buffers.
const (
	CellBufferDefaultSize  = 1024 * 4   // 4KiB, enough for a typical row
	CellBufferMaxThreshold = 1024 * 256 // 256KiB
	PartBufferDefaultSize  = 1024 * 64  // 64KiB
	PartBufferMaxThreshold = 1024 * 1024 * 4
)

// minimumReserve is the hint used when Reserve is called with a non-positive hint.
const minimumReserve = 256

// ByteBuffer is a growable output buffer.
//
// Bytes are written by reserving writable capacity with Reserve, filling it, and
// committing the filled prefix with Commit. Drain hands the committed bytes to an
// io.Writer and rewinds without releasing the backing array.
type ByteBuffer struct {
	// B holds the committed bytes; cap(B) is the backing capacity.
	B []byte

	reserved int   // bytes handed out by the last Reserve and not yet committed
	drained  int64 // total bytes written out by Drain
}

// NewByteBuffer creates a new ByteBuffer with the specified initial capacity.
func NewByteBuffer(size int) (*ByteBuffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: buffer size must be positive, got %d", errs.ErrInvalidConfiguration, size)
	}

	return &ByteBuffer{B: make([]byte, 0, size)}, nil
}

func newByteBuffer(size int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, size)}
}

// Bytes returns the committed bytes.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Len returns the number of committed bytes.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the backing array.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// Drained returns the total number of bytes written out by Drain.
func (bb *ByteBuffer) Drained() int64 {
	return bb.drained
}

// Reserve returns a writable slice of at least hint bytes located right after
// the committed bytes. The slice is valid until the next call that mutates the
// buffer; the bytes become part of the buffer only after Commit.
//
// When the free capacity is insufficient the backing array grows to the larger
// of twice its capacity and the committed length plus hint.
func (bb *ByteBuffer) Reserve(hint int) []byte {
	if hint <= 0 {
		hint = minimumReserve
	}

	bb.grow(hint)
	bb.reserved = cap(bb.B) - len(bb.B)

	return bb.B[len(bb.B):cap(bb.B)]
}

// Commit advances the committed length by n bytes previously obtained from
// Reserve. It fails with errs.ErrOutOfRange when n is negative or exceeds the
// reserved capacity.
func (bb *ByteBuffer) Commit(n int) error {
	if n < 0 || n > bb.reserved {
		return fmt.Errorf("%w: commit %d bytes with %d reserved", errs.ErrOutOfRange, n, bb.reserved)
	}

	bb.B = bb.B[:len(bb.B)+n]
	bb.reserved -= n

	return nil
}

func (bb *ByteBuffer) grow(requiredBytes int) {
	if cap(bb.B)-len(bb.B) >= requiredBytes {
		return
	}

	newCap := cap(bb.B) * 2
	if newCap < len(bb.B)+requiredBytes {
		newCap = len(bb.B) + requiredBytes
	}

	newBuf := make([]byte, len(bb.B), newCap)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Write appends data to the buffer, growing it as needed. It never fails.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	dst := bb.Reserve(len(data))
	n := copy(dst, data)
	bb.B = bb.B[:len(bb.B)+n]
	bb.reserved = 0

	return n, nil
}

// WriteString appends s to the buffer, growing it as needed. It never fails.
func (bb *ByteBuffer) WriteString(s string) (int, error) {
	dst := bb.Reserve(len(s))
	n := copy(dst, s)
	bb.B = bb.B[:len(bb.B)+n]
	bb.reserved = 0

	return n, nil
}

// WriteByte appends a single byte. It never fails.
func (bb *ByteBuffer) WriteByte(c byte) error {
	dst := bb.Reserve(1)
	dst[0] = c
	bb.B = bb.B[:len(bb.B)+1]
	bb.reserved = 0

	return nil
}

// Drain writes all committed bytes to w and rewinds the buffer to zero length,
// keeping the backing array for reuse.
func (bb *ByteBuffer) Drain(w io.Writer) (int64, error) {
	if w == nil {
		return 0, fmt.Errorf("%w: drain into nil writer", errs.ErrInvalidConfiguration)
	}

	n, err := w.Write(bb.B)
	bb.drained += int64(n)
	if err != nil {
		return int64(n), err
	}

	bb.truncate()

	return int64(n), nil
}

// Reset zeroes the committed bytes and rewinds without writing them anywhere.
func (bb *ByteBuffer) Reset() {
	clear(bb.B)
	bb.truncate()
}

func (bb *ByteBuffer) truncate() {
	bb.B = bb.B[:0]
	bb.reserved = 0
}

// ByteBufferPool is a pool of ByteBuffers to minimize allocations.
//
// It uses sync.Pool internally to manage the buffers.
// Buffers that grew beyond maxThreshold are dropped instead of being retained.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a new ByteBufferPool with buffers of the specified default size.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return newByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bb.drained = 0
	bbp.pool.Put(bb)
}

var (
	cellDefaultPool = NewByteBufferPool(CellBufferDefaultSize, CellBufferMaxThreshold)
	partDefaultPool = NewByteBufferPool(PartBufferDefaultSize, PartBufferMaxThreshold)
)

// GetCellBuffer retrieves a ByteBuffer from the default cell pool.
func GetCellBuffer() *ByteBuffer {
	return cellDefaultPool.Get()
}

// PutCellBuffer returns a ByteBuffer to the default cell pool.
func PutCellBuffer(bb *ByteBuffer) {
	cellDefaultPool.Put(bb)
}

// GetPartBuffer retrieves a ByteBuffer from the default part pool.
func GetPartBuffer() *ByteBuffer {
	return partDefaultPool.Get()
}

// PutPartBuffer returns a ByteBuffer to the default part pool.
func PutPartBuffer(bb *ByteBuffer) {
	partDefaultPool.Put(bb)
}
