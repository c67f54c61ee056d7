package serializer

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/mattn/go-runewidth"

	"github.com/arloliu/fastxlsx/errs"
	"github.com/arloliu/fastxlsx/format"
	"github.com/arloliu/fastxlsx/internal/pool"
	"github.com/arloliu/fastxlsx/internal/sst"
)

const (
	dateTimeLayout = "2006-01-02T15:04:05"
	clockLayout    = "15:04:05"
	timeAnchor     = "1900-01-01T"

	dateTimeWidth = 18
	dateWidth     = 10
	timeWidth     = 8
)

// Cell markup fragments. Every cell is written as one of these prefixes, the
// value text, and cellSuffix.
var (
	cellEmpty         = "<c></c>"
	cellSuffix        = "</v></c>"
	cellBool          = `<c t="b"><v>`
	cellString        = `<c t="s"><v>`
	cellStringWrapped = fmt.Sprintf(`<c t="s" s="%d"><v>`, format.StyleWrapText)
	cellDateTime      = fmt.Sprintf(`<c t="d" s="%d"><v>`, format.StyleDateTime)
	cellDate          = fmt.Sprintf(`<c t="d" s="%d"><v>`, format.StyleDate)
	cellTime          = fmt.Sprintf(`<c t="d" s="%d"><v>`, format.StyleTime) + timeAnchor
	cellInteger       = fmt.Sprintf(`<c t="n" s="%d"><v>`, format.StyleInteger)
	cellNumber        = fmt.Sprintf(`<c t="n" s="%d"><v>`, format.StyleNumber)
)

// Writer streams cell markup for one workbook build.
//
// A Writer owns a pooled output buffer, the shared-string table, the column
// width accumulator and the nesting depth counter. It is not safe for
// concurrent use; call Close to return the buffer to the pool.
type Writer struct {
	buf     *pool.ByteBuffer
	opts    *Options
	strings *sst.Table

	colMax   map[int]int
	counting bool
	col      int
	maxCol   int
	depth    int

	rowRefs       int // shared-string references in the current row
	discardedRefs int // references dropped by Clear
}

// NewWriter creates a Writer for a build with opts. Column widths are
// measured until StopCounting is called.
func NewWriter(opts *Options) *Writer {
	if opts == nil {
		opts = DefaultOptions()
	}

	return &Writer{
		buf:      pool.GetCellBuffer(),
		opts:     opts,
		strings:  sst.NewTable(),
		colMax:   make(map[int]int),
		counting: true,
	}
}

// Options returns the options of the build.
func (w *Writer) Options() *Options {
	return w.opts
}

// Close returns the output buffer to the pool. The Writer must not be used
// afterwards.
func (w *Writer) Close() {
	if w.buf != nil {
		pool.PutCellBuffer(w.buf)
		w.buf = nil
	}
}

// Enter increments the nesting depth. It fails with errs.ErrDepthExceeded
// when the depth reaches MaxDepth.
func (w *Writer) Enter() error {
	w.depth++
	if w.depth >= w.opts.MaxDepth {
		w.depth--
		return fmt.Errorf("%w: limit %d", errs.ErrDepthExceeded, w.opts.MaxDepth)
	}

	return nil
}

// Exit decrements the nesting depth.
func (w *Writer) Exit() {
	if w.depth > 0 {
		w.depth--
	}
}

// Depth returns the current nesting depth.
func (w *Writer) Depth() int {
	return w.depth
}

// StopCounting disables column width measurement.
func (w *Writer) StopCounting() {
	w.counting = false
}

// Counting reports whether column widths are being measured.
func (w *Writer) Counting() bool {
	return w.counting
}

// OpenRow starts a row.
func (w *Writer) OpenRow() {
	_, _ = w.buf.WriteString("<row>")
}

// CloseRow ends a row.
func (w *Writer) CloseRow() {
	_, _ = w.buf.WriteString("</row>")
}

// WriteRaw appends markup verbatim.
func (w *Writer) WriteRaw(s string) {
	_, _ = w.buf.WriteString(s)
}

// DrainRow flushes the buffered markup to dst and resets the column and
// depth for the next row.
func (w *Writer) DrainRow(dst io.Writer) error {
	if _, err := w.buf.Drain(dst); err != nil {
		return errs.IO("flush row", err)
	}
	w.endRow()

	return nil
}

// Clear discards the buffered markup without writing it and resets the
// column and depth. Shared strings seen so far stay in the table.
func (w *Writer) Clear() {
	w.buf.Reset()
	w.discardedRefs += w.rowRefs
	w.endRow()
}

func (w *Writer) endRow() {
	w.col = 0
	w.depth = 0
	w.rowRefs = 0
}

// WriteEmpty writes an empty cell.
func (w *Writer) WriteEmpty() {
	_, _ = w.buf.WriteString(cellEmpty)
	w.advance(0)
}

// WriteString writes s as a shared-string cell. Empty strings are written as
// empty cells; strings containing a line feed use the wrap-text style.
func (w *Writer) WriteString(s string) {
	if s == "" {
		w.WriteEmpty()
		return
	}

	id := w.strings.Index(s)
	w.rowRefs++

	wrap := strings.IndexByte(s, '\n') >= 0
	if wrap {
		_, _ = w.buf.WriteString(cellStringWrapped)
	} else {
		_, _ = w.buf.WriteString(cellString)
	}
	w.appendInt(int64(id))
	_, _ = w.buf.WriteString(cellSuffix)

	if w.counting {
		w.advance(displayWidth(s, wrap))
	} else {
		w.advance(0)
	}
}

// WriteBool writes a boolean cell.
func (w *Writer) WriteBool(b bool) {
	_, _ = w.buf.WriteString(cellBool)
	width := 5
	if b {
		_ = w.buf.WriteByte('1')
		width = 4
	} else {
		_ = w.buf.WriteByte('0')
	}
	_, _ = w.buf.WriteString(cellSuffix)
	w.advance(width)
}

// WriteInt writes a signed integer cell.
func (w *Writer) WriteInt(n int64) {
	_, _ = w.buf.WriteString(cellInteger)
	width := w.appendInt(n)
	_, _ = w.buf.WriteString(cellSuffix)
	w.advance(width)
}

// WriteUint writes an unsigned integer cell.
func (w *Writer) WriteUint(n uint64) {
	_, _ = w.buf.WriteString(cellInteger)
	dst := w.buf.Reserve(20)
	b := strconv.AppendUint(dst[:0], n, 10)
	_ = w.buf.Commit(len(b))
	_, _ = w.buf.WriteString(cellSuffix)
	w.advance(len(b))
}

// WriteFloat writes a decimal cell. NaN and infinities are written as empty
// cells.
func (w *Writer) WriteFloat(f float64) {
	w.writeFloat(f, 64)
}

// WriteFloat32 writes a decimal cell using the shortest float32 text.
func (w *Writer) WriteFloat32(f float32) {
	w.writeFloat(float64(f), 32)
}

func (w *Writer) writeFloat(f float64, bits int) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		w.WriteEmpty()
		return
	}

	_, _ = w.buf.WriteString(cellNumber)
	dst := w.buf.Reserve(32)
	b := appendFloat(dst[:0], f, bits)
	_ = w.buf.Commit(len(b))
	_, _ = w.buf.WriteString(cellSuffix)
	w.advance(len(b))
}

// WriteDateTime writes a date-time cell. Values without a time of day use the
// date style; the zero time and years outside 1..9999 are written as empty
// cells.
func (w *Writer) WriteDateTime(t time.Time) {
	if t.IsZero() || !inYearRange(t.Year()) {
		w.WriteEmpty()
		return
	}

	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		w.writeTime(cellDate, t, dateTimeLayout, dateWidth)
		return
	}

	w.writeTime(cellDateTime, t, dateTimeLayout, dateTimeWidth)
}

// WriteDate writes a date cell. Invalid dates and years outside 1..9999 are
// written as empty cells.
func (w *Writer) WriteDate(d civil.Date) {
	if !d.IsValid() || !inYearRange(d.Year) {
		w.WriteEmpty()
		return
	}

	w.writeTime(cellDate, d.In(time.UTC), dateTimeLayout, dateWidth)
}

// WriteTime writes a time-of-day cell anchored to 1900-01-01.
func (w *Writer) WriteTime(t civil.Time) {
	if !t.IsValid() {
		w.WriteEmpty()
		return
	}

	clock := time.Date(1900, time.January, 1, t.Hour, t.Minute, t.Second, 0, time.UTC)
	w.writeTime(cellTime, clock, clockLayout, timeWidth)
}

// WriteDateTimeCivil writes a local date-time the way WriteDateTime does.
func (w *Writer) WriteDateTimeCivil(dt civil.DateTime) {
	if !dt.IsValid() {
		w.WriteEmpty()
		return
	}

	w.WriteDateTime(dt.In(time.UTC))
}

func inYearRange(year int) bool {
	return year >= 1 && year <= 9999
}

func (w *Writer) writeTime(prefix string, t time.Time, layout string, width int) {
	_, _ = w.buf.WriteString(prefix)
	dst := w.buf.Reserve(len(layout) + 8)
	b := t.AppendFormat(dst[:0], layout)
	_ = w.buf.Commit(len(b))
	_, _ = w.buf.WriteString(cellSuffix)
	w.advance(width)
}

// appendInt writes n in decimal and returns the number of bytes written.
func (w *Writer) appendInt(n int64) int {
	dst := w.buf.Reserve(20)
	b := strconv.AppendInt(dst[:0], n, 10)
	_ = w.buf.Commit(len(b))

	return len(b)
}

// advance moves to the next column, recording width for the current one
// while counting.
func (w *Writer) advance(width int) {
	if w.counting && width > w.colMax[w.col] {
		w.colMax[w.col] = width
	}

	w.col++
	if w.col > w.maxCol {
		w.maxCol = w.col
	}
}

// SharedStrings returns the distinct strings in id order.
func (w *Writer) SharedStrings() []string {
	return w.strings.Values()
}

// SharedStringCount returns the number of distinct shared strings.
func (w *Writer) SharedStringCount() int {
	return w.strings.Len()
}

// SharedStringReferences returns the number of shared-string cells flushed or
// still buffered, excluding cells discarded by Clear.
func (w *Writer) SharedStringReferences() int {
	return w.strings.References() - w.discardedRefs
}

// SharedStringCollisions reports whether two distinct strings of this build
// shared a hash.
func (w *Writer) SharedStringCollisions() bool {
	return w.strings.HasCollision()
}

// ColumnMaxLength returns the measured width per zero-based column.
func (w *Writer) ColumnMaxLength() map[int]int {
	return w.colMax
}

// MaxColumns returns the largest number of cells written in any row.
func (w *Writer) MaxColumns() int {
	return w.maxCol
}

// Column returns the zero-based index of the next cell in the current row.
func (w *Writer) Column() int {
	return w.col
}

// BytesWritten returns the number of bytes flushed by DrainRow.
func (w *Writer) BytesWritten() int64 {
	return w.buf.Drained()
}

// Bytes returns the buffered markup.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// String returns the buffered markup as a string.
func (w *Writer) String() string {
	return string(w.buf.Bytes())
}

// displayWidth returns the terminal-cell width of s, or of its longest line
// when wrapped.
func displayWidth(s string, wrapped bool) int {
	if !wrapped {
		return runewidth.StringWidth(s)
	}

	width := 0
	for line := range strings.SplitSeq(s, "\n") {
		width = max(width, runewidth.StringWidth(line))
	}

	return width
}

// appendFloat formats f like encoding/json does: plain decimal notation unless
// the magnitude is very small or very large.
func appendFloat(dst []byte, f float64, bits int) []byte {
	abs := math.Abs(f)
	fmtByte := byte('f')
	if abs != 0 {
		if bits == 64 && (abs < 1e-6 || abs >= 1e21) || bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e21) {
			fmtByte = 'e'
		}
	}

	dst = strconv.AppendFloat(dst, f, fmtByte, -1, bits)
	if fmtByte == 'e' {
		// clean up e-09 to e-9
		n := len(dst)
		if n >= 4 && dst[n-4] == 'e' && dst[n-3] == '-' && dst[n-2] == '0' {
			dst[n-2] = dst[n-1]
			dst = dst[:n-1]
		}
	}

	return dst
}
