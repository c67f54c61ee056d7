package fastxlsx

import (
	"fmt"
	"io"
	"iter"
	"reflect"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/arloliu/fastxlsx/serializer"
)

const (
	sheetStart = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">`
	sheetEnd        = "</worksheet>"
	sheetDataStart  = "<sheetData>"
	sheetDataEnd    = "</sheetData>"
	colsStart       = "<cols>"
	colsEnd         = "</cols>"
	frozenHeaderRow = `<sheetViews><sheetView tabSelected="1" workbookViewId="0">` +
		`<pane ySplit="1" topLeftCell="A2" activePane="bottomLeft" state="frozen"/>` +
		`</sheetView></sheetViews>`

	columnWidthMargin = 2
)

// sheetResult summarizes a written worksheet.
type sheetResult struct {
	rows    int // data rows, excluding the header
	columns int
}

// sheetAssembler streams the worksheet part of one build.
type sheetAssembler[T any] struct {
	opts   *serializer.Options
	ser    serializer.Serializer
	w      *serializer.Writer
	out    io.Writer
	logger *zap.Logger
}

// isNilRecord reports whether v is a nil record, which produces no row.
func isNilRecord(v reflect.Value) bool {
	switch v.Kind() { //nolint: exhaustive
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}

// write emits the complete worksheet for records.
func (a *sheetAssembler[T]) write(records iter.Seq[T]) (sheetResult, error) {
	var res sheetResult

	withHeader := a.opts.HasHeaderRecord
	var sample reflect.Value
	if withHeader && len(a.opts.HeaderTitles) == 0 {
		sample = firstRecord(records)
	}

	if a.opts.AutoFitColumns {
		if err := a.measure(records, withHeader, sample); err != nil {
			return res, err
		}
	}
	a.w.StopCounting()

	a.w.WriteRaw(sheetStart)
	if withHeader && a.opts.FreezeHeader {
		a.w.WriteRaw(frozenHeaderRow)
	}
	if a.opts.AutoFitColumns {
		a.writeColumns()
	}
	a.w.WriteRaw(sheetDataStart)
	if err := a.w.DrainRow(a.out); err != nil {
		return res, err
	}

	totalRows := 0
	if withHeader {
		a.w.OpenRow()
		if err := a.writeHeader(sample); err != nil {
			return res, err
		}
		a.w.CloseRow()
		if err := a.w.DrainRow(a.out); err != nil {
			return res, err
		}
		totalRows++
	}

	for rec := range records {
		v := reflect.ValueOf(&rec).Elem()
		if isNilRecord(v) {
			continue
		}

		a.w.OpenRow()
		if err := a.ser.Serialize(a.w, v); err != nil {
			return res, fmt.Errorf("record %d: %w", res.rows, err)
		}
		a.w.CloseRow()
		if err := a.w.DrainRow(a.out); err != nil {
			return res, err
		}
		res.rows++
		totalRows++
	}

	res.columns = a.w.MaxColumns()

	a.w.WriteRaw(sheetDataEnd)
	if a.opts.AutoFilter && totalRows > 0 && res.columns > 0 {
		a.w.WriteRaw(`<autoFilter ref="A1:` + columnName(res.columns) + strconv.Itoa(totalRows) + `"/>`)
	}
	a.w.WriteRaw(sheetEnd)

	return res, a.w.DrainRow(a.out)
}

// measure runs the auto-fit pre-pass over the header and the first
// AutoFitDepth records. Markup is discarded; only column widths are kept.
func (a *sheetAssembler[T]) measure(records iter.Seq[T], withHeader bool, sample reflect.Value) error {
	if withHeader {
		if err := a.writeHeader(sample); err != nil {
			return err
		}
		a.w.Clear()
	}

	measured := 0
	for rec := range records {
		if measured >= a.opts.AutoFitDepth {
			break
		}
		measured++

		v := reflect.ValueOf(&rec).Elem()
		if isNilRecord(v) {
			continue
		}
		if err := a.ser.Serialize(a.w, v); err != nil {
			return fmt.Errorf("measure record %d: %w", measured-1, err)
		}
		a.w.Clear()
	}

	a.logger.Debug("auto-fit measured",
		zap.Int("records", measured),
		zap.Int("columns", len(a.w.ColumnMaxLength())),
	)

	return nil
}

// writeHeader writes literal titles, or titles derived from sample.
func (a *sheetAssembler[T]) writeHeader(sample reflect.Value) error {
	if len(a.opts.HeaderTitles) > 0 {
		for _, title := range a.opts.HeaderTitles {
			a.w.WriteString(title)
		}

		return nil
	}

	return a.ser.WriteTitle(a.w, sample, "value")
}

// writeColumns writes the measured column widths in column order.
func (a *sheetAssembler[T]) writeColumns() {
	widths := a.w.ColumnMaxLength()
	if len(widths) == 0 {
		return
	}

	cols := make([]int, 0, len(widths))
	for col := range widths {
		cols = append(cols, col)
	}
	slices.Sort(cols)

	a.w.WriteRaw(colsStart)
	for _, col := range cols {
		width := min(a.opts.AutoFitWidthMax, widths[col]+columnWidthMargin)
		a.w.WriteRaw(fmt.Sprintf(`<col min="%d" max="%d" width="%.1f" bestFit="1" customWidth="1"/>`, col+1, col+1, float64(width)))
	}
	a.w.WriteRaw(colsEnd)
}

// firstRecord returns the first non-nil record, or the zero value of T when
// there is none.
func firstRecord[T any](records iter.Seq[T]) reflect.Value {
	for rec := range records {
		v := reflect.ValueOf(&rec).Elem()
		if !isNilRecord(v) {
			return v
		}
	}

	return reflect.New(reflect.TypeFor[T]()).Elem()
}

// columnName converts a 1-based column number to its letter name.
func columnName(n int) string {
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		n--
		i--
		buf[i] = byte('A' + n%26)
		n /= 26
	}

	return string(buf[i:])
}
