// Package fastxlsx writes sequences of Go values into SpreadsheetML (.xlsx)
// workbooks without a spreadsheet application or an in-memory document model.
//
// Records are turned into cells by serializers that are resolved once per Go
// type and cached, strings are deduplicated into the shared-string table, and
// every row is streamed to disk as soon as it is complete. The result is a
// single-sheet workbook with a fixed style palette.
//
// # Core Features
//
//   - Any record type: structs, maps, slices, tuples, scalars and []any rows
//   - Member names and order through `xlsx:"name:...;order:N"` tags
//   - Optional header row, literal or derived from the first record
//   - Optional column auto-fit from a bounded prefix of records
//   - Frozen header pane and auto-filter
//   - Atomic replacement of the target file
//
// # Basic Usage
//
//	type Order struct {
//	    ID       int       `xlsx:"name:Order ID"`
//	    Customer string
//	    Amount   float64
//	    Placed   time.Time
//	}
//
//	opts, _ := fastxlsx.NewOptions(
//	    serializer.WithHeaderRecord(true),
//	    serializer.WithAutoFitColumns(true),
//	)
//	if err := fastxlsx.SerializeToFile(orders, "orders.xlsx", opts); err != nil {
//	    return err
//	}
//
// Records can also come from an iterator with SerializeSeqToFile. The
// iterator must be re-iterable when auto-fit or a derived header is enabled,
// since the first records are read twice.
//
// # Package Structure
//
// The serializer package holds the registry, the strategies and the cell
// writer; the container package writes the archive parts and the zip file.
// This package ties them together.
package fastxlsx

import (
	"bufio"
	"fmt"
	"iter"
	"reflect"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/arloliu/fastxlsx/container"
	"github.com/arloliu/fastxlsx/errs"
	"github.com/arloliu/fastxlsx/metrics"
	"github.com/arloliu/fastxlsx/serializer"
)

const sheetBufferSize = 64 * 1024

// NewOptions returns the default options with opts applied.
func NewOptions(opts ...serializer.Option) (*serializer.Options, error) {
	return serializer.NewOptions(opts...)
}

// SerializeToFile writes records into a workbook at path, replacing any
// existing file. Nil options use the defaults.
func SerializeToFile[T any](records []T, path string, opts *serializer.Options) error {
	return serializeToFile(slices.Values(records), path, opts)
}

// SerializeSeqToFile writes the records produced by seq into a workbook at
// path, replacing any existing file. Nil options use the defaults.
func SerializeSeqToFile[T any](seq iter.Seq[T], path string, opts *serializer.Options) error {
	if seq == nil {
		return fmt.Errorf("%w: nil record sequence", errs.ErrInvalidConfiguration)
	}

	return serializeToFile(seq, path, opts)
}

func serializeToFile[T any](records iter.Seq[T], path string, opts *serializer.Options) (err error) {
	start := time.Now()

	if path == "" {
		return fmt.Errorf("%w: empty target path", errs.ErrInvalidConfiguration)
	}
	if opts == nil {
		opts = serializer.DefaultOptions()
	}
	o := *opts
	if err := o.Validate(); err != nil {
		return err
	}

	logger := o.Logger.With(zap.String("path", path), zap.Stringer("type", reflect.TypeFor[T]()))
	defer func() {
		if err != nil {
			o.Metrics.ObserveFailure(time.Since(start))
			logger.Debug("workbook build failed", zap.Error(err))
		}
	}()

	ser, err := o.Registry.Resolve(reflect.TypeFor[T]())
	if err != nil {
		return err
	}

	logger.Debug("building workbook",
		zap.Bool("header", o.HasHeaderRecord),
		zap.Bool("autoFit", o.AutoFitColumns),
	)

	stage, err := container.NewStage(o.WorkPath, logger)
	if err != nil {
		return err
	}
	defer stage.Remove()

	w := serializer.NewWriter(&o)
	defer w.Close()

	res, err := writeSheetPart(stage, &sheetAssembler[T]{opts: &o, ser: ser, w: w, logger: logger}, records)
	if err != nil {
		return err
	}

	size, err := stage.Finish(path, container.Workbook{
		SheetName:        o.SheetName,
		Formats:          formatsOf(&o),
		SharedStrings:    w.SharedStrings(),
		SharedStringRefs: w.SharedStringReferences(),
		Compression:      o.Compression,
	})
	if err != nil {
		return err
	}

	elapsed := time.Since(start)
	o.Metrics.ObserveSuccess(metrics.BuildStats{
		Rows:          res.rows,
		SharedStrings: w.SharedStringCount(),
		SheetBytes:    w.BytesWritten(),
		Duration:      elapsed,
	})
	logger.Debug("workbook written",
		zap.Int("rows", res.rows),
		zap.Int("columns", res.columns),
		zap.Int("sharedStrings", w.SharedStringCount()),
		zap.Bool("hashCollisions", w.SharedStringCollisions()),
		zap.Int64("sheetBytes", w.BytesWritten()),
		zap.Int64("archiveBytes", size),
		zap.Duration("elapsed", elapsed),
	)

	return nil
}

// writeSheetPart streams the worksheet into the staged sheet part.
func writeSheetPart[T any](stage *container.Stage, a *sheetAssembler[T], records iter.Seq[T]) (sheetResult, error) {
	f, err := stage.CreateSheet()
	if err != nil {
		return sheetResult{}, err
	}

	bw := bufio.NewWriterSize(f, sheetBufferSize)
	a.out = bw

	res, err := a.write(records)
	if err != nil {
		_ = f.Close()
		return res, err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return res, errs.IO("flush sheet part", err)
	}
	if err := f.Close(); err != nil {
		return res, errs.IO("close sheet part", err)
	}

	return res, nil
}

func formatsOf(o *serializer.Options) container.Formats {
	return container.Formats{
		DateTime: o.DateTimeFormat,
		Date:     o.DateFormat,
		Time:     o.TimeFormat,
		Integer:  o.IntegerFormat,
		Number:   o.NumberFormat,
	}
}
