// Package compress provides the entry compressors used when packaging a
// workbook into its zip container.
//
// SpreadsheetML readers accept stored and deflated entries, so the package
// exposes one store setting and three deflate levels backed by
// github.com/klauspost/compress/flate:
//
//	format.CompressionStore    entries are stored as-is
//	format.CompressionFastest  flate.BestSpeed
//	format.CompressionDefault  flate.DefaultCompression
//	format.CompressionBest     flate.BestCompression
//
// Usage:
//
//	c, err := compress.GetCompressor(format.CompressionDefault)
//	if err != nil {
//	    return err
//	}
//	zw := zip.NewWriter(out)
//	c.Register(zw)
//	w, _ := zw.CreateHeader(&zip.FileHeader{Name: "sheet.xml", Method: c.Method()})
//
// Deflate writers are pooled per level; Compressors are safe for concurrent
// use by independent archives.
package compress
