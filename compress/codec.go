package compress

import (
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/arloliu/fastxlsx/errs"
	"github.com/arloliu/fastxlsx/format"
)

// Compressor configures how entries of a zip archive are compressed.
//
// A Compressor registers its implementation on a zip.Writer once and then
// reports the method id each entry header must carry.
type Compressor interface {
	// Type identifies the compression setting.
	Type() format.CompressionType

	// Method returns the zip method id written into entry headers.
	Method() uint16

	// Register installs the compressor on zw. It must be called before the
	// first entry is created.
	Register(zw *zip.Writer)
}

// storeCompressor writes entries without compression.
type storeCompressor struct{}

var _ Compressor = storeCompressor{}

func (storeCompressor) Type() format.CompressionType { return format.CompressionStore }

func (storeCompressor) Method() uint16 { return zip.Store }

func (storeCompressor) Register(*zip.Writer) {}

// deflateCompressor deflates entries at a fixed level using pooled writers.
type deflateCompressor struct {
	typ   format.CompressionType
	level int
	pool  *sync.Pool
}

var _ Compressor = (*deflateCompressor)(nil)

func newDeflateCompressor(typ format.CompressionType, level int) *deflateCompressor {
	return &deflateCompressor{
		typ:   typ,
		level: level,
		pool: &sync.Pool{
			New: func() any {
				fw, err := flate.NewWriter(io.Discard, level)
				if err != nil {
					// Levels are fixed by this package, so this cannot happen.
					panic(fmt.Sprintf("failed to create flate writer for pool: %v", err))
				}

				return fw
			},
		},
	}
}

func (c *deflateCompressor) Type() format.CompressionType { return c.typ }

func (c *deflateCompressor) Method() uint16 { return zip.Deflate }

// Register replaces the archive's default deflate implementation with one
// bound to this compressor's level.
func (c *deflateCompressor) Register(zw *zip.Writer) {
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		fw, _ := c.pool.Get().(*flate.Writer)
		fw.Reset(w)

		return &pooledFlateWriter{Writer: fw, pool: c.pool}, nil
	})
}

// pooledFlateWriter returns its flate.Writer to the pool on Close.
type pooledFlateWriter struct {
	*flate.Writer
	pool *sync.Pool
}

func (w *pooledFlateWriter) Close() error {
	if w.Writer == nil {
		return nil
	}

	err := w.Writer.Close()
	w.pool.Put(w.Writer)
	w.Writer = nil

	return err
}

var builtinCompressors = map[format.CompressionType]Compressor{
	format.CompressionStore:   storeCompressor{},
	format.CompressionFastest: newDeflateCompressor(format.CompressionFastest, flate.BestSpeed),
	format.CompressionDefault: newDeflateCompressor(format.CompressionDefault, flate.DefaultCompression),
	format.CompressionBest:    newDeflateCompressor(format.CompressionBest, flate.BestCompression),
}

// GetCompressor retrieves the built-in Compressor for the given type.
func GetCompressor(compressionType format.CompressionType) (Compressor, error) {
	if c, ok := builtinCompressors[compressionType]; ok {
		return c, nil
	}

	return nil, fmt.Errorf("%w: unsupported archive compression: %s", errs.ErrInvalidConfiguration, compressionType)
}
