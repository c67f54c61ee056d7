package compress

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/fastxlsx/errs"
	"github.com/arloliu/fastxlsx/format"
)

func roundTrip(t *testing.T, c Compressor, payload string) (*zip.File, string) {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	c.Register(zw)

	w, err := zw.CreateHeader(&zip.FileHeader{Name: "sheet.xml", Method: c.Method()})
	require.NoError(t, err)
	_, err = io.WriteString(w, payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)

	return zr.File[0], string(data)
}

func TestCompressors_RoundTrip(t *testing.T) {
	payload := strings.Repeat(`<c t="s"><v>0</v></c>`, 500)

	for _, typ := range []format.CompressionType{
		format.CompressionStore,
		format.CompressionFastest,
		format.CompressionDefault,
		format.CompressionBest,
	} {
		t.Run(typ.String(), func(t *testing.T) {
			c, err := GetCompressor(typ)
			require.NoError(t, err)
			assert.Equal(t, typ, c.Type())

			f, data := roundTrip(t, c, payload)

			assert.Equal(t, payload, data)
			assert.Equal(t, c.Method(), f.Method)
			if typ == format.CompressionStore {
				assert.Equal(t, uint64(len(payload)), f.CompressedSize64)
			} else {
				assert.Less(t, f.CompressedSize64, uint64(len(payload)))
			}
		})
	}
}

func TestCompressors_ReusePooledWriters(t *testing.T) {
	c, err := GetCompressor(format.CompressionFastest)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, data := roundTrip(t, c, "repeat repeat repeat")
		assert.Equal(t, "repeat repeat repeat", data)
	}
}

func TestGetCompressor_Unknown(t *testing.T) {
	_, err := GetCompressor(format.CompressionType(0x7f))

	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInvalidConfiguration)
}
