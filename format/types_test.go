package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStyleSlot_NumFmtID(t *testing.T) {
	tests := []struct {
		slot StyleSlot
		want int
	}{
		{StyleDefault, 0},
		{StyleWrapText, 0},
		{StyleDateTime, 164},
		{StyleDate, 165},
		{StyleTime, 166},
		{StyleInteger, 167},
		{StyleNumber, 168},
	}

	for _, tt := range tests {
		t.Run(tt.slot.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.slot.NumFmtID())
		})
	}
}

func TestParseCompression(t *testing.T) {
	c, ok := ParseCompression("best")
	require.True(t, ok)
	assert.Equal(t, CompressionBest, c)

	c, ok = ParseCompression("")
	require.True(t, ok)
	assert.Equal(t, CompressionDefault, c)

	_, ok = ParseCompression("zstd")
	assert.False(t, ok)
	assert.Equal(t, "Unknown", CompressionType(0).String())
}
