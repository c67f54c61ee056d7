package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/fastxlsx/errs"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path     string
		explicit string
		want     inputFormat
	}{
		{"orders.json", "", formatJSON},
		{"orders.JSONL", "", formatJSONLines},
		{"orders.ndjson", "", formatJSONLines},
		{"orders.yml", "", formatYAML},
		{"orders.yaml", "", formatYAML},
		{"orders.txt", "", formatJSON},
		{"-", "", formatJSON},
		{"-", "yaml", formatYAML},
		{"orders.json", "jsonl", formatJSONLines},
	}

	for _, tt := range tests {
		got, err := detectFormat(tt.path, tt.explicit)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, "%s (%q)", tt.path, tt.explicit)
	}

	_, err := detectFormat("orders.json", "csv")
	require.ErrorIs(t, err, errs.ErrInvalidConfiguration)
}

func TestReadRecords_JSON(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format inputFormat
	}{
		{"array", `[{"name":"a","qty":2,"price":1.5},{"name":"b","qty":3.0}]`, formatJSON},
		{"lines detected", "{\"name\":\"a\",\"qty\":2,\"price\":1.5}\n{\"name\":\"b\",\"qty\":3.0}\n", formatJSON},
		{"lines", "{\"name\":\"a\",\"qty\":2,\"price\":1.5}\n\n{\"name\":\"b\",\"qty\":3.0}", formatJSONLines},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := readRecords(strings.NewReader(tt.input), tt.format)
			require.NoError(t, err)
			require.Len(t, records, 2)

			assert.Equal(t, map[string]any{"name": "a", "qty": int64(2), "price": 1.5}, records[0])
			assert.Equal(t, map[string]any{"name": "b", "qty": int64(3)}, records[1])
		})
	}
}

func TestReadRecords_Empty(t *testing.T) {
	for _, f := range []inputFormat{formatJSON, formatJSONLines, formatYAML} {
		records, err := readRecords(strings.NewReader("  \n"), f)
		require.NoError(t, err, f)
		assert.Empty(t, records, f)
	}
}

func TestReadRecords_InvalidJSON(t *testing.T) {
	_, err := readRecords(strings.NewReader(`[{"name":}]`), formatJSON)
	require.Error(t, err)

	_, err = readRecords(strings.NewReader("{\"a\":1}\n{oops"), formatJSONLines)
	require.ErrorContains(t, err, "record 1")
}

func TestReadRecords_YAML(t *testing.T) {
	t.Run("sequence", func(t *testing.T) {
		input := "- name: a\n  qty: 2\n- name: b\n  qty: 2.5\n  tags: [x, y]\n"
		records, err := readRecords(strings.NewReader(input), formatYAML)
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, map[string]any{"name": "a", "qty": int64(2)}, records[0])
		assert.Equal(t, map[string]any{"name": "b", "qty": 2.5, "tags": []any{"x", "y"}}, records[1])
	})

	t.Run("documents", func(t *testing.T) {
		input := "name: a\n---\nname: b\n1: one\n"
		records, err := readRecords(strings.NewReader(input), formatYAML)
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, map[string]any{"name": "a"}, records[0])
		assert.Equal(t, map[string]any{"name": "b", "1": "one"}, records[1])
	})
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, int64(3), normalize(3.0))
	assert.Equal(t, 3.25, normalize(3.25))
	assert.Equal(t, 1e300, normalize(1e300))
	assert.Equal(t, int64(7), normalize(7))
	assert.Equal(t, "x", normalize("x"))
	assert.Nil(t, normalize(nil))
	assert.Equal(t, []any{int64(1), map[string]any{"k": int64(2)}}, normalize([]any{1.0, map[any]any{"k": 2}}))
}

func TestToRows(t *testing.T) {
	records := []any{
		map[string]any{"name": "a", "qty": int64(2), "price": 1.5},
		map[string]any{"name": "b", "extra": true},
	}

	keys, rows, err := toRows(records)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "price", "qty"}, keys)
	assert.Equal(t, [][]any{
		{"a", 1.5, int64(2)},
		{"b", nil, nil},
	}, rows)

	keys, rows, err = toRows(nil)
	require.NoError(t, err)
	assert.Nil(t, keys)
	assert.Nil(t, rows)

	_, _, err = toRows([]any{map[string]any{"a": 1}, "scalar"})
	require.ErrorIs(t, err, errs.ErrInvalidConfiguration)
	require.ErrorContains(t, err, "record 1")

	_, _, err = toRows([]any{int64(1)})
	require.ErrorIs(t, err, errs.ErrInvalidConfiguration)
}
