package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/fastxlsx/errs"
)

// inputFormat names a supported record encoding.
type inputFormat string

const (
	formatJSON      inputFormat = "json"  // one JSON array, or JSON lines when the input does not start with '['
	formatJSONLines inputFormat = "jsonl" // one JSON value per line
	formatYAML      inputFormat = "yaml"  // one sequence, or a stream of documents
)

// detectFormat resolves the input format from an explicit name, falling back
// to the file extension and then to JSON.
func detectFormat(path, explicit string) (inputFormat, error) {
	name := strings.ToLower(strings.TrimSpace(explicit))
	if name == "" {
		name = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		if name == "" {
			return formatJSON, nil
		}
	}

	switch name {
	case "json":
		return formatJSON, nil
	case "jsonl", "ndjson":
		return formatJSONLines, nil
	case "yaml", "yml":
		return formatYAML, nil
	}

	if explicit == "" {
		return formatJSON, nil
	}

	return "", fmt.Errorf("%w: unknown input format %q", errs.ErrInvalidConfiguration, explicit)
}

// loadRecords reads all records from path, or from stdin when path is "-".
func loadRecords(path, explicitFormat string, stdin io.Reader) ([]any, error) {
	f, err := detectFormat(path, explicitFormat)
	if err != nil {
		return nil, err
	}

	if path == "-" {
		return readRecords(stdin, f)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errs.IO("open input", err)
	}
	defer file.Close()

	return readRecords(file, f)
}

// readRecords decodes every record in r.
func readRecords(r io.Reader, f inputFormat) ([]any, error) {
	var (
		records []any
		err     error
	)

	switch f {
	case formatJSON:
		records, err = readJSON(r)
	case formatJSONLines:
		records, err = readJSONLines(r)
	case formatYAML:
		records, err = readYAML(r)
	default:
		return nil, fmt.Errorf("%w: unknown input format %q", errs.ErrInvalidConfiguration, f)
	}
	if err != nil {
		return nil, err
	}

	for i, rec := range records {
		records[i] = normalize(rec)
	}

	return records, nil
}

func readJSON(r io.Reader) ([]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.IO("read input", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return readJSONLines(bytes.NewReader(trimmed))
	}

	dec := gojson.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var records []any
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode json array: %w", err)
	}

	return records, nil
}

func readJSONLines(r io.Reader) ([]any, error) {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()

	var records []any
	for {
		var rec any
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode json record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
}

func readYAML(r io.Reader) ([]any, error) {
	dec := yaml.NewDecoder(r)

	var records []any
	for {
		var doc any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode yaml document: %w", err)
		}

		if seq, ok := doc.([]any); ok {
			records = append(records, seq...)
		} else if doc != nil {
			records = append(records, doc)
		}
	}
}

// normalize converts decoded values into the shapes the serializer renders
// best: JSON numbers and whole floats become int64 where they fit, and YAML
// mappings with non-string keys get string keys.
func normalize(v any) any {
	switch x := v.(type) {
	case gojson.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return normalize(f)
		}

		return x.String()
	case float64:
		if x == math.Trunc(x) && x >= math.MinInt64 && x < math.MaxInt64 {
			return int64(x)
		}

		return x
	case int:
		return int64(x)
	case map[string]any:
		for k, item := range x {
			x[k] = normalize(item)
		}

		return x
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, item := range x {
			m[fmt.Sprint(k)] = normalize(item)
		}

		return m
	case []any:
		for i, item := range x {
			x[i] = normalize(item)
		}

		return x
	default:
		return v
	}
}

// toRows flattens object records into rows. Columns are the keys of the
// first record in ascending order; keys missing from later records produce
// empty cells and keys absent from the first record are dropped.
func toRows(records []any) ([]string, [][]any, error) {
	if len(records) == 0 {
		return nil, nil, nil
	}

	first, ok := records[0].(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("%w: record 0 is %T, not an object", errs.ErrInvalidConfiguration, records[0])
	}

	keys := make([]string, 0, len(first))
	for k := range first {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	rows := make([][]any, 0, len(records))
	for i, rec := range records {
		m, ok := rec.(map[string]any)
		if !ok {
			return nil, nil, fmt.Errorf("%w: record %d is %T, not an object", errs.ErrInvalidConfiguration, i, rec)
		}

		row := make([]any, len(keys))
		for j, k := range keys {
			row[j] = m[k]
		}
		rows = append(rows, row)
	}

	return keys, rows, nil
}
