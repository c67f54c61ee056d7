package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/fastxlsx/errs"
)

const ordersJSON = `[{"name":"a","qty":2,"price":1.5},{"name":"b","qty":3}]`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func archiveEntry(t *testing.T, path, name string) string {
	t.Helper()

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)

		return string(data)
	}
	require.Failf(t, "missing entry", "%s not found in %s", name, path)

	return ""
}

func TestConvert(t *testing.T) {
	input := writeInput(t, "orders.json", ordersJSON)
	output := filepath.Join(t.TempDir(), "orders.xlsx")

	_, err := execute(t, "", "convert", input, output, "--work-path", t.TempDir(), "--log-level", "error")
	require.NoError(t, err)

	sheet := archiveEntry(t, output, "sheet.xml")
	assert.Contains(t, sheet, `<row><c t="s"><v>0</v></c><c t="s"><v>1</v></c><c t="s"><v>2</v></c></row>`)
	assert.Contains(t, sheet, `<row><c t="s"><v>3</v></c><c t="n" s="6"><v>1.5</v></c><c t="n" s="5"><v>2</v></c></row>`)
	assert.Contains(t, sheet, `<row><c t="s"><v>4</v></c><c></c><c t="n" s="5"><v>3</v></c></row>`)
	assert.Contains(t, sheet, `state="frozen"`)

	assert.Contains(t, archiveEntry(t, output, "strings.xml"), "<si><t>name</t></si><si><t>price</t></si><si><t>qty</t></si><si><t>a</t></si><si><t>b</t></si>")
}

func TestConvert_Stdin(t *testing.T) {
	output := filepath.Join(t.TempDir(), "orders.xlsx")

	_, err := execute(t, "- name: a\n- name: b\n", "convert", "-", output, "--input-format", "yaml", "--header=false", "--log-level", "error")
	require.NoError(t, err)

	sheet := archiveEntry(t, output, "sheet.xml")
	assert.Equal(t, 2, strings.Count(sheet, "<row>"))
	assert.NotContains(t, sheet, "<sheetViews>")
}

func TestConvert_FlagsAndTitles(t *testing.T) {
	input := writeInput(t, "orders.jsonl", "{\"name\":\"a\",\"qty\":2}\n")
	output := filepath.Join(t.TempDir(), "orders.xlsx")

	_, err := execute(t, "", "convert", input, output,
		"--titles", "Name,Quantity",
		"--auto-fit", "--auto-filter",
		"--sheet-name", "Orders",
		"--compression", "STORE",
		"--log-level", "error",
	)
	require.NoError(t, err)

	sheet := archiveEntry(t, output, "sheet.xml")
	assert.Contains(t, sheet, `<autoFilter ref="A1:B2"/>`)
	assert.Contains(t, sheet, `<col min="1" max="1" width="6.0" bestFit="1" customWidth="1"/>`)
	assert.Contains(t, sheet, `<col min="2" max="2" width="10.0" bestFit="1" customWidth="1"/>`)
	assert.Contains(t, archiveEntry(t, output, "strings.xml"), "<si><t>Name</t></si><si><t>Quantity</t></si>")
	assert.Contains(t, archiveEntry(t, output, "book.xml"), `<sheet name="Orders"`)
}

func TestConvert_EnvironmentAndConfig(t *testing.T) {
	input := writeInput(t, "orders.json", ordersJSON)
	config := writeInput(t, "fastxlsx.yaml", "sheet-name: FromConfig\nauto-filter: true\nfreeze-header: false\n")

	t.Run("config file", func(t *testing.T) {
		output := filepath.Join(t.TempDir(), "orders.xlsx")
		_, err := execute(t, "", "convert", input, output, "--config", config, "--log-level", "error")
		require.NoError(t, err)

		sheet := archiveEntry(t, output, "sheet.xml")
		assert.Contains(t, sheet, `<autoFilter ref="A1:C3"/>`)
		assert.NotContains(t, sheet, "<sheetViews>")
		assert.Contains(t, archiveEntry(t, output, "book.xml"), `<sheet name="FromConfig"`)
	})

	t.Run("environment overrides config", func(t *testing.T) {
		t.Setenv("FASTXLSX_SHEET_NAME", "FromEnv")

		output := filepath.Join(t.TempDir(), "orders.xlsx")
		_, err := execute(t, "", "convert", input, output, "--config", config, "--log-level", "error")
		require.NoError(t, err)

		assert.Contains(t, archiveEntry(t, output, "book.xml"), `<sheet name="FromEnv"`)
	})

	t.Run("flag overrides environment", func(t *testing.T) {
		t.Setenv("FASTXLSX_SHEET_NAME", "FromEnv")

		output := filepath.Join(t.TempDir(), "orders.xlsx")
		_, err := execute(t, "", "convert", input, output, "--sheet-name", "FromFlag", "--log-level", "error")
		require.NoError(t, err)

		assert.Contains(t, archiveEntry(t, output, "book.xml"), `<sheet name="FromFlag"`)
	})
}

func TestConvert_MetricsTextfile(t *testing.T) {
	input := writeInput(t, "orders.json", ordersJSON)
	output := filepath.Join(t.TempDir(), "orders.xlsx")
	metricsPath := filepath.Join(t.TempDir(), "fastxlsx.prom")

	_, err := execute(t, "", "convert", input, output, "--metrics-textfile", metricsPath, "--log-level", "error")
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `fastxlsx_xlsx_builds_total{result="success"} 1`)
	assert.Contains(t, string(data), "fastxlsx_xlsx_rows_written_total 2")
}

func TestConvert_Errors(t *testing.T) {
	input := writeInput(t, "orders.json", ordersJSON)
	output := filepath.Join(t.TempDir(), "orders.xlsx")

	_, err := execute(t, "", "convert", input, output, "--compression", "zstd", "--log-level", "error")
	require.ErrorIs(t, err, errs.ErrInvalidConfiguration)

	_, err = execute(t, "", "convert", input, output, "--sheet-name", strings.Repeat("x", 32), "--log-level", "error")
	require.ErrorIs(t, err, errs.ErrInvalidConfiguration)

	_, err = execute(t, "", "convert", input, output, "--sheet-name", "Q1/Q2", "--log-level", "error")
	require.ErrorIs(t, err, errs.ErrInvalidConfiguration)

	_, err = execute(t, "", "convert", filepath.Join(t.TempDir(), "missing.json"), output, "--log-level", "error")
	require.ErrorIs(t, err, errs.ErrIOFailure)

	_, err = execute(t, "", "convert", input, output, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, errs.ErrInvalidConfiguration)

	_, err = execute(t, "", "convert", input, output, "--log-level", "loud")
	require.ErrorContains(t, err, "invalid log level")

	_, err = execute(t, "", "convert", input)
	require.Error(t, err)

	assert.NoFileExists(t, output)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "fastxlsx v"+version)
	assert.Contains(t, out, "OS/Arch:")
}
