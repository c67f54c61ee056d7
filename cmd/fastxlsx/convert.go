package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/arloliu/fastxlsx"
	"github.com/arloliu/fastxlsx/errs"
	"github.com/arloliu/fastxlsx/format"
	"github.com/arloliu/fastxlsx/metrics"
	"github.com/arloliu/fastxlsx/serializer"
)

func newConvertCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <input> <output.xlsx>",
		Short: "Convert JSON or YAML records into an xlsx workbook",
		Long: `Convert reads a list of objects and writes them as rows of a single-sheet workbook.
Input may be a JSON array, JSON lines or YAML; use "-" to read stdin.
Columns are the keys of the first record in ascending order.

Every flag can also be set in the config file or through a FASTXLSX_ environment
variable, e.g. FASTXLSX_SHEET_NAME=Orders.

Example:
  fastxlsx convert orders.json orders.xlsx --auto-fit --auto-filter`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(v); err != nil {
				return err
			}

			return runConvert(cmd, v, args[0], args[1])
		},
	}

	flags := cmd.Flags()
	flags.String("input-format", "", "Input format: json, jsonl or yaml (default: from the file extension)")
	flags.Bool("header", true, "Write a header row")
	flags.StringSlice("titles", nil, "Literal header titles (default: the record keys)")
	flags.Bool("freeze-header", true, "Freeze the header row")
	flags.Bool("auto-fit", false, "Size columns to their content")
	flags.Int("auto-fit-depth", serializer.DefaultAutoFitDepth, "Number of records measured for auto-fit")
	flags.Int("auto-fit-width-max", serializer.DefaultAutoFitWidthMax, "Maximum auto-fit column width")
	flags.Bool("auto-filter", false, "Add an auto-filter over the written range")
	flags.String("sheet-name", serializer.DefaultSheetName, "Worksheet name")
	flags.String("work-path", "", "Directory for staging files (default: the system temp directory)")
	flags.String("compression", "default", "Compression: store, fastest, default or best")
	flags.Int("max-depth", serializer.DefaultMaxDepth, "Maximum nesting depth of a record")
	flags.String("culture", "", "BCP 47 culture tag, e.g. en-US")
	flags.String("datetime-format", format.DefaultDateTimeFormat, "Number format code for date-time cells")
	flags.String("date-format", format.DefaultDateFormat, "Number format code for date cells")
	flags.String("time-format", format.DefaultTimeFormat, "Number format code for time cells")
	flags.String("integer-format", format.DefaultIntegerFormat, "Number format code for integer cells")
	flags.String("number-format", format.DefaultNumberFormat, "Number format code for decimal cells")
	flags.String("metrics-textfile", "", "Write build metrics in Prometheus text format to this file")
	_ = v.BindPFlags(flags)

	return cmd
}

func runConvert(cmd *cobra.Command, v *viper.Viper, input, output string) error {
	logger, err := newLogger(v.GetString("log-level"), v.GetBool("log-development"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	start := time.Now()

	records, err := loadRecords(input, v.GetString("input-format"), cmd.InOrStdin())
	if err != nil {
		return err
	}
	keys, rows, err := toRows(records)
	if err != nil {
		return err
	}

	var reg *prometheus.Registry
	var collector *metrics.Collector
	metricsPath := v.GetString("metrics-textfile")
	if metricsPath != "" {
		reg = prometheus.NewRegistry()
		collector = metrics.NewCollector(reg, "")
	}

	opts, err := buildOptions(v, keys, logger, collector)
	if err != nil {
		return err
	}

	if err := fastxlsx.SerializeToFile(rows, output, opts); err != nil {
		return fmt.Errorf("convert %s: %w", input, err)
	}

	logger.Info("workbook written",
		zap.String("input", input),
		zap.String("output", output),
		zap.Int("rows", len(rows)),
		zap.Int("columns", len(keys)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if reg != nil {
		if err := prometheus.WriteToTextfile(metricsPath, reg); err != nil {
			return errs.IO("write metrics", err)
		}
	}

	return nil
}

// buildOptions maps the bound flags onto workbook options. keys are the
// derived column titles used when no literal titles are configured.
func buildOptions(v *viper.Viper, keys []string, logger *zap.Logger, collector *metrics.Collector) (*serializer.Options, error) {
	compression, ok := format.ParseCompression(strings.ToLower(v.GetString("compression")))
	if !ok {
		return nil, fmt.Errorf("%w: unknown compression %q", errs.ErrInvalidConfiguration, v.GetString("compression"))
	}

	opts := []serializer.Option{
		serializer.WithMaxDepth(v.GetInt("max-depth")),
		serializer.WithFreezeHeader(v.GetBool("freeze-header")),
		serializer.WithAutoFitColumns(v.GetBool("auto-fit")),
		serializer.WithAutoFitDepth(v.GetInt("auto-fit-depth")),
		serializer.WithAutoFitWidthMax(v.GetInt("auto-fit-width-max")),
		serializer.WithAutoFilter(v.GetBool("auto-filter")),
		serializer.WithSheetName(v.GetString("sheet-name")),
		serializer.WithCompression(compression),
		serializer.WithDateTimeFormat(v.GetString("datetime-format")),
		serializer.WithDateFormat(v.GetString("date-format")),
		serializer.WithTimeFormat(v.GetString("time-format")),
		serializer.WithIntegerFormat(v.GetString("integer-format")),
		serializer.WithNumberFormat(v.GetString("number-format")),
		serializer.WithLogger(logger),
		serializer.WithMetrics(collector),
	}

	if culture := v.GetString("culture"); culture != "" {
		opts = append(opts, serializer.WithCultureName(culture))
	}
	if dir := v.GetString("work-path"); dir != "" {
		opts = append(opts, serializer.WithWorkPath(dir))
	}
	if v.GetBool("header") {
		titles := v.GetStringSlice("titles")
		if len(titles) == 0 {
			titles = keys
		}
		if len(titles) > 0 {
			opts = append(opts, serializer.WithHeaderTitles(titles...))
		}
	}

	return fastxlsx.NewOptions(opts...)
}
