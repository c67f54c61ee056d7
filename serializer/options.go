package serializer

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf16"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/arloliu/fastxlsx/errs"
	"github.com/arloliu/fastxlsx/format"
	"github.com/arloliu/fastxlsx/internal/options"
	"github.com/arloliu/fastxlsx/metrics"
)

// Default option values.
const (
	DefaultMaxDepth        = 64
	DefaultAutoFitDepth    = 200
	DefaultAutoFitWidthMax = 100
	DefaultSheetName       = "Sheet"
)

// Options controls a workbook build.
//
// Options are created with NewOptions and must not be modified once a build
// has started; use With to derive a variant.
type Options struct {
	// Culture is carried for custom serializers. Built-in strategies always
	// emit culture-invariant cell text.
	Culture language.Tag

	// MaxDepth bounds nesting of objects and collections within one record.
	MaxDepth int

	// HasHeaderRecord writes a header row before the data rows.
	HasHeaderRecord bool
	// HeaderTitles are literal header titles. When empty, titles are derived
	// from the first record.
	HeaderTitles []string
	// FreezeHeader freezes the header row when one is written.
	FreezeHeader bool

	// AutoFitColumns measures the header and the first AutoFitDepth records to
	// size the columns.
	AutoFitColumns  bool
	AutoFitDepth    int
	AutoFitWidthMax int

	// AutoFilter adds an auto-filter over the written range.
	AutoFilter bool

	DateTimeFormat string
	DateFormat     string
	TimeFormat     string
	IntegerFormat  string
	NumberFormat   string

	// SheetName is the name of the single worksheet.
	SheetName string
	// WorkPath is the directory under which staging directories are created.
	WorkPath string
	// Compression selects the archive entry compression.
	Compression format.CompressionType

	// Registry resolves serializers. Nil means DefaultRegistry().
	Registry *Registry
	// Logger receives build diagnostics. Nil means a no-op logger.
	Logger *zap.Logger
	// Metrics records build statistics when set.
	Metrics *metrics.Collector
}

// Option configures Options.
type Option = options.Option[*Options]

// DefaultOptions returns the default options.
func DefaultOptions() *Options {
	return &Options{
		Culture:         language.Und,
		MaxDepth:        DefaultMaxDepth,
		FreezeHeader:    true,
		AutoFitDepth:    DefaultAutoFitDepth,
		AutoFitWidthMax: DefaultAutoFitWidthMax,
		DateTimeFormat:  format.DefaultDateTimeFormat,
		DateFormat:      format.DefaultDateFormat,
		TimeFormat:      format.DefaultTimeFormat,
		IntegerFormat:   format.DefaultIntegerFormat,
		NumberFormat:    format.DefaultNumberFormat,
		SheetName:       DefaultSheetName,
		WorkPath:        os.TempDir(),
		Compression:     format.CompressionDefault,
		Registry:        DefaultRegistry(),
		Logger:          zap.NewNop(),
	}
}

// NewOptions returns the default options with opts applied.
//
// Example:
//
//	opts, err := serializer.NewOptions(
//	    serializer.WithHeaderRecord(true),
//	    serializer.WithAutoFitColumns(true),
//	)
func NewOptions(opts ...Option) (*Options, error) {
	o := DefaultOptions()
	if err := options.Apply(o, opts...); err != nil {
		return nil, err
	}

	return o, nil
}

// With returns a copy of o with opts applied. o is left unchanged.
func (o *Options) With(opts ...Option) (*Options, error) {
	cp := *o
	cp.HeaderTitles = append([]string(nil), o.HeaderTitles...)
	if err := options.Apply(&cp, opts...); err != nil {
		return nil, err
	}

	return &cp, nil
}

// Validate checks the option values. It is run by NewOptions and With.
func (o *Options) Validate() error {
	switch {
	case o.MaxDepth <= 0:
		return fmt.Errorf("%w: max depth must be positive, got %d", errs.ErrInvalidConfiguration, o.MaxDepth)
	case o.AutoFitDepth < 0:
		return fmt.Errorf("%w: auto-fit depth must not be negative, got %d", errs.ErrInvalidConfiguration, o.AutoFitDepth)
	case o.AutoFitWidthMax <= 0:
		return fmt.Errorf("%w: auto-fit width max must be positive, got %d", errs.ErrInvalidConfiguration, o.AutoFitWidthMax)
	case o.SheetName == "":
		return fmt.Errorf("%w: sheet name must not be empty", errs.ErrInvalidConfiguration)
	case sheetNameLen(o.SheetName) > maxSheetNameLen:
		return fmt.Errorf("%w: sheet name %q longer than %d characters", errs.ErrInvalidConfiguration, o.SheetName, maxSheetNameLen)
	case strings.ContainsAny(o.SheetName, sheetNameForbidden):
		return fmt.Errorf("%w: sheet name %q contains one of %s", errs.ErrInvalidConfiguration, o.SheetName, sheetNameForbidden)
	case strings.HasPrefix(o.SheetName, "'") || strings.HasSuffix(o.SheetName, "'"):
		return fmt.Errorf("%w: sheet name %q starts or ends with an apostrophe", errs.ErrInvalidConfiguration, o.SheetName)
	case o.Compression < format.CompressionStore || o.Compression > format.CompressionBest:
		return fmt.Errorf("%w: unknown compression %d", errs.ErrInvalidConfiguration, o.Compression)
	}

	formats := []struct{ name, code string }{
		{"date-time", o.DateTimeFormat},
		{"date", o.DateFormat},
		{"time", o.TimeFormat},
		{"integer", o.IntegerFormat},
		{"number", o.NumberFormat},
	}
	for _, f := range formats {
		if f.code == "" {
			return fmt.Errorf("%w: %s format must not be empty", errs.ErrInvalidConfiguration, f.name)
		}
	}

	if o.Registry == nil {
		o.Registry = DefaultRegistry()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}

	return nil
}

const (
	maxSheetNameLen    = 31
	sheetNameForbidden = `[]:*?/\`
)

// sheetNameLen counts UTF-16 code units, the unit spreadsheet applications
// limit sheet names by.
func sheetNameLen(name string) int {
	n := 0
	for _, r := range name {
		n += max(utf16.RuneLen(r), 1)
	}

	return n
}

// WithCulture sets the culture carried for custom serializers.
func WithCulture(tag language.Tag) Option {
	return options.NoError(func(o *Options) {
		o.Culture = tag
	})
}

// WithCultureName parses a BCP 47 language tag such as "en-US" or "ja-JP".
func WithCultureName(name string) Option {
	return options.New(func(o *Options) error {
		tag, err := language.Parse(name)
		if err != nil {
			return fmt.Errorf("%w: culture %q: %w", errs.ErrInvalidConfiguration, name, err)
		}
		o.Culture = tag

		return nil
	})
}

// WithMaxDepth sets the nesting limit.
func WithMaxDepth(depth int) Option {
	return options.NoError(func(o *Options) {
		o.MaxDepth = depth
	})
}

// WithHeaderRecord enables or disables the header row.
func WithHeaderRecord(enabled bool) Option {
	return options.NoError(func(o *Options) {
		o.HasHeaderRecord = enabled
	})
}

// WithHeaderTitles sets literal header titles and enables the header row.
func WithHeaderTitles(titles ...string) Option {
	return options.NoError(func(o *Options) {
		o.HeaderTitles = append([]string(nil), titles...)
		o.HasHeaderRecord = true
	})
}

// WithFreezeHeader controls whether the header row is frozen.
func WithFreezeHeader(enabled bool) Option {
	return options.NoError(func(o *Options) {
		o.FreezeHeader = enabled
	})
}

// WithAutoFitColumns enables or disables column auto-fit.
func WithAutoFitColumns(enabled bool) Option {
	return options.NoError(func(o *Options) {
		o.AutoFitColumns = enabled
	})
}

// WithAutoFitDepth sets how many records are measured for auto-fit.
func WithAutoFitDepth(depth int) Option {
	return options.NoError(func(o *Options) {
		o.AutoFitDepth = depth
	})
}

// WithAutoFitWidthMax caps the auto-fit column width.
func WithAutoFitWidthMax(width int) Option {
	return options.NoError(func(o *Options) {
		o.AutoFitWidthMax = width
	})
}

// WithAutoFilter enables or disables the auto-filter.
func WithAutoFilter(enabled bool) Option {
	return options.NoError(func(o *Options) {
		o.AutoFilter = enabled
	})
}

// WithDateTimeFormat sets the number format code of date-time cells.
func WithDateTimeFormat(code string) Option {
	return options.NoError(func(o *Options) {
		o.DateTimeFormat = code
	})
}

// WithDateFormat sets the number format code of date cells.
func WithDateFormat(code string) Option {
	return options.NoError(func(o *Options) {
		o.DateFormat = code
	})
}

// WithTimeFormat sets the number format code of time cells.
func WithTimeFormat(code string) Option {
	return options.NoError(func(o *Options) {
		o.TimeFormat = code
	})
}

// WithIntegerFormat sets the number format code of integer cells.
func WithIntegerFormat(code string) Option {
	return options.NoError(func(o *Options) {
		o.IntegerFormat = code
	})
}

// WithNumberFormat sets the number format code of decimal cells.
func WithNumberFormat(code string) Option {
	return options.NoError(func(o *Options) {
		o.NumberFormat = code
	})
}

// WithSheetName sets the worksheet name.
func WithSheetName(name string) Option {
	return options.NoError(func(o *Options) {
		o.SheetName = name
	})
}

// WithWorkPath sets the staging root directory. The directory must exist.
func WithWorkPath(dir string) Option {
	return options.New(func(o *Options) error {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("%w: work path %q: %w", errs.ErrInvalidConfiguration, dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%w: work path %q is not a directory", errs.ErrInvalidConfiguration, dir)
		}
		o.WorkPath = dir

		return nil
	})
}

// WithCompression sets the archive entry compression.
func WithCompression(c format.CompressionType) Option {
	return options.NoError(func(o *Options) {
		o.Compression = c
	})
}

// WithRegistry sets the serializer registry.
func WithRegistry(r *Registry) Option {
	return options.NoError(func(o *Options) {
		o.Registry = r
	})
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return options.NoError(func(o *Options) {
		o.Logger = l
	})
}

// WithMetrics sets the metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return options.NoError(func(o *Options) {
		o.Metrics = c
	})
}
