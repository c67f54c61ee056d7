package format

type (
	StyleSlot       uint8
	CompressionType uint8
)

// Fixed cell style indexes into the cellXfs table of styles.xml.
const (
	StyleDefault  StyleSlot = 0 // StyleDefault is the unformatted style.
	StyleWrapText StyleSlot = 1 // StyleWrapText wraps multi-line text.
	StyleDateTime StyleSlot = 2 // StyleDateTime formats a date with time of day.
	StyleDate     StyleSlot = 3 // StyleDate formats a date without time of day.
	StyleTime     StyleSlot = 4 // StyleTime formats a time of day.
	StyleInteger  StyleSlot = 5 // StyleInteger formats whole numbers.
	StyleNumber   StyleSlot = 6 // StyleNumber formats decimal numbers.

	// StyleCount is the number of entries in the cellXfs table.
	StyleCount = 7

	// FirstCustomNumFmtID is the first number format id not reserved for
	// built-in formats.
	FirstCustomNumFmtID = 164
)

const (
	CompressionStore   CompressionType = 0x1 // CompressionStore stores zip entries uncompressed.
	CompressionFastest CompressionType = 0x2 // CompressionFastest deflates with the fastest level.
	CompressionDefault CompressionType = 0x3 // CompressionDefault deflates with the default level.
	CompressionBest    CompressionType = 0x4 // CompressionBest deflates with the best ratio.
)

// Default number format codes for the formatted style slots.
const (
	DefaultDateTimeFormat = "yyyy/mm/dd hh:mm;@"
	DefaultDateFormat     = "yyyy/mm/dd;@"
	DefaultTimeFormat     = "hh:mm;@"
	DefaultIntegerFormat  = `#,##0;[Red]\-#,##0`
	DefaultNumberFormat   = `#,##0.00;[Red]\-#,##0.00`
)

func (s StyleSlot) String() string {
	switch s {
	case StyleDefault:
		return "Default"
	case StyleWrapText:
		return "WrapText"
	case StyleDateTime:
		return "DateTime"
	case StyleDate:
		return "Date"
	case StyleTime:
		return "Time"
	case StyleInteger:
		return "Integer"
	case StyleNumber:
		return "Number"
	default:
		return "Unknown"
	}
}

// NumFmtID returns the custom number format id bound to a formatted slot,
// or 0 for the default and wrap-text slots.
func (s StyleSlot) NumFmtID() int {
	if s < StyleDateTime || s > StyleNumber {
		return 0
	}

	return FirstCustomNumFmtID + int(s-StyleDateTime)
}

func (c CompressionType) String() string {
	switch c {
	case CompressionStore:
		return "Store"
	case CompressionFastest:
		return "Fastest"
	case CompressionDefault:
		return "Default"
	case CompressionBest:
		return "Best"
	default:
		return "Unknown"
	}
}

// ParseCompression maps a case-sensitive lowercase name to a CompressionType.
func ParseCompression(name string) (CompressionType, bool) {
	switch name {
	case "store", "none":
		return CompressionStore, true
	case "fastest", "fast":
		return CompressionFastest, true
	case "default", "":
		return CompressionDefault, true
	case "best":
		return CompressionBest, true
	default:
		return 0, false
	}
}
