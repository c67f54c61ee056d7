// Package serializer turns Go values into SpreadsheetML cell markup.
//
// A Registry picks one Serializer per reflect.Type the first time the type is
// seen and caches it. The resolution chain, first match wins:
//
//  1. serializers passed to NewRegistry or Registry.Register
//  2. bool, signed and unsigned integers, float32 and float64
//  3. string, time.Time, time.Duration, url.URL, *url.URL, uuid.UUID,
//     civil.Date, civil.Time, civil.DateTime and []byte
//  4. types implementing Annotated or CellMarshaler
//  5. pointers, Tuple2..Tuple4, fmt.Stringer enumerations and other named
//     basic types
//  6. slices and arrays of KeyValue, other slices and arrays, and maps
//  7. the empty interface, resolved by dynamic type at write time
//  8. structs with at least one exported member
//
// Anything else fails with errs.ErrUnsupportedType, and the failure is cached
// like a success.
//
// Struct members are configured with the xlsx tag:
//
//	type Order struct {
//	    ID       int       `xlsx:"name:Order ID;order:1"`
//	    Customer string    `xlsx:"order:2"`
//	    Note     string    `xlsx:"serializer:upper"`
//	    Internal string    `xlsx:"-"`
//	    Placed   time.Time
//	}
//
// Members sort by order (declaration index by default), then name. A named
// serializer must be registered with Registry.RegisterNamed before the struct
// is first resolved.
//
// Cells are written through a Writer, which also interns strings into the
// shared-string table, tracks column widths for auto-fit and guards the
// nesting depth.
package serializer
