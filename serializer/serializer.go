package serializer

import (
	"fmt"
	"reflect"

	"github.com/arloliu/fastxlsx/errs"
)

// Serializer encodes values of a single Go type as spreadsheet cells.
//
// Implementations are resolved once per type by a Registry and shared by every
// build afterwards, so they must be stateless or safe for concurrent use.
type Serializer interface {
	// Serialize writes the cells for v. v always has the type the serializer
	// was resolved for.
	Serialize(w *Writer, v reflect.Value) error

	// WriteTitle writes one header cell per cell that Serialize would emit for
	// v, using name for scalar cells.
	WriteTitle(w *Writer, v reflect.Value, name string) error
}

// ElementTyper is implemented by custom serializers to declare the type they
// accept. Registries validate it against the annotated or registered type.
type ElementTyper interface {
	ElementType() reflect.Type
}

// Annotated is implemented by types that name their own serializer.
// CellSerializer is called once, on a pointer to the zero value, during
// resolution; the returned serializer must implement ElementTyper and accept
// exactly the annotated type.
type Annotated interface {
	CellSerializer() Serializer
}

// CellMarshaler is implemented by types that write their own cells.
type CellMarshaler interface {
	MarshalCells(w *Writer) error
}

// TitleMarshaler is optionally implemented by CellMarshaler types that emit
// more than one cell, to keep derived headers aligned with their data.
type TitleMarshaler interface {
	MarshalTitles(w *Writer, name string) error
}

// Func adapts fn into a Serializer for values of type T. The returned
// serializer implements ElementTyper and writes name as its single title.
//
// Example:
//
//	upper := serializer.Func(func(w *serializer.Writer, s string) error {
//	    w.WriteString(strings.ToUpper(s))
//	    return nil
//	})
func Func[T any](fn func(w *Writer, v T) error) Serializer {
	return &funcSerializer[T]{fn: fn}
}

type funcSerializer[T any] struct {
	scalarTitle
	fn func(w *Writer, v T) error
}

func (s *funcSerializer[T]) ElementType() reflect.Type {
	return reflect.TypeFor[T]()
}

func (s *funcSerializer[T]) Serialize(w *Writer, v reflect.Value) error {
	var val T
	if v.IsValid() {
		var ok bool
		if val, ok = v.Interface().(T); !ok {
			return fmt.Errorf("%w: serializer for %v received %v", errs.ErrInvalidConfiguration, reflect.TypeFor[T](), v.Type())
		}
	}

	return s.fn(w, val)
}

// scalarTitle implements WriteTitle for serializers that emit exactly one cell.
type scalarTitle struct{}

func (scalarTitle) WriteTitle(w *Writer, _ reflect.Value, name string) error {
	w.WriteString(name)
	return nil
}

// Tuple2 is a fixed two-element heterogeneous value serialized as two cells.
type Tuple2[T1, T2 any] struct {
	Item1 T1
	Item2 T2
}

// Tuple3 is a fixed three-element heterogeneous value serialized as three cells.
type Tuple3[T1, T2, T3 any] struct {
	Item1 T1
	Item2 T2
	Item3 T3
}

// Tuple4 is a fixed four-element heterogeneous value serialized as four cells.
type Tuple4[T1, T2, T3, T4 any] struct {
	Item1 T1
	Item2 T2
	Item3 T3
	Item4 T4
}

func (Tuple2[T1, T2]) isTuple()         {}
func (Tuple3[T1, T2, T3]) isTuple()     {}
func (Tuple4[T1, T2, T3, T4]) isTuple() {}

// NewTuple2 returns a Tuple2 holding a and b.
func NewTuple2[T1, T2 any](a T1, b T2) Tuple2[T1, T2] {
	return Tuple2[T1, T2]{Item1: a, Item2: b}
}

// NewTuple3 returns a Tuple3 holding a, b and c.
func NewTuple3[T1, T2, T3 any](a T1, b T2, c T3) Tuple3[T1, T2, T3] {
	return Tuple3[T1, T2, T3]{Item1: a, Item2: b, Item3: c}
}

// KeyValue is a key/value pair. Slices and arrays of KeyValue serialize as a
// flat run of key and value cells.
type KeyValue[K, V any] struct {
	Key   K
	Value V
}

func (KeyValue[K, V]) isKeyValue() {}

type tupleMarker interface{ isTuple() }

type keyValueMarker interface{ isKeyValue() }

var (
	anyType            = reflect.TypeFor[any]()
	annotatedType      = reflect.TypeFor[Annotated]()
	cellMarshalerType  = reflect.TypeFor[CellMarshaler]()
	titleMarshalerType = reflect.TypeFor[TitleMarshaler]()
	tupleMarkerType    = reflect.TypeFor[tupleMarker]()
	keyValueMarkerType = reflect.TypeFor[keyValueMarker]()
	stringerType       = reflect.TypeFor[fmt.Stringer]()
)

func isNilable(k reflect.Kind) bool {
	switch k { //nolint: exhaustive
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}
