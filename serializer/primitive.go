package serializer

import "reflect"

// primitiveSerializers maps the exact predeclared numeric and boolean types.
var primitiveSerializers = map[reflect.Type]Serializer{
	reflect.TypeFor[bool]():    boolSerializer{},
	reflect.TypeFor[int]():     intSerializer{},
	reflect.TypeFor[int8]():    intSerializer{},
	reflect.TypeFor[int16]():   intSerializer{},
	reflect.TypeFor[int32]():   intSerializer{},
	reflect.TypeFor[int64]():   intSerializer{},
	reflect.TypeFor[uint]():    uintSerializer{},
	reflect.TypeFor[uint8]():   uintSerializer{},
	reflect.TypeFor[uint16]():  uintSerializer{},
	reflect.TypeFor[uint32]():  uintSerializer{},
	reflect.TypeFor[uint64]():  uintSerializer{},
	reflect.TypeFor[uintptr](): uintSerializer{},
	reflect.TypeFor[float32](): float32Serializer{},
	reflect.TypeFor[float64](): float64Serializer{},
}

func primitiveProvider(_ *Registry, t reflect.Type) (Serializer, error) {
	return primitiveSerializers[t], nil
}

// kindSerializer returns the primitive serializer for the underlying kind of
// a named basic type, or nil.
func kindSerializer(k reflect.Kind) Serializer {
	switch k { //nolint: exhaustive
	case reflect.Bool:
		return boolSerializer{}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intSerializer{}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return uintSerializer{}
	case reflect.Float32:
		return float32Serializer{}
	case reflect.Float64:
		return float64Serializer{}
	case reflect.String:
		return stringSerializer{}
	default:
		return nil
	}
}

type boolSerializer struct{ scalarTitle }

func (boolSerializer) Serialize(w *Writer, v reflect.Value) error {
	w.WriteBool(v.Bool())
	return nil
}

type intSerializer struct{ scalarTitle }

func (intSerializer) Serialize(w *Writer, v reflect.Value) error {
	w.WriteInt(v.Int())
	return nil
}

type uintSerializer struct{ scalarTitle }

func (uintSerializer) Serialize(w *Writer, v reflect.Value) error {
	w.WriteUint(v.Uint())
	return nil
}

type float32Serializer struct{ scalarTitle }

func (float32Serializer) Serialize(w *Writer, v reflect.Value) error {
	w.WriteFloat32(float32(v.Float()))
	return nil
}

type float64Serializer struct{ scalarTitle }

func (float64Serializer) Serialize(w *Writer, v reflect.Value) error {
	w.WriteFloat(v.Float())
	return nil
}
