package serializer

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/arloliu/fastxlsx/errs"
)

// annotationProvider handles types that choose their own serializer through
// Annotated or write their own cells through CellMarshaler.
func annotationProvider(_ *Registry, t reflect.Type) (Serializer, error) {
	if t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
		return nil, nil
	}

	ptr := reflect.PointerTo(t)
	if ptr.Implements(annotatedType) {
		a, _ := reflect.New(t).Interface().(Annotated)
		s := a.CellSerializer()
		if s == nil {
			return nil, errs.NewTypeError(t, fmt.Errorf("%w: CellSerializer returned nil", errs.ErrInvalidConfiguration))
		}
		if err := checkElementType(s, t); err != nil {
			return nil, err
		}

		return s, nil
	}

	if ptr.Implements(cellMarshalerType) {
		return &marshalerSerializer{
			typ:         t,
			byPointer:   !t.Implements(cellMarshalerType),
			titled:      t.Implements(titleMarshalerType),
			titledByPtr: !t.Implements(titleMarshalerType) && ptr.Implements(titleMarshalerType),
		}, nil
	}

	return nil, nil
}

// checkElementType verifies that s declares t as its element type.
func checkElementType(s Serializer, t reflect.Type) error {
	et, ok := s.(ElementTyper)
	if !ok {
		return errs.NewTypeError(t, fmt.Errorf("%w: serializer %T does not declare an element type", errs.ErrInvalidConfiguration, s))
	}
	if et.ElementType() != t {
		return errs.NewTypeError(t, fmt.Errorf("%w: serializer %T accepts %v", errs.ErrInvalidConfiguration, s, et.ElementType()))
	}

	return nil
}

type marshalerSerializer struct {
	typ         reflect.Type
	byPointer   bool
	titled      bool
	titledByPtr bool
}

// addressable returns a pointer to v, copying it when v is not addressable.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v.Addr()
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)

	return p
}

func (s *marshalerSerializer) Serialize(w *Writer, v reflect.Value) error {
	if s.byPointer {
		v = addressable(v)
	}
	m, _ := v.Interface().(CellMarshaler)

	return m.MarshalCells(w)
}

func (s *marshalerSerializer) WriteTitle(w *Writer, v reflect.Value, name string) error {
	switch {
	case s.titled:
		m, _ := v.Interface().(TitleMarshaler)
		return m.MarshalTitles(w, name)
	case s.titledByPtr:
		m, _ := addressable(v).Interface().(TitleMarshaler)
		return m.MarshalTitles(w, name)
	default:
		w.WriteString(name)
		return nil
	}
}

// genericProvider handles pointers, tuples, enumerations and named basic types.
func genericProvider(r *Registry, t reflect.Type) (Serializer, error) {
	switch {
	case t.Kind() == reflect.Pointer:
		elem, err := r.memberSerializer(t.Elem())
		if err != nil {
			return nil, err
		}

		return &pointerSerializer{elem: elem}, nil

	case t.Kind() == reflect.Struct && t.Implements(tupleMarkerType):
		return newTupleSerializer(r, t)

	case t.Name() != "" && kindSerializer(t.Kind()) != nil:
		if t.Implements(stringerType) {
			return &enumSerializer{}, nil
		}

		return kindSerializer(t.Kind()), nil
	}

	return nil, nil
}

// pointerSerializer writes an empty cell for nil and delegates otherwise.
type pointerSerializer struct {
	elem Serializer
}

func (s *pointerSerializer) Serialize(w *Writer, v reflect.Value) error {
	if v.IsNil() {
		w.WriteEmpty()
		return nil
	}

	return s.elem.Serialize(w, v.Elem())
}

func (s *pointerSerializer) WriteTitle(w *Writer, v reflect.Value, name string) error {
	if !v.IsValid() || v.IsNil() {
		w.WriteString(name)
		return nil
	}

	return s.elem.WriteTitle(w, v.Elem(), name)
}

// tupleSerializer writes the items of a Tuple2..Tuple4 in order.
type tupleSerializer struct {
	typ   reflect.Type
	items []Serializer
	names []string
}

func newTupleSerializer(r *Registry, t reflect.Type) (Serializer, error) {
	s := &tupleSerializer{
		typ:   t,
		items: make([]Serializer, t.NumField()),
		names: make([]string, t.NumField()),
	}
	for i := range t.NumField() {
		f := t.Field(i)
		item, err := r.memberSerializer(f.Type)
		if err != nil {
			return nil, err
		}
		s.items[i] = item
		s.names[i] = f.Name
	}

	return s, nil
}

func (s *tupleSerializer) Serialize(w *Writer, v reflect.Value) error {
	if err := w.Enter(); err != nil {
		return err
	}
	for i, item := range s.items {
		if err := item.Serialize(w, v.Field(i)); err != nil {
			return err
		}
	}
	w.Exit()

	return nil
}

func (s *tupleSerializer) WriteTitle(w *Writer, v reflect.Value, _ string) error {
	if err := w.Enter(); err != nil {
		return err
	}
	if !v.IsValid() {
		v = reflect.Zero(s.typ)
	}
	for i, item := range s.items {
		if err := item.WriteTitle(w, v.Field(i), s.names[i]); err != nil {
			return err
		}
	}
	w.Exit()

	return nil
}

// enumSerializer writes named values through their String method. The text
// of each distinct value is computed once.
type enumSerializer struct {
	scalarTitle
	names sync.Map // value → string
}

func (s *enumSerializer) Serialize(w *Writer, v reflect.Value) error {
	key := v.Interface()
	if name, ok := s.names.Load(key); ok {
		w.WriteString(name.(string)) //nolint: forcetypeassert
		return nil
	}

	name := key.(fmt.Stringer).String() //nolint: forcetypeassert
	s.names.Store(key, name)
	w.WriteString(name)

	return nil
}
