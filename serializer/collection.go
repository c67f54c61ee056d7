package serializer

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

const (
	keyTitle   = "Key"
	valueTitle = "Value"
)

// collectionProvider handles slices, arrays and maps.
func collectionProvider(r *Registry, t reflect.Type) (Serializer, error) {
	switch t.Kind() { //nolint: exhaustive
	case reflect.Slice, reflect.Array:
		elem := t.Elem()
		if elem.Kind() == reflect.Struct && elem.Implements(keyValueMarkerType) {
			key, err := r.memberSerializer(elem.Field(0).Type)
			if err != nil {
				return nil, err
			}
			val, err := r.memberSerializer(elem.Field(1).Type)
			if err != nil {
				return nil, err
			}

			return &pairSequenceSerializer{key: key, value: val, valueNilable: isNilable(elem.Field(1).Type.Kind())}, nil
		}

		s, err := r.memberSerializer(elem)
		if err != nil {
			return nil, err
		}

		return &sequenceSerializer{elem: s}, nil

	case reflect.Map:
		key, err := r.memberSerializer(t.Key())
		if err != nil {
			return nil, err
		}
		val, err := r.memberSerializer(t.Elem())
		if err != nil {
			return nil, err
		}

		return &mapSerializer{
			key:          key,
			value:        val,
			valueNilable: isNilable(t.Elem().Kind()),
			ordered:      isOrderedKind(t.Key().Kind()),
		}, nil
	}

	return nil, nil
}

// sequenceSerializer writes the elements of a slice or array one after
// another. A nil slice is written as one empty cell.
type sequenceSerializer struct {
	elem Serializer
}

func (s *sequenceSerializer) Serialize(w *Writer, v reflect.Value) error {
	if v.Kind() == reflect.Slice && v.IsNil() {
		w.WriteEmpty()
		return nil
	}

	if err := w.Enter(); err != nil {
		return err
	}
	for i := range v.Len() {
		if err := s.elem.Serialize(w, v.Index(i)); err != nil {
			return err
		}
	}
	w.Exit()

	return nil
}

func (s *sequenceSerializer) WriteTitle(w *Writer, v reflect.Value, name string) error {
	if !v.IsValid() || v.Kind() == reflect.Slice && v.IsNil() {
		w.WriteString(name)
		return nil
	}

	if err := w.Enter(); err != nil {
		return err
	}
	for i := range v.Len() {
		if err := s.elem.WriteTitle(w, v.Index(i), name); err != nil {
			return err
		}
	}
	w.Exit()

	return nil
}

// pairSequenceSerializer writes a slice or array of KeyValue as alternating
// key and value cells.
type pairSequenceSerializer struct {
	key          Serializer
	value        Serializer
	valueNilable bool
}

func (s *pairSequenceSerializer) Serialize(w *Writer, v reflect.Value) error {
	if v.Kind() == reflect.Slice && v.IsNil() {
		w.WriteEmpty()
		return nil
	}

	if err := w.Enter(); err != nil {
		return err
	}
	for i := range v.Len() {
		pair := v.Index(i)
		if err := writePair(w, s.key, s.value, s.valueNilable, pair.Field(0), pair.Field(1)); err != nil {
			return err
		}
	}
	w.Exit()

	return nil
}

func (s *pairSequenceSerializer) WriteTitle(w *Writer, v reflect.Value, name string) error {
	if !v.IsValid() || v.Kind() == reflect.Slice && v.IsNil() {
		w.WriteString(name)
		return nil
	}

	if err := w.Enter(); err != nil {
		return err
	}
	for i := range v.Len() {
		pair := v.Index(i)
		if err := writePairTitle(w, s.key, s.value, pair.Field(0), pair.Field(1)); err != nil {
			return err
		}
	}
	w.Exit()

	return nil
}

// mapSerializer writes map entries as alternating key and value cells. Keys of
// ordered kinds are written in ascending order; other keys are ordered by
// dynamic kind, type and text so every row has the same layout.
type mapSerializer struct {
	key          Serializer
	value        Serializer
	valueNilable bool
	ordered      bool
}

func (s *mapSerializer) Serialize(w *Writer, v reflect.Value) error {
	if v.IsNil() {
		w.WriteEmpty()
		return nil
	}

	if err := w.Enter(); err != nil {
		return err
	}
	for _, k := range s.keys(v) {
		if err := writePair(w, s.key, s.value, s.valueNilable, k, v.MapIndex(k)); err != nil {
			return err
		}
	}
	w.Exit()

	return nil
}

func (s *mapSerializer) WriteTitle(w *Writer, v reflect.Value, name string) error {
	if !v.IsValid() || v.IsNil() {
		w.WriteString(name)
		return nil
	}

	if err := w.Enter(); err != nil {
		return err
	}
	for _, k := range s.keys(v) {
		if err := writePairTitle(w, s.key, s.value, k, v.MapIndex(k)); err != nil {
			return err
		}
	}
	w.Exit()

	return nil
}

func (s *mapSerializer) keys(v reflect.Value) []reflect.Value {
	keys := v.MapKeys()
	if s.ordered {
		slices.SortFunc(keys, compareKeys)
	} else {
		sortDynamicKeys(keys)
	}

	return keys
}

// sortDynamicKeys orders keys whose type has no natural order, such as
// interface or struct keys.
func sortDynamicKeys(keys []reflect.Value) {
	type sortKey struct {
		key  reflect.Value
		dyn  reflect.Value
		typ  string
		text string
	}

	entries := make([]sortKey, len(keys))
	for i, k := range keys {
		dyn := k
		if dyn.Kind() == reflect.Interface {
			dyn = dyn.Elem()
		}
		e := sortKey{key: k, dyn: dyn}
		if dyn.IsValid() {
			e.typ = dyn.Type().String()
			e.text = fmt.Sprint(dyn.Interface())
		}
		entries[i] = e
	}

	slices.SortStableFunc(entries, func(a, b sortKey) int {
		if c := cmp.Compare(a.dyn.Kind(), b.dyn.Kind()); c != 0 {
			return c
		}
		if c := strings.Compare(a.typ, b.typ); c != 0 {
			return c
		}
		if a.dyn.IsValid() && isOrderedKind(a.dyn.Kind()) {
			if c := compareKeys(a.dyn, b.dyn); c != 0 {
				return c
			}
		}

		return strings.Compare(a.text, b.text)
	})

	for i := range entries {
		keys[i] = entries[i].key
	}
}

// writePair writes one key cell run and one value cell run. A nil value is
// written as a single empty cell.
func writePair(w *Writer, key, value Serializer, valueNilable bool, k, v reflect.Value) error {
	if err := key.Serialize(w, k); err != nil {
		return err
	}
	if valueNilable && v.IsNil() {
		w.WriteEmpty()
		return nil
	}

	return value.Serialize(w, v)
}

func writePairTitle(w *Writer, key, value Serializer, k, v reflect.Value) error {
	if err := key.WriteTitle(w, k, keyTitle); err != nil {
		return err
	}

	return value.WriteTitle(w, v, valueTitle)
}

func isOrderedKind(k reflect.Kind) bool {
	switch k { //nolint: exhaustive
	case reflect.String, reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return false
	}
}

func compareKeys(a, b reflect.Value) int {
	switch a.Kind() { //nolint: exhaustive
	case reflect.String:
		return cmp.Compare(a.String(), b.String())
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(a.Float(), b.Float())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(a.Int(), b.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return cmp.Compare(a.Uint(), b.Uint())
	default:
		panic(fmt.Sprintf("serializer: unordered map key kind %v", a.Kind()))
	}
}
