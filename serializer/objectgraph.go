package serializer

import (
	"fmt"
	"reflect"

	"github.com/arloliu/fastxlsx/errs"
)

func objectGraphProvider(r *Registry, t reflect.Type) (Serializer, error) {
	if t.Kind() != reflect.Struct {
		return nil, errs.Unsupported(t, "no strategy matches "+t.Kind().String())
	}

	return newObjectGraphSerializer(r, t)
}

// flattens reports whether an embedded struct of type t contributes its own
// members. That holds only when no strategy ahead of the object graph claims
// t, so embedded scalars such as time.Time or civil.Date stay one member.
func (r *Registry) flattens(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	if _, ok := r.lookupCustom(t); ok {
		return false
	}

	for _, p := range valueProviders {
		s, err := p(r, t)
		if err != nil || s != nil {
			return false
		}
	}

	return true
}

// fieldPlan is the compiled form of one member.
type fieldPlan struct {
	name    string
	index   []int
	nilable bool
	ser     Serializer
}

// objectGraphSerializer writes the members of a struct in their fixed order,
// one cell run per member.
type objectGraphSerializer struct {
	typ    reflect.Type
	fields []fieldPlan
}

func newObjectGraphSerializer(r *Registry, t reflect.Type) (Serializer, error) {
	members, err := collectMembers(t, r.flattens)
	if err != nil {
		return nil, errs.NewTypeError(t, err)
	}
	if len(members) == 0 {
		return nil, errs.Unsupported(t, "struct has no serializable members")
	}

	s := &objectGraphSerializer{typ: t, fields: make([]fieldPlan, 0, len(members))}
	for _, m := range members {
		ser, err := r.planMember(t, m)
		if err != nil {
			return nil, err
		}

		s.fields = append(s.fields, fieldPlan{
			name:    m.name,
			index:   m.index,
			nilable: isNilable(m.typ.Kind()),
			ser:     ser,
		})
	}

	return s, nil
}

// planMember resolves the serializer of member m of struct t, honoring a
// named override from the member tag.
func (r *Registry) planMember(t reflect.Type, m memberInfo) (Serializer, error) {
	if m.serializer == "" {
		return r.memberSerializer(m.typ)
	}

	ser, ok := r.lookupNamed(m.serializer)
	if !ok {
		return nil, errs.NewTypeError(t, fmt.Errorf("%w: member %s: serializer %q is not registered", errs.ErrInvalidConfiguration, m.name, m.serializer))
	}
	if err := checkElementType(ser, m.typ); err != nil {
		return nil, errs.NewTypeError(t, fmt.Errorf("member %s: %w", m.name, err))
	}

	return ser, nil
}

func (s *objectGraphSerializer) Serialize(w *Writer, v reflect.Value) error {
	if err := w.Enter(); err != nil {
		return err
	}

	for i := range s.fields {
		f := &s.fields[i]
		fv, ok := fieldByIndex(v, f.index)
		if !ok || f.nilable && fv.IsNil() {
			w.WriteEmpty()
			continue
		}
		if err := f.ser.Serialize(w, fv); err != nil {
			return err
		}
	}

	w.Exit()

	return nil
}

func (s *objectGraphSerializer) WriteTitle(w *Writer, v reflect.Value, _ string) error {
	if err := w.Enter(); err != nil {
		return err
	}

	if !v.IsValid() {
		v = reflect.Zero(s.typ)
	}

	for i := range s.fields {
		f := &s.fields[i]
		fv, ok := fieldByIndex(v, f.index)
		if !ok || f.nilable && fv.IsNil() {
			w.WriteString(f.name)
			continue
		}
		if err := f.ser.WriteTitle(w, fv, f.name); err != nil {
			return err
		}
	}

	w.Exit()

	return nil
}
