package serializer

import "reflect"

func fallbackProvider(r *Registry, t reflect.Type) (Serializer, error) {
	if t != anyType {
		return nil, nil
	}

	return &dynamicSerializer{registry: r}, nil
}

// dynamicSerializer serializes values held in an empty interface by
// resolving their dynamic type on every call. A nil interface is written as
// one empty cell.
type dynamicSerializer struct {
	registry *Registry
}

func (s *dynamicSerializer) dynamic(v reflect.Value) (Serializer, reflect.Value, error) {
	if !v.IsValid() {
		return nil, reflect.Value{}, nil
	}
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, reflect.Value{}, nil
		}
		v = v.Elem()
	}

	ser, err := s.registry.Resolve(v.Type())
	if err != nil {
		return nil, reflect.Value{}, err
	}

	return ser, v, nil
}

func (s *dynamicSerializer) Serialize(w *Writer, v reflect.Value) error {
	ser, elem, err := s.dynamic(v)
	if err != nil {
		return err
	}
	if ser == nil {
		w.WriteEmpty()
		return nil
	}

	return ser.Serialize(w, elem)
}

func (s *dynamicSerializer) WriteTitle(w *Writer, v reflect.Value, name string) error {
	ser, elem, err := s.dynamic(v)
	if err != nil {
		return err
	}
	if ser == nil {
		w.WriteString(name)
		return nil
	}

	return ser.WriteTitle(w, elem, name)
}
