package serializer

import (
	"encoding/base64"
	"net/url"
	"reflect"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// builtinSerializers maps well-known scalar types that are not primitives.
var builtinSerializers = map[reflect.Type]Serializer{
	reflect.TypeFor[string]():         stringSerializer{},
	reflect.TypeFor[time.Time]():      timeSerializer{},
	reflect.TypeFor[time.Duration]():  durationSerializer{},
	reflect.TypeFor[url.URL]():        urlSerializer{},
	reflect.TypeFor[*url.URL]():       urlPointerSerializer{},
	reflect.TypeFor[uuid.UUID]():      uuidSerializer{},
	reflect.TypeFor[civil.Date]():     civilDateSerializer{},
	reflect.TypeFor[civil.Time]():     civilTimeSerializer{},
	reflect.TypeFor[civil.DateTime](): civilDateTimeSerializer{},
	reflect.TypeFor[[]byte]():         bytesSerializer{},
}

func builtinProvider(_ *Registry, t reflect.Type) (Serializer, error) {
	return builtinSerializers[t], nil
}

type stringSerializer struct{ scalarTitle }

func (stringSerializer) Serialize(w *Writer, v reflect.Value) error {
	w.WriteString(v.String())
	return nil
}

type timeSerializer struct{ scalarTitle }

func (timeSerializer) Serialize(w *Writer, v reflect.Value) error {
	t, _ := v.Interface().(time.Time)
	w.WriteDateTime(t)

	return nil
}

type durationSerializer struct{ scalarTitle }

func (durationSerializer) Serialize(w *Writer, v reflect.Value) error {
	w.WriteString(time.Duration(v.Int()).String())
	return nil
}

type urlSerializer struct{ scalarTitle }

func (urlSerializer) Serialize(w *Writer, v reflect.Value) error {
	u, _ := v.Interface().(url.URL)
	w.WriteString(u.String())

	return nil
}

type urlPointerSerializer struct{ scalarTitle }

func (urlPointerSerializer) Serialize(w *Writer, v reflect.Value) error {
	u, _ := v.Interface().(*url.URL)
	if u == nil {
		w.WriteEmpty()
		return nil
	}
	w.WriteString(u.String())

	return nil
}

type uuidSerializer struct{ scalarTitle }

func (uuidSerializer) Serialize(w *Writer, v reflect.Value) error {
	id, _ := v.Interface().(uuid.UUID)
	w.WriteString(id.String())

	return nil
}

type civilDateSerializer struct{ scalarTitle }

func (civilDateSerializer) Serialize(w *Writer, v reflect.Value) error {
	d, _ := v.Interface().(civil.Date)
	w.WriteDate(d)

	return nil
}

type civilTimeSerializer struct{ scalarTitle }

func (civilTimeSerializer) Serialize(w *Writer, v reflect.Value) error {
	t, _ := v.Interface().(civil.Time)
	w.WriteTime(t)

	return nil
}

type civilDateTimeSerializer struct{ scalarTitle }

func (civilDateTimeSerializer) Serialize(w *Writer, v reflect.Value) error {
	dt, _ := v.Interface().(civil.DateTime)
	w.WriteDateTimeCivil(dt)

	return nil
}

// bytesSerializer writes byte slices as standard base64 text.
type bytesSerializer struct{ scalarTitle }

func (bytesSerializer) Serialize(w *Writer, v reflect.Value) error {
	if v.IsNil() {
		w.WriteEmpty()
		return nil
	}
	w.WriteString(base64.StdEncoding.EncodeToString(v.Bytes()))

	return nil
}
