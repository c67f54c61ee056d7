package serializer

import (
	"errors"
	"reflect"

	"github.com/arloliu/fastxlsx/errs"
)

// errorSerializer is cached in place of a serializer whose resolution failed.
// Every use returns the captured error.
type errorSerializer struct {
	err error
}

func newErrorSerializer(t reflect.Type, err error) *errorSerializer {
	var te *errs.TypeError
	if !errors.As(err, &te) {
		err = errs.NewTypeError(t, err)
	}

	return &errorSerializer{err: err}
}

func (s *errorSerializer) Serialize(*Writer, reflect.Value) error {
	return s.err
}

func (s *errorSerializer) WriteTitle(*Writer, reflect.Value, string) error {
	return s.err
}
