package errs

import (
	"errors"
	"os"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnsupported(t *testing.T) {
	typ := reflect.TypeFor[chan int]()
	err := Unsupported(typ, "channels cannot be serialized")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	var te *TypeError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, typ, te.Type)
	assert.Contains(t, err.Error(), "chan int")
	assert.Contains(t, err.Error(), "channels cannot be serialized")
}

func TestIO(t *testing.T) {
	err := IO("create sheet.xml", os.ErrPermission)

	assert.ErrorIs(t, err, ErrIOFailure)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Contains(t, err.Error(), "create sheet.xml")
}
