package serializer

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/fastxlsx/errs"
)

type color int

const (
	red color = iota
	green
)

func (c color) String() string {
	switch c {
	case red:
		return "Red"
	case green:
		return "Green"
	default:
		return "Unknown"
	}
}

type celsius float64

type sku string

func TestEnum(t *testing.T) {
	w := newTestWriter(t)
	s, err := ResolveFor[color](nil)
	require.NoError(t, err)

	for _, c := range []color{green, red, green} {
		require.NoError(t, s.Serialize(w, reflect.ValueOf(c)))
	}

	assert.Equal(t, []string{"Green", "Red"}, w.SharedStrings())
	assert.Equal(t, `<c t="s"><v>0</v></c><c t="s"><v>1</v></c><c t="s"><v>0</v></c>`, w.String())
}

func TestEnum_StandardLibrary(t *testing.T) {
	w := newTestWriter(t)
	s, err := ResolveFor[time.Month](nil)
	require.NoError(t, err)
	require.NoError(t, s.Serialize(w, reflect.ValueOf(time.March)))

	assert.Equal(t, []string{"March"}, w.SharedStrings())
}

func TestNamedBasicTypes(t *testing.T) {
	assert.Equal(t, `<c t="n" s="6"><v>21.5</v></c>`, render(t, celsius(21.5)))

	w := newTestWriter(t)
	s, err := ResolveFor[sku](nil)
	require.NoError(t, err)
	require.NoError(t, s.Serialize(w, reflect.ValueOf(sku("A-1"))))
	assert.Equal(t, []string{"A-1"}, w.SharedStrings())
}

func TestPointer(t *testing.T) {
	n := 5
	assert.Equal(t, `<c t="n" s="5"><v>5</v></c>`, render(t, &n))
	assert.Equal(t, `<c></c>`, render(t, (*int)(nil)))

	pp := &n
	assert.Equal(t, `<c t="n" s="5"><v>5</v></c>`, render(t, &pp))
}

func TestTuple(t *testing.T) {
	pair := NewTuple2(1, 2)
	assert.Equal(t, `<c t="n" s="5"><v>1</v></c><c t="n" s="5"><v>2</v></c>`, render(t, pair))

	triple := NewTuple3("a", true, 1.5)
	assert.Equal(t, `<c t="s"><v>0</v></c><c t="b"><v>1</v></c><c t="n" s="6"><v>1.5</v></c>`, render(t, triple))

	quad := Tuple4[int, int, int, int]{1, 2, 3, 4}
	assert.Equal(t, []string{"Item1", "Item2", "Item3", "Item4"}, titles(t, quad))
}

func TestTuple_NestedInStruct(t *testing.T) {
	type measurement struct {
		Range Tuple2[int, int]
		Label string
	}

	got := titles(t, measurement{})
	assert.Equal(t, []string{"Item1", "Item2", "Label"}, got)
}

func TestTuple_CountsTowardDepth(t *testing.T) {
	nested := NewTuple2(NewTuple2(1, 2), 3)

	w := newTestWriter(t, WithMaxDepth(2))
	s, err := ResolveFor[Tuple2[Tuple2[int, int], int]](nil)
	require.NoError(t, err)
	require.ErrorIs(t, s.Serialize(w, reflect.ValueOf(nested)), errs.ErrDepthExceeded)
	require.ErrorIs(t, s.WriteTitle(w, reflect.ValueOf(nested), "value"), errs.ErrDepthExceeded)

	w = newTestWriter(t, WithMaxDepth(3))
	require.NoError(t, s.Serialize(w, reflect.ValueOf(nested)))
	assert.Equal(t, 0, w.Depth())
	assert.Equal(t, `<c t="n" s="5"><v>1</v></c><c t="n" s="5"><v>2</v></c><c t="n" s="5"><v>3</v></c>`, w.String())
}

// point writes itself as two cells.
type point struct{ X, Y int }

func (p point) MarshalCells(w *Writer) error {
	w.WriteInt(int64(p.X))
	w.WriteInt(int64(p.Y))

	return nil
}

func (p point) MarshalTitles(w *Writer, name string) error {
	w.WriteString(name + ".X")
	w.WriteString(name + ".Y")

	return nil
}

// label writes itself through a pointer receiver.
type label struct{ text string }

func (l *label) MarshalCells(w *Writer) error {
	w.WriteString("[" + l.text + "]")
	return nil
}

func TestCellMarshaler(t *testing.T) {
	assert.Equal(t, `<c t="n" s="5"><v>1</v></c><c t="n" s="5"><v>2</v></c>`, render(t, point{1, 2}))
	assert.Equal(t, []string{"value.X", "value.Y"}, titles(t, point{}))

	w := newTestWriter(t)
	s, err := ResolveFor[map[string]label](nil)
	require.NoError(t, err)
	require.NoError(t, s.Serialize(w, reflect.ValueOf(map[string]label{"k": {text: "v"}})))
	assert.Equal(t, []string{"k", "[v]"}, w.SharedStrings(), "non-addressable values are copied")
}

// shout is annotated with a serializer that upper-cases it.
type shout string

func (*shout) CellSerializer() Serializer {
	return Func(func(w *Writer, s shout) error {
		w.WriteString(strings.ToUpper(string(s)))
		return nil
	})
}

// wrongAnnotation names a serializer for a different type.
type wrongAnnotation struct{ V int }

func (wrongAnnotation) CellSerializer() Serializer {
	return Func(func(*Writer, string) error { return nil })
}

func TestAnnotated(t *testing.T) {
	w := newTestWriter(t)
	s, err := ResolveFor[[]shout](nil)
	require.NoError(t, err)
	require.NoError(t, s.Serialize(w, reflect.ValueOf([]shout{"hey"})))
	assert.Equal(t, []string{"HEY"}, w.SharedStrings())

	_, err = ResolveFor[wrongAnnotation](nil)
	require.ErrorIs(t, err, errs.ErrInvalidConfiguration)
}

func TestDynamicFallback(t *testing.T) {
	row := []any{"a", 1, nil, 2.5, []any{true}}

	out := render(t, row)
	want := `<c t="s"><v>0</v></c>` +
		`<c t="n" s="5"><v>1</v></c>` +
		`<c></c>` +
		`<c t="n" s="6"><v>2.5</v></c>` +
		`<c t="b"><v>1</v></c>`
	assert.Equal(t, want, out)
}

func TestDynamicFallback_Unsupported(t *testing.T) {
	w := newTestWriter(t)
	s, err := ResolveFor[[]any](nil)
	require.NoError(t, err)

	err = s.Serialize(w, reflect.ValueOf([]any{make(chan int)}))
	require.ErrorIs(t, err, errs.ErrUnsupportedType)
}

func TestFunc_ElementType(t *testing.T) {
	s := Func(func(*Writer, time.Time) error { return nil })

	et, ok := s.(ElementTyper)
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[time.Time](), et.ElementType())
}
