package serializer

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/arloliu/fastxlsx/errs"
)

const tagName = "xlsx"

// memberInfo describes one serializable struct member.
type memberInfo struct {
	name       string
	order      int
	index      []int
	typ        reflect.Type
	serializer string // named override from the tag, if any
}

// memberTag holds the parsed `xlsx:"name:Title;order:2;serializer:upper"` tag.
type memberTag struct {
	skip       bool
	name       string
	order      int
	hasOrder   bool
	serializer string
}

func parseMemberTag(field reflect.StructField) (memberTag, error) {
	raw, ok := field.Tag.Lookup(tagName)
	if !ok {
		return memberTag{}, nil
	}
	if raw == "-" {
		return memberTag{skip: true}, nil
	}

	var tag memberTag
	for part := range strings.SplitSeq(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, found := strings.Cut(part, ":")
		if !found {
			return tag, fmt.Errorf("%w: field %s: malformed tag %q", errs.ErrInvalidConfiguration, field.Name, part)
		}

		switch strings.TrimSpace(key) {
		case "name":
			tag.name = value
		case "order":
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return tag, fmt.Errorf("%w: field %s: order %q: %w", errs.ErrInvalidConfiguration, field.Name, value, err)
			}
			tag.order = n
			tag.hasOrder = true
		case "serializer":
			tag.serializer = strings.TrimSpace(value)
		default:
			return tag, fmt.Errorf("%w: field %s: unknown tag key %q", errs.ErrInvalidConfiguration, field.Name, key)
		}
	}

	return tag, nil
}

// collectMembers returns the serializable members of struct type t sorted by
// (order, name). An exported embedded struct without a name tag is flattened
// when flatten reports true for it; otherwise it is one member named after
// its type.
func collectMembers(t reflect.Type, flatten func(reflect.Type) bool) ([]memberInfo, error) {
	var members []memberInfo
	if err := appendMembers(&members, t, nil, map[reflect.Type]bool{t: true}, flatten); err != nil {
		return nil, err
	}

	slices.SortStableFunc(members, func(a, b memberInfo) int {
		if c := cmp.Compare(a.order, b.order); c != 0 {
			return c
		}

		return strings.Compare(a.name, b.name)
	})

	return members, nil
}

func appendMembers(members *[]memberInfo, t reflect.Type, parent []int, visiting map[reflect.Type]bool, flatten func(reflect.Type) bool) error {
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		tag, err := parseMemberTag(field)
		if err != nil {
			return err
		}
		if tag.skip {
			continue
		}

		index := append(slices.Clone(parent), i)

		if field.Anonymous && tag.name == "" {
			ft := field.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct && !visiting[ft] && flatten(ft) {
				visiting[ft] = true
				err := appendMembers(members, ft, index, visiting, flatten)
				delete(visiting, ft)
				if err != nil {
					return err
				}

				continue
			}
		}

		m := memberInfo{
			name:       field.Name,
			order:      len(*members),
			index:      index,
			typ:        field.Type,
			serializer: tag.serializer,
		}
		if tag.name != "" {
			m.name = tag.name
		}
		if tag.hasOrder {
			m.order = tag.order
		}
		*members = append(*members, m)
	}

	return nil
}

// fieldByIndex is like reflect.Value.FieldByIndex but reports false instead
// of panicking when it steps through a nil embedded pointer.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}

	return v, true
}
