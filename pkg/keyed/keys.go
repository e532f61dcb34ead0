package keyed

import (
	"fmt"
	"reflect"
	"strconv"

	klerrors "github.com/vango-dev/keyedlist/internal/errors"
)

type keyKind uint8

const (
	keyPosition keyKind = iota
	keySelected
	keyInstance
	keyString
	keyValue
	keyUnique
)

// Key is a row identity token. Keys are comparable and unique per row
// within one generation.
type Key struct {
	kind  keyKind
	value any
	str   string
	n     uint64
}

// String returns a readable form of the key.
func (k Key) String() string {
	switch k.kind {
	case keySelected:
		return fmt.Sprintf("key(%v)", k.value)
	case keyInstance:
		return "instance#" + strconv.FormatUint(k.n, 10)
	case keyString:
		return k.str
	case keyValue:
		return fmt.Sprintf("%v.%d", k.value, k.n)
	case keyUnique:
		return "token#" + strconv.FormatUint(k.n, 10)
	default:
		return strconv.FormatUint(k.n, 10)
	}
}

// selector extracts a caller-defined key from an item.
type selector func(item any) (any, bool)

// fieldSelector reads the named struct field, or the entry of a map with
// string keys, following pointers.
func fieldSelector(name string) selector {
	return func(item any) (any, bool) {
		v := reflect.ValueOf(item)
		for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
			if v.IsNil() {
				return nil, false
			}
			v = v.Elem()
		}
		switch v.Kind() {
		case reflect.Struct:
			f := v.FieldByName(name)
			if !f.IsValid() || !f.CanInterface() {
				return nil, false
			}
			return f.Interface(), true
		case reflect.Map:
			kt := v.Type().Key()
			if kt.Kind() != reflect.String {
				return nil, false
			}
			e := v.MapIndex(reflect.ValueOf(name).Convert(kt))
			if !e.IsValid() {
				return nil, false
			}
			return e.Interface(), true
		}
		return nil, false
	}
}

func funcSelector(fn func(any) any) selector {
	return func(item any) (any, bool) {
		k := fn(item)
		return k, k != nil
	}
}

// deriveKey computes the identity token of item at position pos.
//
// A selected key wins. Without one, reference items (pointers, maps,
// channels) are keyed by instance, primitives by their string form plus
// position, other comparable values by value plus position, and nil by
// position. Anything else gets a fresh token and is rendered anew.
func deriveKey(sel selector, item any, pos int) (Key, error) {
	if sel != nil {
		if v, ok := sel(item); ok && v != nil {
			if rv := reflect.ValueOf(v); !rv.Comparable() {
				return Key{kind: keyString, str: fmt.Sprintf("%T:%v", v, v)},
					klerrors.New("E003").WithDetailf("key of type %T is not comparable", v)
			}
			return Key{kind: keySelected, value: v}, nil
		}
		if id, ok := instanceID(item); ok {
			return Key{kind: keyInstance, n: id}, nil
		}
		return Key{kind: keyUnique, n: nextToken()}, nil
	}

	if item == nil {
		return Key{kind: keyPosition, n: uint64(pos)}, nil
	}
	if id, ok := instanceID(item); ok {
		return Key{kind: keyInstance, n: id}, nil
	}
	if s, ok := stringForm(item); ok {
		return Key{kind: keyString, str: s + "." + strconv.Itoa(pos)}, nil
	}
	if reflect.ValueOf(item).Comparable() {
		return Key{kind: keyValue, value: item, n: uint64(pos)}, nil
	}
	return Key{kind: keyUnique, n: nextToken()}, nil
}

// stringForm converts primitive items to their string form.
func stringForm(item any) (string, bool) {
	switch v := item.(type) {
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	}
	v := reflect.ValueOf(item)
	switch v.Kind() {
	case reflect.String:
		return v.String(), true
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64), true
	case reflect.Complex64, reflect.Complex128:
		return fmt.Sprint(item), true
	}
	return "", false
}
