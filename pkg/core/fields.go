package core

import (
	"fmt"
	"reflect"
)

// Fields is the raw field map handed to construction. A nil value means the
// field is absent. Values may be native Go values or Values.
type Fields map[string]any

// Text returns the field rendered as a plain string, for deriving keys from
// scalar fields. Lists, maps and absent fields report false.
func (f Fields) Text(key string) (string, bool) {
	v, ok := f[key]
	if !ok || isNil(v) {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case String:
		return string(val), true
	case Number:
		return string(val), true
	case Bool:
		return fmt.Sprint(bool(val)), true
	case List, Map, Null, []any, map[string]any:
		return "", false
	case fmt.Stringer:
		return val.String(), true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprint(v), true
	}
	return "", false
}

// Has reports whether the field is present and non-nil.
func (f Fields) Has(key string) bool {
	v, ok := f[key]
	return ok && !isNil(v)
}

// SetDefault stores value under key unless the key is already present.
func (f Fields) SetDefault(key string, value any) {
	if !f.Has(key) {
		f[key] = value
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	if _, ok := v.(Null); ok {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
