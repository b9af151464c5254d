package core

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
)

// Get coerces a stored field into T. It reports false when the field is absent
// or cannot be read as T; misses are logged at debug level, never raised.
//
// Coercion goes through the canonical JSON form, so a field holds the same
// meaning whether it was built from a native value or read back as a string:
//
//	ts, ok := core.Get[time.Time](doc, "timestamp")
//	ids, ok := core.Get[[]uuid.UUID](doc, "members")
func Get[T any](d *Document, field string) (T, bool) {
	var out T
	if !d.GetInto(field, &out) {
		var zero T
		return zero, false
	}
	return out, true
}

// GetOr returns the coerced field or def when it is absent or unreadable.
func GetOr[T any](d *Document, field string, def T) T {
	if v, ok := Get[T](d, field); ok {
		return v
	}
	return def
}

// GetInto coerces a stored field into the value target points to. target must
// be a non-nil pointer. On a miss target is left untouched.
func (d *Document) GetInto(field string, target any) bool {
	v, ok := d.Value(field)
	if !ok {
		return false
	}
	log := d.codecOrDefault().logger

	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		log.Debug("coercion miss", "field", field, "target", fmt.Sprintf("%T", target), "error", "target is not a non-nil pointer")
		return false
	}
	elem := rv.Type().Elem()

	// Stored strings are handed verbatim to string and empty-interface targets.
	if s, isStr := v.(String); isStr {
		switch {
		case elem.Kind() == reflect.String:
			rv.Elem().SetString(string(s))
			return true
		case elem.Kind() == reflect.Interface && elem.NumMethod() == 0:
			rv.Elem().Set(reflect.ValueOf(string(s)))
			return true
		}
	}

	lit, err := literal(v)
	if err != nil {
		log.Debug("coercion miss", "field", field, "target", elem.String(), "error", err)
		return false
	}
	if needsQuoting(lit, elem) {
		quoted, _ := json.Marshal(lit)
		lit = string(quoted)
	}

	fresh := reflect.New(elem)
	if err := json.Unmarshal([]byte(lit), fresh.Interface()); err != nil {
		log.Debug("coercion miss", "field", field, "target", elem.String(), "error", err)
		return false
	}
	rv.Elem().Set(fresh.Elem())
	return true
}

// literal returns the textual form a value is parsed from: strings as they
// are, everything else as canonical JSON.
func literal(v Value) (string, error) {
	if s, ok := v.(String); ok {
		return string(s), nil
	}
	b, err := Canonical(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// needsQuoting reports whether lit must be wrapped as a JSON string before
// decoding into t. Literals that already look like an object, array or quoted
// string are left alone, as are literals headed for numeric or bool targets.
func needsQuoting(lit string, t reflect.Type) bool {
	trimmed := strings.TrimSpace(lit)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, `"`) {
		return false
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return false
	case reflect.Interface:
		// Non-string values are already valid JSON literals.
		return false
	}
	return true
}

// Text returns a field as a string; numbers and bools render as their literal.
func (d *Document) Text(field string) (string, bool) {
	return Get[string](d, field)
}

// Int returns a field as an int64.
func (d *Document) Int(field string) (int64, bool) {
	return Get[int64](d, field)
}

// Bool returns a field as a bool.
func (d *Document) Bool(field string) (bool, bool) {
	return Get[bool](d, field)
}

// Time returns a field as a time, accepting any date-time layout strfmt
// understands as well as plain dates.
func (d *Document) Time(field string) (time.Time, bool) {
	s, ok := d.Text(field)
	if !ok {
		return time.Time{}, false
	}
	if dt, err := strfmt.ParseDateTime(s); err == nil {
		return time.Time(dt), true
	}
	var date strfmt.Date
	if err := date.UnmarshalText([]byte(s)); err == nil {
		return time.Time(date), true
	}
	d.codecOrDefault().logger.Debug("coercion miss", "field", field, "target", "time.Time", "value", s)
	return time.Time{}, false
}

// UUID returns a field as an identifier.
func (d *Document) UUID(field string) (uuid.UUID, bool) {
	s, ok := d.Text(field)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		d.codecOrDefault().logger.Debug("coercion miss", "field", field, "target", "uuid.UUID", "error", err)
		return uuid.Nil, false
	}
	return id, true
}

// Decode decodes the external fields into target, typically a struct pointer.
func (d *Document) Decode(target any) error {
	if err := json.Unmarshal(d.canonical(), target); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}
