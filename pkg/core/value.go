package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the concrete variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is a stored field value. Concrete types:
//
//   - Null
//   - Bool
//   - Number (canonical decimal literal)
//   - String
//   - List
//   - Map
type Value interface {
	Kind() Kind
	value() // sealed
}

// Null is the explicit JSON null. It only appears nested inside lists and maps;
// top-level null fields are treated as absent.
type Null struct{}

// Bool is a boolean value.
type Bool bool

// Number holds a normalized JSON number literal. Use NumberOf to build one.
type Number string

// String is a string value.
type String string

// List is an ordered sequence of values.
type List []Value

// Map is a string-keyed mapping. Keys are emitted sorted.
type Map map[string]Value

func (Null) Kind() Kind   { return KindNull }
func (Bool) Kind() Kind   { return KindBool }
func (Number) Kind() Kind { return KindNumber }
func (String) Kind() Kind { return KindString }
func (List) Kind() Kind   { return KindList }
func (Map) Kind() Kind    { return KindMap }

func (Null) value()   {}
func (Bool) value()   {}
func (Number) value() {}
func (String) value() {}
func (List) value()   {}
func (Map) value()    {}

// NumberOf parses and normalizes a JSON number literal so that numerically equal
// inputs produce the same literal: integral values print as plain integers and
// everything else in the shortest round-trip form.
func NumberOf(lit string) (Number, error) {
	lit = strings.TrimSpace(lit)
	if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return Number(strconv.FormatInt(i, 10)), nil
	}
	if u, err := strconv.ParseUint(lit, 10, 64); err == nil {
		return Number(strconv.FormatUint(u, 10)), nil
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return "", fmt.Errorf("invalid number %q: %w", lit, err)
	}
	return numberFromFloat(f)
}

func numberFromFloat(f float64) (Number, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("number %v has no JSON representation", f)
	}
	if f == math.Trunc(f) {
		switch {
		case f >= -(1<<63) && f < 1<<63:
			return Number(strconv.FormatInt(int64(f), 10)), nil
		case f >= 0 && f < 1<<64:
			return Number(strconv.FormatUint(uint64(f), 10)), nil
		}
	}
	return Number(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

// Int64 returns the number as an int64 when it is integral and in range.
func (n Number) Int64() (int64, bool) {
	i, err := strconv.ParseInt(string(n), 10, 64)
	return i, err == nil
}

// Float64 returns the number as a float64.
func (n Number) Float64() float64 {
	f, _ := strconv.ParseFloat(string(n), 64)
	return f
}

// Native converts a Value back into plain Go values (nil, bool, int64, uint64,
// float64, string, []any, map[string]any).
func Native(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(val)
	case Number:
		if i, err := strconv.ParseInt(string(val), 10, 64); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(string(val), 10, 64); err == nil {
			return u
		}
		return val.Float64()
	case String:
		return string(val)
	case List:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Native(item)
		}
		return out
	case Map:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Native(item)
		}
		return out
	}
	return nil
}

// Canonical returns the canonical JSON encoding of v: compact, object keys sorted
// bytewise.
func Canonical(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Number:
		if val == "" {
			return fmt.Errorf("empty number literal")
		}
		buf.WriteString(string(val))
	case String:
		writeString(buf, string(val))
	case List:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Map:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, k)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	// Encode never fails for strings; it appends a newline we strip.
	_ = enc.Encode(s)
	buf.Truncate(buf.Len() - 1)
}

// isEmpty reports whether v is an empty string, list or map.
func isEmpty(v Value) bool {
	switch val := v.(type) {
	case nil, Null:
		return true
	case String:
		return val == ""
	case List:
		return len(val) == 0
	case Map:
		return len(val) == 0
	}
	return false
}
