package core

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// DefaultInternalPrefix marks fields excluded from the external view.
const DefaultInternalPrefix = "_"

// Inclusion decides which field values are kept at construction.
type Inclusion int

const (
	// IncludeNonNull drops only null values.
	IncludeNonNull Inclusion = iota
	// IncludeNonEmpty also drops empty strings, lists and maps.
	IncludeNonEmpty
)

// Converter turns a native Go value into a Value. It reports ok=false when it
// does not handle the given value.
type Converter func(v any) (val Value, ok bool, err error)

// Codec is the explicit (de)serialization configuration shared by documents.
// It is immutable once built and safe for concurrent use.
type Codec struct {
	logger     *slog.Logger
	inclusion  Inclusion
	comments   bool
	prefix     string
	converters []Converter
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithLogger sets the logger used to report coercion misses.
func WithLogger(logger *slog.Logger) CodecOption {
	return func(c *Codec) {
		c.logger = logger
	}
}

// WithInclusion sets the value inclusion policy.
func WithInclusion(inc Inclusion) CodecOption {
	return func(c *Codec) {
		c.inclusion = inc
	}
}

// WithComments makes decoding tolerate // and /* */ comments and trailing commas.
func WithComments(enabled bool) CodecOption {
	return func(c *Codec) {
		c.comments = enabled
	}
}

// WithInternalPrefix changes the reserved prefix of internal fields.
func WithInternalPrefix(prefix string) CodecOption {
	return func(c *Codec) {
		c.prefix = prefix
	}
}

// WithConverter registers a custom converter, consulted before the built-in ones.
func WithConverter(conv Converter) CodecOption {
	return func(c *Codec) {
		c.converters = append(c.converters, conv)
	}
}

// NewCodec builds a Codec.
func NewCodec(opts ...CodecOption) *Codec {
	c := &Codec{
		logger: slog.Default(),
		prefix: DefaultInternalPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	c.converters = append(c.converters, wellKnownConverter)
	return c
}

// defaultCodec backs the package-level helpers. It is never mutated.
var defaultCodec = NewCodec()

// DefaultCodec returns the codec used by New, NewBuilder and json.Unmarshal.
func DefaultCodec() *Codec { return defaultCodec }

// IsInternal reports whether a field name carries the internal prefix.
func (c *Codec) IsInternal(field string) bool {
	return c.prefix != "" && strings.HasPrefix(field, c.prefix)
}

// Logger returns the codec logger.
func (c *Codec) Logger() *slog.Logger { return c.logger }

// Value converts a native Go value into a Value.
func (c *Codec) Value(v any) (Value, error) {
	return c.convert(v, 0)
}

const maxDepth = 64

func (c *Codec) convert(v any, depth int) (Value, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("value nesting exceeds %d", maxDepth)
	}
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Null:
		return val, nil
	case Bool:
		return val, nil
	case String:
		return val, nil
	case Number:
		return NumberOf(string(val))
	case List:
		out := make(List, len(val))
		for i, item := range val {
			conv, err := c.convert(item, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	case Map:
		out := make(Map, len(val))
		for k, item := range val {
			conv, err := c.convert(item, depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = conv
		}
		return out, nil
	case *Document:
		if val == nil {
			return Null{}, nil
		}
		return val.Map(), nil
	case Document:
		return val.Map(), nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case json.Number:
		return NumberOf(string(val))
	case int:
		return NumberOf(fmt.Sprint(val))
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return NumberOf(fmt.Sprint(val))
	case float32:
		return numberFromFloat(float64(val))
	case float64:
		return numberFromFloat(val)
	case []any:
		out := make(List, len(val))
		for i, item := range val {
			conv, err := c.convert(item, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	case map[string]any:
		out := make(Map, len(val))
		for k, item := range val {
			conv, err := c.convert(item, depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = conv
		}
		return out, nil
	case Fields:
		return c.convert(map[string]any(val), depth)
	}

	for _, conv := range c.converters {
		out, ok, err := conv(v)
		if err != nil {
			return nil, err
		}
		if ok {
			return out, nil
		}
	}

	return c.reflectValue(v, depth)
}

// reflectValue handles containers and named types not covered by the type switch.
func (c *Codec) reflectValue(v any, depth int) (Value, error) {
	rv := reflect.ValueOf(v)
	switch v.(type) {
	case json.Marshaler, encoding.TextMarshaler:
		return c.viaJSON(v)
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null{}, nil
		}
		return c.convert(rv.Elem().Interface(), depth+1)
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NumberOf(fmt.Sprint(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return NumberOf(fmt.Sprint(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return numberFromFloat(rv.Float())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null{}, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			// Byte slices keep their encoding/json (base64) form.
			return c.viaJSON(v)
		}
		out := make(List, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			conv, err := c.convert(rv.Index(i).Interface(), depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return c.viaJSON(v)
		}
		if rv.IsNil() {
			return Null{}, nil
		}
		out := make(Map, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			conv, err := c.convert(iter.Value().Interface(), depth+1)
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = conv
		}
		return out, nil
	}
	return c.viaJSON(v)
}

// viaJSON converts anything encoding/json understands.
func (c *Codec) viaJSON(v any) (Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	return c.parseValue(raw)
}

func (c *Codec) parseValue(raw []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after json value")
	}
	return c.convert(out, 0)
}

// wellKnownConverter normalizes date/time and identifier types to their
// canonical string form. Times are rendered in UTC so that the same instant
// always compares equal.
func wellKnownConverter(v any) (Value, bool, error) {
	switch val := v.(type) {
	case time.Time:
		return String(val.UTC().Format(time.RFC3339Nano)), true, nil
	case *time.Time:
		if val == nil {
			return Null{}, true, nil
		}
		return String(val.UTC().Format(time.RFC3339Nano)), true, nil
	case strfmt.DateTime:
		return String(time.Time(val).UTC().Format(time.RFC3339Nano)), true, nil
	case strfmt.Date:
		return String(val.String()), true, nil
	case uuid.UUID:
		return String(val.String()), true, nil
	case strfmt.UUID:
		return String(strings.ToLower(string(val))), true, nil
	case time.Duration:
		return String(val.String()), true, nil
	}
	return nil, false, nil
}

// ParseFields parses a JSON object into raw fields without constructing a
// Document. Values are already converted to Value.
func (c *Codec) ParseFields(data []byte) (Fields, error) {
	if c.comments {
		data = jsonc.ToJSON(data)
	}
	v, err := c.parseValue(data)
	if err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("malformed json: %v", err)}
	}
	m, ok := v.(Map)
	if !ok {
		return nil, &ValidationError{Reason: fmt.Sprintf("document must be a json object, got %s", v.Kind())}
	}
	fields := make(Fields, len(m))
	for k, item := range m {
		fields[k] = item
	}
	return fields, nil
}

// Decode parses a JSON object into a schemaless Document.
func (c *Codec) Decode(data []byte) (*Document, error) {
	return c.DecodeInto(nil, data)
}

// DecodeInto parses a JSON object and constructs it under schema.
func (c *Codec) DecodeInto(schema *Schema, data []byte) (*Document, error) {
	fields, err := c.ParseFields(data)
	if err != nil {
		return nil, err
	}
	return c.New(schema, fields)
}

// ParseYAML parses a YAML mapping into raw fields.
func (c *Codec) ParseYAML(data []byte) (Fields, error) {
	var payload map[string]any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("malformed yaml: %v", err)}
	}
	fields := make(Fields, len(payload))
	for k, item := range payload {
		v, err := c.convert(stringKeys(item), 0)
		if err != nil {
			return nil, &ValidationError{Field: k, Reason: fmt.Sprintf("malformed yaml: %v", err)}
		}
		fields[k] = v
	}
	return fields, nil
}

// stringKeys rewrites the map[any]any that YAML produces for mappings with
// non-string keys into map[string]any, rendering each key with fmt.
func stringKeys(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = stringKeys(item)
		}
		return out
	case map[string]any:
		for k, item := range val {
			val[k] = stringKeys(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = stringKeys(item)
		}
		return val
	}
	return v
}

// DecodeYAML parses a YAML mapping into a schemaless Document.
func (c *Codec) DecodeYAML(data []byte) (*Document, error) {
	fields, err := c.ParseYAML(data)
	if err != nil {
		return nil, err
	}
	return c.New(nil, fields)
}

// Encode returns the external canonical JSON of d. The canonical form is fixed
// when d is built, so it reflects the codec d was built with, not c.
func (c *Codec) Encode(d *Document) []byte {
	return bytes.Clone(d.canonical())
}

// EncodeInternal returns the canonical JSON of every field, internal ones included.
// Repositories persist this form.
func (c *Codec) EncodeInternal(d *Document) ([]byte, error) {
	out, err := Canonical(Map(d.fields))
	if err != nil {
		return nil, &InternalError{Op: "encode internal view", Err: err}
	}
	return out, nil
}

// EncodeYAML renders d as YAML, optionally including internal fields.
func (c *Codec) EncodeYAML(d *Document, internal bool) ([]byte, error) {
	view := d.Map()
	if internal {
		view = Map(d.fields)
	}
	out, err := yaml.Marshal(Native(view))
	if err != nil {
		return nil, &InternalError{Op: "encode yaml", Err: err}
	}
	return out, nil
}
