package core

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Document is an immutable, self-describing record. Field names are
// lower-case; fields starting with the codec's internal prefix take part in
// construction and validation but not in equality, hashing or the wire form.
//
// The zero Document is empty and schemaless. Documents are safe for
// concurrent readers.
type Document struct {
	codec  *Codec
	schema *Schema
	fields map[string]Value
	keys   []string // all field names, sorted
	canon  []byte   // canonical JSON of the external fields
	hash   uint64
}

// New constructs a schemaless Document with the default codec.
func New(fields Fields) (*Document, error) {
	return defaultCodec.New(nil, fields)
}

// NewWithSchema constructs a Document under schema with the default codec.
func NewWithSchema(schema *Schema, fields Fields) (*Document, error) {
	return defaultCodec.New(schema, fields)
}

// New constructs a Document from fields under schema (nil for schemaless).
//
// Construction filters null values, lower-cases field names, runs the
// schema's PreCreate hooks, converts values, validates and finally caches the
// canonical form and its hash. The input map is not retained.
func (c *Codec) New(schema *Schema, fields Fields) (*Document, error) {
	raw := make(Fields, len(fields))
	for k, v := range fields {
		if isNil(v) {
			continue
		}
		key := strings.ToLower(k)
		if _, dup := raw[key]; dup {
			return nil, &ValidationError{Schema: schemaName(schema), Field: key, Reason: "duplicate field after lower-casing"}
		}
		raw[key] = v
	}

	if err := schema.prepare(raw); err != nil {
		return nil, err
	}

	d := &Document{
		codec:  c,
		schema: schema,
		fields: make(map[string]Value, len(raw)),
	}
	for k, v := range raw {
		if isNil(v) {
			continue
		}
		key := strings.ToLower(k)
		if _, dup := d.fields[key]; dup {
			return nil, &ValidationError{Schema: schemaName(schema), Field: key, Reason: "duplicate field after lower-casing"}
		}
		val, err := c.convert(v, 0)
		if err != nil {
			return nil, &InternalError{Op: "convert field " + key, Err: err}
		}
		if c.inclusion == IncludeNonEmpty && isEmpty(val) {
			continue
		}
		d.fields[key] = val
	}
	d.keys = make([]string, 0, len(d.fields))
	for k := range d.fields {
		d.keys = append(d.keys, k)
	}
	sort.Strings(d.keys)

	if err := schema.Validate(d); err != nil {
		return nil, err
	}

	canon, err := Canonical(d.Map())
	if err != nil {
		return nil, &InternalError{Op: "canonicalize", Err: err}
	}
	d.canon = canon
	d.hash = xxhash.Sum64(canon)
	return d, nil
}

func schemaName(s *Schema) string {
	if s == nil {
		return ""
	}
	return s.Name
}

func (d *Document) codecOrDefault() *Codec {
	if d == nil || d.codec == nil {
		return defaultCodec
	}
	return d.codec
}

// Codec returns the codec the document was built with.
func (d *Document) Codec() *Codec { return d.codecOrDefault() }

// Schema returns the schema the document was built under, or nil.
func (d *Document) Schema() *Schema {
	if d == nil {
		return nil
	}
	return d.schema
}

// Exists reports whether the field is present.
func (d *Document) Exists(field string) bool {
	if d == nil {
		return false
	}
	_, ok := d.fields[strings.ToLower(field)]
	return ok
}

// Value returns the stored Value of a field.
func (d *Document) Value(field string) (Value, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.fields[strings.ToLower(field)]
	return v, ok
}

// Len returns the number of stored fields, internal ones included.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.fields)
}

// Keys returns the sorted external field names.
func (d *Document) Keys() []string {
	if d == nil {
		return nil
	}
	c := d.codecOrDefault()
	out := make([]string, 0, len(d.keys))
	for _, k := range d.keys {
		if !c.IsInternal(k) {
			out = append(out, k)
		}
	}
	return out
}

// AllKeys returns every sorted field name, internal ones included.
func (d *Document) AllKeys() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.keys...)
}

// Map returns the external fields as a Map. The returned map is a copy.
func (d *Document) Map() Map {
	out := make(Map)
	if d == nil {
		return out
	}
	c := d.codecOrDefault()
	for k, v := range d.fields {
		if !c.IsInternal(k) {
			out[k] = v
		}
	}
	return out
}

// Fields returns a copy of every field, internal ones included, as Values.
func (d *Document) Fields() Fields {
	out := make(Fields)
	if d == nil {
		return out
	}
	for k, v := range d.fields {
		out[k] = v
	}
	return out
}

// Hash returns the cached hash of the external canonical form.
func (d *Document) Hash() uint64 {
	if d == nil {
		return 0
	}
	if d.canon == nil {
		return emptyHash
	}
	return d.hash
}

var emptyHash = xxhash.Sum64String("{}")

func (d *Document) canonical() []byte {
	if d == nil || d.canon == nil {
		return []byte("{}")
	}
	return d.canon
}

// Equal reports whether both documents have the same external canonical form.
func (d *Document) Equal(other *Document) bool {
	return bytes.Equal(d.canonical(), other.canonical())
}

// Compare orders documents by their external canonical form.
func (d *Document) Compare(other *Document) int {
	return bytes.Compare(d.canonical(), other.canonical())
}

// String returns the external canonical JSON.
func (d *Document) String() string {
	return string(d.canonical())
}

// MarshalJSON emits the external canonical form.
func (d *Document) MarshalJSON() ([]byte, error) {
	return bytes.Clone(d.canonical()), nil
}

// UnmarshalJSON decodes a schemaless Document with the default codec.
func (d *Document) UnmarshalJSON(data []byte) error {
	decoded, err := defaultCodec.Decode(data)
	if err != nil {
		return err
	}
	*d = *decoded
	return nil
}

// Overlay returns a new Document with this document's fields overridden by
// other's wherever other defines them. The result is rebuilt under this
// document's schema. A nil other returns d unchanged.
func (d *Document) Overlay(other *Document) (*Document, error) {
	if other == nil {
		return d, nil
	}
	b := From(d)
	for k, v := range other.fields {
		b.Set(k, v)
	}
	return b.Build()
}

// With returns a copy of d with one field replaced.
func (d *Document) With(field string, value any) (*Document, error) {
	return From(d).Set(field, value).Build()
}

// GoString supports %#v in test failures.
func (d *Document) GoString() string {
	return fmt.Sprintf("core.Document(%s)", d.String())
}
