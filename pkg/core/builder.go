package core

import "strings"

// Builder accumulates fields and constructs a Document. Build always re-runs
// the schema hooks, so editing a document is copy, override, reconstruct.
//
// A Builder is not safe for concurrent use. It may be reused after Build.
type Builder struct {
	codec  *Codec
	schema *Schema
	fields Fields
}

// NewBuilder returns an empty builder for schema using the default codec.
func NewBuilder(schema *Schema) *Builder {
	return defaultCodec.Builder(schema)
}

// Builder returns an empty builder for schema bound to c.
func (c *Codec) Builder(schema *Schema) *Builder {
	return &Builder{codec: c, schema: schema, fields: make(Fields)}
}

// From returns a builder seeded with a copy of every field of prior, internal
// ones included, bound to prior's codec and schema.
func From(prior *Document) *Builder {
	if prior == nil {
		return NewBuilder(nil)
	}
	return &Builder{
		codec:  prior.codecOrDefault(),
		schema: prior.schema,
		fields: prior.Fields(),
	}
}

// Set stores or overwrites a field. A nil value removes it.
func (b *Builder) Set(field string, value any) *Builder {
	key := strings.ToLower(field)
	if isNil(value) {
		delete(b.fields, key)
		return b
	}
	b.fields[key] = value
	return b
}

// Unset removes a field.
func (b *Builder) Unset(field string) *Builder {
	delete(b.fields, strings.ToLower(field))
	return b
}

// Merge sets every non-nil entry of fields.
func (b *Builder) Merge(fields Fields) *Builder {
	for k, v := range fields {
		b.Set(k, v)
	}
	return b
}

// Has reports whether a field is currently set.
func (b *Builder) Has(field string) bool {
	return b.fields.Has(strings.ToLower(field))
}

// Get returns the raw value currently set for a field.
func (b *Builder) Get(field string) (any, bool) {
	v, ok := b.fields[strings.ToLower(field)]
	return v, ok
}

// WithSchema retargets the builder to another schema.
func (b *Builder) WithSchema(schema *Schema) *Builder {
	b.schema = schema
	return b
}

// Build constructs the Document.
func (b *Builder) Build() (*Document, error) {
	return b.codec.New(b.schema, b.fields)
}
