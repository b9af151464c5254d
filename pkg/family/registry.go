// Package family routes documents that share a wire shape to the schema of
// their concrete subtype, selected by a discriminator field.
package family

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/jdoc/pkg/core"
)

// DefaultField is the conventional discriminator field.
const DefaultField = "type"

// Registry maps discriminator tags to schemas.
//
// Registration is expected to happen once at startup; lookups and decoding are
// safe for concurrent use.
type Registry struct {
	field   string
	codec   *core.Codec
	strict  bool
	mu      sync.RWMutex
	schemas map[string]*core.Schema
}

// Option configures a Registry.
type Option func(*Registry)

// WithCodec sets the codec used to decode and construct documents.
func WithCodec(c *core.Codec) Option {
	return func(r *Registry) {
		r.codec = c
	}
}

// WithStrict makes unknown or missing tags a validation error instead of
// falling back to a schemaless document.
func WithStrict(strict bool) Option {
	return func(r *Registry) {
		r.strict = strict
	}
}

// New creates a registry discriminating on field (DefaultField when empty).
func New(field string, opts ...Option) *Registry {
	if field == "" {
		field = DefaultField
	}
	r := &Registry{
		field:   strings.ToLower(field),
		codec:   core.DefaultCodec(),
		schemas: make(map[string]*core.Schema),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Field returns the discriminator field name.
func (r *Registry) Field() string { return r.field }

// Codec returns the registry codec.
func (r *Registry) Codec() *core.Codec { return r.codec }

// Register binds tag to schema. Registering a tag twice is an error.
func (r *Registry) Register(tag string, schema *core.Schema) error {
	if tag == "" {
		return fmt.Errorf("register %s: empty tag", r.field)
	}
	if schema == nil {
		return fmt.Errorf("register %s=%q: nil schema", r.field, tag)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.schemas[tag]; exists {
		return fmt.Errorf("register %s=%q: tag already registered", r.field, tag)
	}
	r.schemas[tag] = schema
	return nil
}

// MustRegister is Register for package initialization; it panics on error.
func (r *Registry) MustRegister(tag string, schema *core.Schema) *Registry {
	if err := r.Register(tag, schema); err != nil {
		panic(err)
	}
	return r
}

// Schema returns the schema registered for tag.
func (r *Registry) Schema(tag string) (*core.Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[tag]
	return s, ok
}

// Tags returns the registered tags, sorted.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.schemas))
	for t := range r.schemas {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// TagOf returns the discriminator value carried by d.
func (r *Registry) TagOf(d *core.Document) (string, bool) {
	return d.Text(r.field)
}

// Decode parses data and constructs it under the schema its tag selects.
func (r *Registry) Decode(data []byte) (*core.Document, error) {
	fields, err := r.codec.ParseFields(data)
	if err != nil {
		return nil, err
	}
	schema, err := r.route(discriminator(fields, r.field))
	if err != nil {
		return nil, err
	}
	return r.codec.New(schema, fields)
}

// discriminator reads the tag from raw fields, whose names are not yet
// lower-cased.
func discriminator(fields core.Fields, field string) (string, bool) {
	if tag, ok := fields.Text(field); ok {
		return tag, true
	}
	for k := range fields {
		if strings.EqualFold(k, field) {
			return fields.Text(k)
		}
	}
	return "", false
}

// Resolve rebuilds a document, typically a schemaless one, under the schema its
// tag selects. Documents already built under that schema are returned as is.
func (r *Registry) Resolve(d *core.Document) (*core.Document, error) {
	schema, err := r.route(r.TagOf(d))
	if err != nil {
		return nil, err
	}
	if schema == nil || d.Schema() == schema {
		return d, nil
	}
	return core.From(d).WithSchema(schema).Build()
}

// Builder returns a builder for the subtype registered under tag.
func (r *Registry) Builder(tag string) (*core.Builder, error) {
	schema, ok := r.Schema(tag)
	if !ok {
		return nil, r.invalid(tag)
	}
	return r.codec.Builder(schema).Set(r.field, tag), nil
}

func (r *Registry) route(tag string, present bool) (*core.Schema, error) {
	if !present {
		if r.strict {
			return nil, core.Missing("", r.field)
		}
		return nil, nil
	}
	schema, ok := r.Schema(tag)
	if !ok {
		if r.strict {
			return nil, r.invalid(tag)
		}
		return nil, nil
	}
	return schema, nil
}

func (r *Registry) invalid(tag string) error {
	return core.Invalid("", r.field, "invalid discriminator value %q (known: %s)", tag, strings.Join(r.Tags(), ", "))
}
