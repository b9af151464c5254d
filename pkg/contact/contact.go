// Package contact is a document family of contact points: e-mail addresses,
// phone numbers, names and birth dates, each scoped by a context such as
// "home" or "work".
//
// Every point carries a composite internal key derived from its context, type
// and value, so two points naming the same address in the same context are the
// same point no matter how their value was capitalized.
package contact

import (
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/go-playground/validator/v10"

	"github.com/aretw0/jdoc/pkg/core"
	"github.com/aretw0/jdoc/pkg/family"
)

// Field names shared by every contact point.
const (
	FieldContext     = "context"
	FieldType        = "type"
	FieldValue       = "value"
	FieldFamiliarity = "familiarity"
	FieldTimestamp   = "timestamp"
	FieldKey         = "_key"
)

// Discriminator tags.
const (
	TagEmail = "email"
	TagPhone = "phone"
	TagName  = "name"
	TagBirth = "birth"
)

var validate = validator.New()

// Family is the registry of contact point subtypes. It is safe for concurrent
// use once created.
type Family struct {
	registry *family.Registry
	codec    *core.Codec
	now      func() time.Time
	point    *core.Schema
}

// Option configures a Family.
type Option func(*Family)

// WithCodec sets the codec points are built and decoded with.
func WithCodec(c *core.Codec) Option {
	return func(f *Family) {
		if c != nil {
			f.codec = c
		}
	}
}

// WithClock sets the clock used to stamp points created without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(f *Family) {
		if now != nil {
			f.now = now
		}
	}
}

// NewFamily builds the contact family and registers its subtypes.
func NewFamily(opts ...Option) *Family {
	f := &Family{
		codec: core.DefaultCodec(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.point = &core.Schema{
		Name:     "contact",
		Required: []string{FieldContext, FieldType, FieldValue},
		PreCreate: func(fields core.Fields) error {
			fields.SetDefault(FieldTimestamp, f.now().UTC())
			fields.SetDefault(FieldFamiliarity, 0)
			return nil
		},
		Check: func(d *core.Document) error {
			if err := family.LowerCase("contact", FieldKey)(d); err != nil {
				return err
			}
			if n, ok := d.Int(FieldFamiliarity); !ok || n < 0 {
				return core.Invalid("contact", FieldFamiliarity, "must be a non-negative integer")
			}
			return nil
		},
	}

	f.registry = family.New(FieldType, family.WithCodec(f.codec), family.WithStrict(true))
	f.registry.
		MustRegister(TagEmail, f.subtype(TagEmail, checkFormat("contact.email", "email"))).
		MustRegister(TagPhone, f.subtype(TagPhone, checkFormat("contact.phone", "e164"))).
		MustRegister(TagName, f.subtype(TagName, nil)).
		MustRegister(TagBirth, f.subtype(TagBirth, checkBirth))
	return f
}

func (f *Family) subtype(tag string, check func(*core.Document) error) *core.Schema {
	s := family.Tagged(f.point, "contact."+tag, FieldType, tag,
		family.CompositeKey(FieldKey, ":", FieldContext, FieldType, FieldValue))
	s.Check = check
	return s
}

func checkFormat(schema, rule string) func(*core.Document) error {
	return func(d *core.Document) error {
		v, _ := d.Text(FieldValue)
		if err := validate.Var(v, rule); err != nil {
			return core.Invalid(schema, FieldValue, "%q is not a valid %s", v, rule)
		}
		return nil
	}
}

func checkBirth(d *core.Document) error {
	v, _ := d.Text(FieldValue)
	var date strfmt.Date
	if err := date.UnmarshalText([]byte(v)); err != nil {
		return core.Invalid("contact.birth", FieldValue, "%q is not a date (YYYY-MM-DD)", v)
	}
	return nil
}

// Registry exposes the underlying discriminator registry.
func (f *Family) Registry() *family.Registry { return f.registry }

// Codec returns the family codec.
func (f *Family) Codec() *core.Codec { return f.codec }

// Schema returns the schema of the subtype tagged tag.
func (f *Family) Schema(tag string) (*core.Schema, bool) { return f.registry.Schema(tag) }

// Base returns the schema every point extends.
func (f *Family) Base() *core.Schema { return f.point }

// Decode parses data into the point its type selects.
func (f *Family) Decode(data []byte) (Point, error) {
	d, err := f.registry.Decode(data)
	if err != nil {
		return nil, err
	}
	return wrap(d)
}

// DecodeDocument decodes data as a typed contact document.
func (f *Family) DecodeDocument(data []byte) (*core.Document, error) {
	return f.registry.Decode(data)
}

// As views d as a point, rebuilding it under its subtype schema when d was
// built elsewhere (for instance decoded schemaless).
func (f *Family) As(d *core.Document) (Point, error) {
	resolved, err := f.registry.Resolve(d)
	if err != nil {
		return nil, err
	}
	return wrap(resolved)
}

// IncreaseFamiliarity returns a copy of p with its familiarity raised by one.
// Every other field, the internal key included, is carried over.
func (f *Family) IncreaseFamiliarity(p Point) (Point, error) {
	if p == nil {
		return nil, fmt.Errorf("increase familiarity: nil point")
	}
	d, err := core.From(p.Document()).Set(FieldFamiliarity, p.Familiarity()+1).Build()
	if err != nil {
		return nil, err
	}
	return wrap(d)
}

// documentDecoder adapts a Family to core.Decoder.
type documentDecoder struct{ f *Family }

func (d documentDecoder) Decode(data []byte) (*core.Document, error) { return d.f.DecodeDocument(data) }

// Decoder returns a core.Decoder that loads stored points under their subtype
// schemas.
func (f *Family) Decoder() core.Decoder { return documentDecoder{f} }
