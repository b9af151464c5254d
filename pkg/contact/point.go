package contact

import (
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/aretw0/jdoc/pkg/core"
)

// Point is a typed view of a contact document. The concrete types are Email,
// Phone, Name and Birth.
type Point interface {
	Tag() string
	Document() *core.Document
	Context() string
	Value() string
	Key() string
	Familiarity() int64
	Timestamp() time.Time
	String() string

	point()
}

type base struct {
	doc *core.Document
}

func (b base) Document() *core.Document { return b.doc }

func (b base) Context() string {
	v, _ := b.doc.Text(FieldContext)
	return v
}

func (b base) Value() string {
	v, _ := b.doc.Text(FieldValue)
	return v
}

func (b base) Key() string {
	v, _ := b.doc.Text(FieldKey)
	return v
}

func (b base) Familiarity() int64 {
	n, _ := b.doc.Int(FieldFamiliarity)
	return n
}

func (b base) Timestamp() time.Time {
	ts, _ := b.doc.Time(FieldTimestamp)
	return ts
}

func (b base) String() string { return b.doc.String() }

func (base) point() {}

// Email is an e-mail address.
type Email struct{ base }

func (Email) Tag() string { return TagEmail }

// Address returns the e-mail address.
func (e Email) Address() string { return e.Value() }

// Phone is an E.164 phone number.
type Phone struct{ base }

func (Phone) Tag() string { return TagPhone }

// Number returns the phone number.
func (p Phone) Number() string { return p.Value() }

// Name is a personal name.
type Name struct{ base }

func (Name) Tag() string { return TagName }

// Birth is a date of birth.
type Birth struct{ base }

func (Birth) Tag() string { return TagBirth }

// Date returns the birth date at midnight UTC.
func (b Birth) Date() time.Time {
	var d strfmt.Date
	if err := d.UnmarshalText([]byte(b.Value())); err != nil {
		return time.Time{}
	}
	return time.Time(d)
}

func wrap(d *core.Document) (Point, error) {
	tag, _ := d.Text(FieldType)
	b := base{doc: d}
	switch tag {
	case TagEmail:
		return Email{b}, nil
	case TagPhone:
		return Phone{b}, nil
	case TagName:
		return Name{b}, nil
	case TagBirth:
		return Birth{b}, nil
	}
	return nil, core.Invalid("contact", FieldType, "unknown contact type %q", tag)
}

// Builder assembles a point of one subtype.
type Builder struct {
	f   *Family
	b   *core.Builder
	err error
}

func (f *Family) builder(tag string) *Builder {
	b, err := f.registry.Builder(tag)
	return &Builder{f: f, b: b, err: err}
}

// NewEmail starts an e-mail point.
func (f *Family) NewEmail(context, address string) *Builder {
	return f.builder(TagEmail).Context(context).Value(address)
}

// NewPhone starts a phone point.
func (f *Family) NewPhone(context, number string) *Builder {
	return f.builder(TagPhone).Context(context).Value(number)
}

// NewName starts a name point.
func (f *Family) NewName(context, name string) *Builder {
	return f.builder(TagName).Context(context).Value(name)
}

// NewBirth starts a birth point from a calendar date.
func (f *Family) NewBirth(context string, date time.Time) *Builder {
	return f.builder(TagBirth).Context(context).set(FieldValue, strfmt.Date(date))
}

// From starts a builder seeded with every field of p.
func (f *Family) From(p Point) *Builder {
	return &Builder{f: f, b: core.From(p.Document())}
}

func (b *Builder) set(field string, v any) *Builder {
	if b.err == nil {
		b.b.Set(field, v)
	}
	return b
}

// Context sets the scope of the point, e.g. "home".
func (b *Builder) Context(context string) *Builder { return b.set(FieldContext, context) }

// Value sets the point value.
func (b *Builder) Value(value string) *Builder { return b.set(FieldValue, value) }

// Familiarity sets how familiar the point is.
func (b *Builder) Familiarity(n int64) *Builder { return b.set(FieldFamiliarity, n) }

// Timestamp sets when the point was recorded.
func (b *Builder) Timestamp(ts time.Time) *Builder { return b.set(FieldTimestamp, ts) }

// Set sets an arbitrary field, for extensions outside the common set.
func (b *Builder) Set(field string, v any) *Builder { return b.set(field, v) }

// Build validates and returns the point.
func (b *Builder) Build() (Point, error) {
	if b.err != nil {
		return nil, b.err
	}
	d, err := b.b.Build()
	if err != nil {
		return nil, err
	}
	return wrap(d)
}

// MustBuild is Build for fixtures; it panics on error.
func (b *Builder) MustBuild() Point {
	p, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("contact: %v", err))
	}
	return p
}
