// Package typed maps Go structs onto documents, so callers work with their own
// types while storage keeps the schemaless, validated document form.
package typed

import (
	"context"
	"fmt"

	"github.com/aretw0/jdoc/pkg/core"
)

// Model is a typed view of a stored document.
type Model[T any] struct {
	ID   string
	Data T
	// Doc is the document last saved or loaded. Saving through a model keeps
	// its internal fields (those the struct cannot see).
	Doc   *core.Document
	Saver Saver[T]
}

// Saver persists models; Repository implements it.
type Saver[T any] interface {
	Save(ctx context.Context, m *Model[T]) error
}

// Save persists the model through its attached saver.
func (m *Model[T]) Save(ctx context.Context) error {
	if m.Saver == nil {
		return fmt.Errorf("model %s is detached (missing Saver)", m.ID)
	}
	return m.Saver.Save(ctx, m)
}

// Option configures a Repository.
type Option func(*options)

type options struct {
	codec  *core.Codec
	schema *core.Schema
}

// WithSchema validates every saved and loaded document against schema.
func WithSchema(s *core.Schema) Option {
	return func(o *options) { o.schema = s }
}

// WithCodec sets the codec used to build documents from structs.
func WithCodec(c *core.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// Repository wraps a core.Repository with struct mapping.
type Repository[T any] struct {
	repo   core.Repository
	codec  *core.Codec
	schema *core.Schema
}

// NewRepository creates a typed wrapper around repo.
func NewRepository[T any](repo core.Repository, opts ...Option) *Repository[T] {
	o := options{codec: core.DefaultCodec()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Repository[T]{repo: repo, codec: o.codec, schema: o.schema}
}

// New returns a model attached to r.
func (r *Repository[T]) New(id string, data T) *Model[T] {
	return &Model[T]{ID: id, Data: data, Saver: r}
}

// Save converts Data into a document, validates it and persists it.
func (r *Repository[T]) Save(ctx context.Context, m *Model[T]) error {
	if m.ID == "" {
		return core.Invalid(schemaName(r.schema), "id", "empty id")
	}
	v, err := r.codec.Value(m.Data)
	if err != nil {
		return fmt.Errorf("failed to convert typed data: %w", err)
	}
	fields, ok := core.Native(v).(map[string]any)
	if !ok {
		return fmt.Errorf("typed data of %T is a %s, not an object", m.Data, v.Kind())
	}

	b := r.codec.Builder(r.schema)
	if m.Doc != nil {
		for _, k := range m.Doc.AllKeys() {
			if r.codec.IsInternal(k) {
				val, _ := m.Doc.Value(k)
				b.Set(k, val)
			}
		}
	}
	doc, err := b.Merge(fields).Build()
	if err != nil {
		return err
	}
	if err := r.repo.Save(ctx, m.ID, doc); err != nil {
		return err
	}
	m.Doc = doc
	if m.Saver == nil {
		m.Saver = r
	}
	return nil
}

// Get loads and decodes the document stored under id.
func (r *Repository[T]) Get(ctx context.Context, id string) (*Model[T], error) {
	doc, err := r.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.fromDocument(id, doc)
}

// Find returns the models whose documents match condition.
func (r *Repository[T]) Find(ctx context.Context, condition string) ([]*Model[T], error) {
	records, err := r.repo.Find(ctx, condition)
	if err != nil {
		return nil, err
	}
	models := make([]*Model[T], 0, len(records))
	for _, rec := range records {
		m, err := r.fromDocument(rec.ID, rec.Doc)
		if err != nil {
			return nil, fmt.Errorf("failed to process document %s: %w", rec.ID, err)
		}
		models = append(models, m)
	}
	return models, nil
}

// List returns every model.
func (r *Repository[T]) List(ctx context.Context) ([]*Model[T], error) {
	return r.Find(ctx, "")
}

// Delete removes the document stored under id.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	return r.repo.Delete(ctx, id)
}

func (r *Repository[T]) fromDocument(id string, doc *core.Document) (*Model[T], error) {
	if r.schema != nil && !doc.Schema().Is(r.schema) {
		rebuilt, err := core.From(doc).WithSchema(r.schema).Build()
		if err != nil {
			return nil, err
		}
		doc = rebuilt
	}
	var data T
	if err := doc.Decode(&data); err != nil {
		return nil, err
	}
	return &Model[T]{ID: id, Data: data, Doc: doc, Saver: r}, nil
}

func schemaName(s *core.Schema) string {
	if s == nil {
		return ""
	}
	return s.Name
}
