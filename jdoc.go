package jdoc

import (
	"context"
	"log/slog"

	"github.com/aretw0/jdoc/internal/platform"
	"github.com/aretw0/jdoc/pkg/core"
	"github.com/aretw0/jdoc/pkg/typed"
)

// --- Types ---

type (
	Document   = core.Document
	Builder    = core.Builder
	Schema     = core.Schema
	Codec      = core.Codec
	Fields     = core.Fields
	Repository = core.Repository
	Record     = core.Record
	Event      = core.Event
)

// Model is a public alias for the typed document model.
type Model[T any] = typed.Model[T]

// TypedRepository is a public alias for the typed repository.
type TypedRepository[T any] = typed.Repository[T]

// --- Documents ---

// New builds a document under the default codec without a schema.
func New(fields Fields) (*Document, error) {
	return core.New(fields)
}

// NewWithSchema builds a document validated by schema.
func NewWithSchema(schema *Schema, fields Fields) (*Document, error) {
	return core.NewWithSchema(schema, fields)
}

// NewBuilder starts an empty builder for schema.
func NewBuilder(schema *Schema) *Builder {
	return core.NewBuilder(schema)
}

// From starts a builder holding the fields of prior.
func From(prior *Document) *Builder {
	return core.From(prior)
}

// NewCodec creates a codec with the given options.
func NewCodec(opts ...core.CodecOption) *Codec {
	return core.NewCodec(opts...)
}

// Decode parses a JSON (or JSONC) object into a document.
func Decode(data []byte) (*Document, error) {
	return core.DefaultCodec().Decode(data)
}

// --- Configuration ---

// Option configures Open.
type Option = platform.Option

// WithAdapter selects the storage adapter by name ("fs", "memory", "sqlite").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithRepository injects a custom storage adapter.
func WithRepository(repo Repository) Option {
	return platform.WithRepository(repo)
}

// WithLogger sets the logger for the repository.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithCodec sets the codec used by the repository.
func WithCodec(codec *Codec) Option {
	return platform.WithCodec(codec)
}

// WithDecoder sets the decoder for loaded documents.
func WithDecoder(decoder core.Decoder) Option {
	return platform.WithDecoder(decoder)
}

// WithFormat sets the file format of the fs adapter.
func WithFormat(format string) Option {
	return platform.WithFormat(format)
}

// WithUniqueField enforces a unique field across the repository.
func WithUniqueField(field string) Option {
	return platform.WithUniqueField(field)
}

// WithSystemDir sets the hidden metadata directory (e.g. ".jdoc").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithReadOnly rejects writes.
func WithReadOnly(readOnly bool) Option {
	return platform.WithReadOnly(readOnly)
}

// WithMustExist ensures the store directory already exists.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithWatcherErrorHandler receives watcher errors of the fs adapter.
func WithWatcherErrorHandler(handler func(error)) Option {
	return platform.WithWatcherErrorHandler(handler)
}

// --- Factory ---

// Open creates and initializes a repository.
func Open(ctx context.Context, uri string, opts ...Option) (Repository, error) {
	return platform.Open(ctx, uri, opts...)
}

// NewTyped creates a type-safe wrapper around an existing repository.
func NewTyped[T any](repo Repository, opts ...typed.Option) *TypedRepository[T] {
	return typed.NewRepository[T](repo, opts...)
}

// OpenTyped opens a repository and wraps it for T.
func OpenTyped[T any](ctx context.Context, uri string, opts ...Option) (*TypedRepository[T], error) {
	repo, err := Open(ctx, uri, opts...)
	if err != nil {
		return nil, err
	}
	return typed.NewRepository[T](repo), nil
}

// FindRoot looks upwards from startDir for a store marker.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
