package platform

import (
	"log/slog"

	"github.com/aretw0/jdoc/pkg/core"
)

// Adapter names accepted by WithAdapter.
const (
	AdapterFS     = "fs"
	AdapterMemory = "memory"
	AdapterSQLite = "sqlite"
)

// options holds the configuration shared by every adapter.
type options struct {
	repository   core.Repository
	logger       *slog.Logger
	adapter      string
	codec        *core.Codec
	decoder      core.Decoder
	format       string
	uniqueField  string
	systemDir    string
	readOnly     bool
	mustExist    bool
	errorHandler func(error)
}

// Option configures Open.
type Option func(*options)

func defaultOptions() *options {
	return &options{adapter: AdapterFS}
}

// WithAdapter selects the storage adapter: "fs" (default), "memory" or "sqlite".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithRepository bypasses adapter selection and returns repo as is.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithLogger sets the logger adapters report through.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCodec sets the codec used to encode and decode stored documents.
func WithCodec(codec *core.Codec) Option {
	return func(o *options) {
		o.codec = codec
	}
}

// WithDecoder sets the decoder for loaded documents, typically a family decoder.
func WithDecoder(decoder core.Decoder) Option {
	return func(o *options) {
		o.decoder = decoder
	}
}

// WithFormat sets the on-disk format of the fs adapter ("json" or "yaml").
func WithFormat(format string) Option {
	return func(o *options) {
		o.format = format
	}
}

// WithUniqueField names the field whose value must be unique in the store.
func WithUniqueField(field string) Option {
	return func(o *options) {
		o.uniqueField = field
	}
}

// WithSystemDir overrides the metadata directory of the fs adapter.
func WithSystemDir(dir string) Option {
	return func(o *options) {
		o.systemDir = dir
	}
}

// WithReadOnly rejects every write.
func WithReadOnly(readOnly bool) Option {
	return func(o *options) {
		o.readOnly = readOnly
	}
}

// WithMustExist fails Open when the fs root does not exist instead of creating it.
func WithMustExist(mustExist bool) Option {
	return func(o *options) {
		o.mustExist = mustExist
	}
}

// WithWatcherErrorHandler receives errors raised by an fs watcher.
func WithWatcherErrorHandler(handler func(error)) Option {
	return func(o *options) {
		o.errorHandler = handler
	}
}
