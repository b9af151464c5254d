package platform

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aretw0/jdoc/pkg/adapters/fs"
	"github.com/aretw0/jdoc/pkg/adapters/memory"
	"github.com/aretw0/jdoc/pkg/adapters/sqlite"
	"github.com/aretw0/jdoc/pkg/core"
)

// Open builds and initializes the repository selected by the options.
// The uri is adapter specific: a directory for fs, a database file (or
// ":memory:") for sqlite, and ignored by memory.
//
//	repo, err := platform.Open("./data", platform.WithFormat("yaml"))
func Open(ctx context.Context, uri string, opts ...Option) (core.Repository, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.repository != nil {
		return o.repository, nil
	}
	if o.codec == nil {
		o.codec = core.DefaultCodec()
	}
	if o.logger == nil {
		o.logger = o.codec.Logger()
	}

	var repo core.Repository
	switch o.adapter {
	case AdapterFS:
		if uri == "" {
			uri = "."
		}
		repo = fs.NewRepository(fs.Config{
			Path:         uri,
			Format:       o.format,
			MustExist:    o.mustExist,
			ReadOnly:     o.readOnly,
			SystemDir:    o.systemDir,
			UniqueField:  o.uniqueField,
			Codec:        o.codec,
			Decoder:      o.decoder,
			Logger:       o.logger,
			ErrorHandler: o.errorHandler,
		})
	case AdapterSQLite:
		if uri == "" {
			uri = "jdoc.db"
		} else if uri != ":memory:" && filepath.Ext(uri) == "" {
			uri = filepath.Join(uri, "jdoc.db")
		}
		repo = sqlite.NewRepository(sqlite.Config{
			Path:        uri,
			UniqueField: o.uniqueField,
			ReadOnly:    o.readOnly,
			Codec:       o.codec,
			Decoder:     o.decoder,
			Logger:      o.logger,
		})
	case AdapterMemory:
		repo = memory.New(memory.WithUniqueField(o.uniqueField), memory.WithLogger(o.logger))
	default:
		return nil, fmt.Errorf("unknown adapter %q", o.adapter)
	}

	if err := repo.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initialize %s repository: %w", o.adapter, err)
	}
	o.logger.Debug("repository opened", "adapter", o.adapter, "uri", uri)
	return repo, nil
}
