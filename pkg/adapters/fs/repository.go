package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/jdoc/pkg/core"
)

// Supported storage formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// DefaultSystemDir holds adapter state (the key index) inside the root.
const DefaultSystemDir = ".jdoc"

// Repository implements core.Repository with one file per document under a
// root directory. The document id is the slash-separated path of the file
// relative to the root, without extension.
type Repository struct {
	Path    string
	config  Config
	codec   *core.Codec
	decoder core.Decoder
	cache   *cache

	writeMu       sync.Mutex // serializes writers so the unique-key check holds
	mu            sync.RWMutex
	watcherActive bool
	lastScan      *scanInfo
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path      string
	Format    string // FormatJSON (default) or FormatYAML
	MustExist bool
	ReadOnly  bool
	SystemDir string
	// UniqueField names the field whose value must be unique across the
	// repository (e.g. "_key"). Empty disables the check.
	UniqueField string
	Codec       *core.Codec
	// Decoder loads stored documents; it defaults to Codec and is where a
	// family registry plugs in to rebuild documents under their subtype.
	Decoder      core.Decoder
	Logger       *slog.Logger
	ErrorHandler func(error)
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.Format == "" {
		config.Format = FormatJSON
	}
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Codec == nil {
		config.Codec = core.DefaultCodec()
	}
	if config.Decoder == nil {
		config.Decoder = config.Codec
	}
	if config.Logger == nil {
		config.Logger = config.Codec.Logger()
	}
	return &Repository{
		Path:    config.Path,
		config:  config,
		codec:   config.Codec,
		decoder: config.Decoder,
		cache:   newCache(config.Path, config.SystemDir),
	}
}

// Initialize prepares the root directory and loads the key index.
func (r *Repository) Initialize(ctx context.Context) error {
	switch r.config.Format {
	case FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("unsupported format %q", r.config.Format)
	}

	if r.config.MustExist || r.config.ReadOnly {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("repository path does not exist: %s", r.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("repository path is not a directory: %s", r.Path)
		}
	} else if err := os.MkdirAll(r.Path, 0755); err != nil {
		return fmt.Errorf("failed to create repository directory: %w", err)
	}

	if err := r.cache.Load(); err != nil {
		r.config.Logger.Warn("discarding key index", "path", r.cache.Path, "error", err)
	}
	return nil
}

// Save writes doc to the file of id, replacing any previous version.
func (r *Repository) Save(ctx context.Context, id string, doc *core.Document) error {
	if r.config.ReadOnly {
		return fmt.Errorf("save %s: %w", id, core.ErrReadOnly)
	}
	if err := validateID(id); err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("save %s: nil document", id)
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	key := r.uniqueKey(doc)
	if key != "" {
		owner, err := r.keyOwner(ctx, key)
		if err != nil {
			return err
		}
		if owner != "" && owner != id {
			return fmt.Errorf("save %s: %s %q already used by %s: %w", id, r.config.UniqueField, key, owner, core.ErrConflict)
		}
	}

	data, err := r.encode(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize document %s: %w", id, err)
	}

	target := r.filename(id, r.ext())
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	if err := writeFileAtomic(target, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	// A document saved in one format supersedes a stale copy in the other.
	if stale := r.filename(id, r.otherExt()); stale != target {
		if err := os.Remove(stale); err == nil {
			r.cache.Delete(r.rel(stale))
		}
	}

	if info, err := os.Stat(target); err == nil {
		r.cache.Set(r.rel(target), &indexEntry{ID: id, Key: key, LastModified: info.ModTime()})
	}
	r.persistCache()

	r.config.Logger.Debug("document saved", "id", id, "hash", doc.Hash())
	return nil
}

// Get loads the document stored under id.
func (r *Repository) Get(ctx context.Context, id string) (*core.Document, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	for _, ext := range []string{r.ext(), r.otherExt()} {
		data, err := os.ReadFile(r.filename(id, ext))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		doc, err := r.decode(ext, data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse document %s: %w", id, err)
		}
		return doc, nil
	}
	return nil, fmt.Errorf("get %s: %w", id, core.ErrNotFound)
}

// Find returns the documents whose id matches condition, a doublestar glob
// such as "contacts/**". An empty condition matches everything. Records are
// ordered by id.
func (r *Repository) Find(ctx context.Context, condition string) ([]core.Record, error) {
	if condition != "" && !doublestar.ValidatePattern(condition) {
		return nil, core.Invalid("", "condition", "malformed pattern %q", condition)
	}

	var records []core.Record
	err := r.walk(ctx, func(id, full string, _ os.DirEntry) error {
		if condition != "" {
			if ok, _ := doublestar.Match(condition, id); !ok {
				return nil
			}
		}
		data, err := os.ReadFile(full)
		if err != nil {
			return err
		}
		doc, err := r.decode(filepath.Ext(full), data)
		if err != nil {
			r.config.Logger.Warn("skipping unreadable document", "id", id, "error", err)
			return nil
		}
		records = append(records, core.Record{ID: id, Doc: doc})
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.recordScan(len(records))
	return records, nil
}

// Delete removes the document stored under id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if r.config.ReadOnly {
		return fmt.Errorf("delete %s: %w", id, core.ErrReadOnly)
	}
	if err := validateID(id); err != nil {
		return err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	removed := false
	for _, ext := range []string{r.ext(), r.otherExt()} {
		full := r.filename(id, ext)
		err := os.Remove(full)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to remove file: %w", err)
		}
		r.cache.Delete(r.rel(full))
		removed = true
	}
	if !removed {
		return fmt.Errorf("delete %s: %w", id, core.ErrNotFound)
	}
	r.persistCache()
	return nil
}

func (r *Repository) encode(doc *core.Document) ([]byte, error) {
	if r.config.Format == FormatYAML {
		return r.codec.EncodeYAML(doc, true)
	}
	data, err := r.codec.EncodeInternal(doc)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// decode hands the stored bytes to the decoder as JSON. YAML files are
// normalized to their canonical JSON form first.
func (r *Repository) decode(ext string, data []byte) (*core.Document, error) {
	if ext == ".yaml" || ext == ".yml" {
		fields, err := r.codec.ParseYAML(data)
		if err != nil {
			return nil, err
		}
		plain, err := r.codec.New(nil, fields)
		if err != nil {
			return nil, err
		}
		if data, err = r.codec.EncodeInternal(plain); err != nil {
			return nil, err
		}
	}
	return r.decoder.Decode(data)
}

// keyOwner returns the id of the document holding key, or "" when free.
// Index entries whose mtime still matches are trusted; others are re-read.
func (r *Repository) keyOwner(ctx context.Context, key string) (string, error) {
	owner := ""
	err := r.walk(ctx, func(id, full string, d os.DirEntry) error {
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel := r.rel(full)
		entry, hit := r.cache.Get(rel, info.ModTime())
		if !hit {
			data, err := os.ReadFile(full)
			if err != nil {
				return err
			}
			doc, err := r.decode(filepath.Ext(full), data)
			if err != nil {
				return nil
			}
			entry = &indexEntry{ID: id, Key: r.uniqueKey(doc), LastModified: info.ModTime()}
			r.cache.Set(rel, entry)
		}
		if entry.Key == key {
			owner = entry.ID
			return filepath.SkipAll
		}
		return nil
	})
	return owner, err
}

func (r *Repository) uniqueKey(doc *core.Document) string {
	if r.config.UniqueField == "" {
		return ""
	}
	key, _ := doc.Text(r.config.UniqueField)
	return key
}

// walk visits every stored document file, skipping the system directory and
// temporary files.
func (r *Repository) walk(ctx context.Context, fn func(id, full string, d os.DirEntry) error) error {
	err := filepath.WalkDir(r.Path, func(full string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if full != r.Path && (d.Name() == r.config.SystemDir || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		id, ok := r.idOf(full)
		if !ok {
			return nil
		}
		return fn(id, full, d)
	})
	if errors.Is(err, filepath.SkipAll) {
		return nil
	}
	return err
}

// idOf maps a file path to its document id.
func (r *Repository) idOf(full string) (string, bool) {
	name := filepath.Base(full)
	if strings.HasPrefix(name, TempFilePrefix) {
		return "", false
	}
	ext := filepath.Ext(name)
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return "", false
	}
	rel := r.rel(full)
	if rel == "" || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return strings.TrimSuffix(rel, ext), true
}

func (r *Repository) rel(full string) string {
	rel, err := filepath.Rel(r.Path, full)
	if err != nil {
		return ""
	}
	return filepath.ToSlash(rel)
}

func (r *Repository) filename(id, ext string) string {
	return filepath.Join(r.Path, filepath.FromSlash(id)+ext)
}

func (r *Repository) ext() string {
	if r.config.Format == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

func (r *Repository) otherExt() string {
	if r.config.Format == FormatYAML {
		return ".json"
	}
	return ".yaml"
}

func (r *Repository) persistCache() {
	if err := r.cache.Save(); err != nil {
		r.handleError(fmt.Errorf("failed to persist key index: %w", err))
	}
}

func (r *Repository) handleError(err error) {
	if r.config.ErrorHandler != nil {
		r.config.ErrorHandler(err)
		return
	}
	r.config.Logger.Error("fs repository", "error", err)
}

func validateID(id string) error {
	if id == "" {
		return core.Invalid("", "id", "empty id")
	}
	clean := path.Clean(id)
	if clean != id || path.IsAbs(id) || clean == ".." || strings.HasPrefix(clean, "../") || strings.Contains(id, `\`) {
		return core.Invalid("", "id", "id %q is not a clean relative path", id)
	}
	return nil
}

var _ core.Repository = (*Repository)(nil)
