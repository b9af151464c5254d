// Package memory is an in-process core.Repository, used by tests and by
// short-lived tools that need the repository contract without storage.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/jdoc/pkg/core"
)

// Repository keeps documents in a map guarded by a RWMutex. Stored documents
// are immutable, so readers share them without copying.
type Repository struct {
	uniqueField string
	logger      *slog.Logger

	mu       sync.RWMutex
	docs     map[string]*core.Document
	keys     map[string]string // unique key -> id
	watchers map[chan core.Event]string
}

// Option configures a Repository.
type Option func(*Repository)

// WithUniqueField enforces that field, when present, is unique across
// documents. Saving a second document with the same value is ErrConflict.
func WithUniqueField(field string) Option {
	return func(r *Repository) {
		r.uniqueField = field
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates an empty repository.
func New(opts ...Option) *Repository {
	r := &Repository{
		logger:   slog.Default(),
		docs:     make(map[string]*core.Document),
		keys:     make(map[string]string),
		watchers: make(map[chan core.Event]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Initialize is a no-op.
func (r *Repository) Initialize(ctx context.Context) error { return nil }

// Save stores doc under id.
func (r *Repository) Save(ctx context.Context, id string, doc *core.Document) error {
	if id == "" {
		return core.Invalid("", "id", "empty id")
	}
	if doc == nil {
		return fmt.Errorf("save %s: nil document", id)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := r.keyOf(doc)
	if key != "" {
		if owner, taken := r.keys[key]; taken && owner != id {
			return fmt.Errorf("save %s: %s %q already used by %s: %w", id, r.uniqueField, key, owner, core.ErrConflict)
		}
	}

	kind := core.EventCreate
	if prev, ok := r.docs[id]; ok {
		kind = core.EventModify
		if old := r.keyOf(prev); old != "" {
			delete(r.keys, old)
		}
	}
	r.docs[id] = doc
	if key != "" {
		r.keys[key] = id
	}
	r.notify(core.Event{Type: kind, ID: id, Timestamp: time.Now().Unix()})
	return nil
}

// Get returns the document stored under id.
func (r *Repository) Get(ctx context.Context, id string) (*core.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, core.ErrNotFound)
	}
	return doc, nil
}

// Find returns the documents whose id matches condition, a doublestar glob.
func (r *Repository) Find(ctx context.Context, condition string) ([]core.Record, error) {
	if condition != "" && !doublestar.ValidatePattern(condition) {
		return nil, core.Invalid("", "condition", "malformed pattern %q", condition)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]core.Record, 0, len(r.docs))
	for id, doc := range r.docs {
		if condition != "" {
			if ok, _ := doublestar.Match(condition, id); !ok {
				continue
			}
		}
		records = append(records, core.Record{ID: id, Doc: doc})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// Delete removes the document stored under id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return fmt.Errorf("delete %s: %w", id, core.ErrNotFound)
	}
	if key := r.keyOf(doc); key != "" {
		delete(r.keys, key)
	}
	delete(r.docs, id)
	r.notify(core.Event{Type: core.EventDelete, ID: id, Timestamp: time.Now().Unix()})
	return nil
}

// Watch reports changes to ids matching pattern until ctx is done. Slow
// consumers miss events rather than block writers.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, core.Invalid("", "pattern", "malformed pattern %q", pattern)
	}
	ch := make(chan core.Event, 64)

	r.mu.Lock()
	r.watchers[ch] = pattern
	r.mu.Unlock()

	context.AfterFunc(ctx, func() {
		r.mu.Lock()
		delete(r.watchers, ch)
		r.mu.Unlock()
		close(ch)
	})
	return ch, nil
}

// notify must be called with r.mu held.
func (r *Repository) notify(e core.Event) {
	for ch, pattern := range r.watchers {
		if pattern != "" {
			if ok, _ := doublestar.Match(pattern, e.ID); !ok {
				continue
			}
		}
		select {
		case ch <- e:
		default:
			r.logger.Warn("dropping event for slow watcher", "event", e.String())
		}
	}
}

func (r *Repository) keyOf(doc *core.Document) string {
	if r.uniqueField == "" {
		return ""
	}
	key, _ := doc.Text(r.uniqueField)
	return key
}

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Documents   int    `json:"documents"`
	Keys        int    `json:"keys"`
	Watchers    int    `json:"watchers"`
	UniqueField string `json:"unique_field,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RepositoryState{
		Documents:   len(r.docs),
		Keys:        len(r.keys),
		Watchers:    len(r.watchers),
		UniqueField: r.uniqueField,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string { return "repository" }

var (
	_ core.Repository              = (*Repository)(nil)
	_ core.Watchable               = (*Repository)(nil)
	_ introspection.Introspectable = (*Repository)(nil)
	_ introspection.Component      = (*Repository)(nil)
)
