package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/jdoc/pkg/core"
)

const debounceDelay = 50 * time.Millisecond

// Watch reports documents created, modified or deleted on disk whose id
// matches pattern, a doublestar glob ("" for all). The channel is closed when
// ctx is done or the underlying watcher fails.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, core.Invalid("", "pattern", "malformed pattern %q", pattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := r.addTree(watcher, r.Path); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	known := make(map[string]bool)
	if err := r.walk(ctx, func(id, _ string, _ os.DirEntry) error {
		known[id] = true
		return nil
	}); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	events := make(chan core.Event, 16)
	w := &watchWorker{
		repo:      r,
		pattern:   pattern,
		events:    events,
		watcher:   watcher,
		known:     known,
		debouncer: newDebouncer(debounceDelay),
		done:      make(chan struct{}),
	}
	r.setWatcherActive(true)

	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		r.handleError(fmt.Errorf("watcher: %w", err))
	}))
	return events, nil
}

type watchWorker struct {
	repo      *Repository
	pattern   string
	events    chan core.Event
	watcher   *fsnotify.Watcher
	known     map[string]bool
	debouncer *debouncer
	done      chan struct{}
}

// run is the event loop. It owns the events channel and closes it on exit,
// after every pending debounced event has been delivered or dropped.
func (w *watchWorker) run(ctx context.Context) (err error) {
	logger := w.repo.config.Logger
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", err)
			}
		}
		close(w.done)
		w.debouncer.stopAndWait()
		_ = w.watcher.Close()
		w.repo.setWatcherActive(false)
		close(w.events)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			w.handle(ctx, event)

		case werr, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.repo.handleError(fmt.Errorf("fsnotify: %w", werr))
		}
	}
}

func (w *watchWorker) handle(ctx context.Context, event fsnotify.Event) {
	logger := w.repo.config.Logger
	logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.ignoredDir(event.Name) {
				if err := w.repo.addTree(w.watcher, event.Name); err != nil {
					w.repo.handleError(err)
				}
			}
			return
		}
	}

	id, ok := w.repo.idOf(event.Name)
	if !ok || w.ignoredDir(filepath.Dir(event.Name)) {
		return
	}
	if w.pattern != "" {
		if match, _ := doublestar.Match(w.pattern, id); !match {
			return
		}
	}

	var kind core.EventType
	switch {
	case event.Has(fsnotify.Create):
		// Atomic saves surface as a create of the final name.
		kind = core.EventCreate
		if w.known[id] {
			kind = core.EventModify
		}
		w.known[id] = true
	case event.Has(fsnotify.Write):
		kind = core.EventModify
		w.known[id] = true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		kind = core.EventDelete
		delete(w.known, id)
	default:
		return
	}

	w.debouncer.add(core.Event{Type: kind, ID: id, Timestamp: time.Now().Unix()}, func(e core.Event) {
		select {
		case w.events <- e:
		case <-ctx.Done():
		case <-w.done:
		}
	})
}

func (w *watchWorker) ignoredDir(dir string) bool {
	rel := w.repo.rel(dir)
	if rel == "." || rel == "" {
		return false
	}
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// addTree watches root and every non-hidden directory below it.
func (r *Repository) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != r.Path && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

// debouncer coalesces bursts of events per document id.
type debouncer struct {
	delay   time.Duration
	mu      sync.Mutex
	pending map[string]*time.Timer
	latest  map[string]core.Event
	stopped bool
	wg      sync.WaitGroup
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:   delay,
		pending: make(map[string]*time.Timer),
		latest:  make(map[string]core.Event),
	}
}

func (d *debouncer) add(e core.Event, emit func(core.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if prev, ok := d.latest[e.ID]; ok {
		switch {
		case prev.Type == core.EventCreate && e.Type == core.EventModify:
			e.Type = core.EventCreate
		case prev.Type == core.EventDelete && e.Type == core.EventCreate:
			e.Type = core.EventModify
		}
	}
	d.latest[e.ID] = e

	if t, ok := d.pending[e.ID]; ok {
		t.Reset(d.delay)
		return
	}
	id := e.ID
	d.pending[id] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		ev, ok := d.latest[id]
		if d.stopped || !ok {
			d.mu.Unlock()
			return
		}
		delete(d.latest, id)
		delete(d.pending, id)
		d.wg.Add(1)
		d.mu.Unlock()

		defer d.wg.Done()
		emit(ev)
	})
}

// stopAndWait drops pending events and waits for in-flight emits.
func (d *debouncer) stopAndWait() {
	d.mu.Lock()
	d.stopped = true
	for id, t := range d.pending {
		t.Stop()
		delete(d.pending, id)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

var _ core.Watchable = (*Repository)(nil)
