package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

type scanInfo struct {
	at    time.Time
	count int
}

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path          string     `json:"path"`
	Format        string     `json:"format"`
	SystemDir     string     `json:"system_dir"`
	IndexSize     int        `json:"index_size"`
	ReadOnly      bool       `json:"read_only"`
	UniqueField   string     `json:"unique_field,omitempty"`
	WatcherActive bool       `json:"watcher_active"`
	LastScan      *time.Time `json:"last_scan,omitempty"`
	LastScanCount int        `json:"last_scan_count,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := RepositoryState{
		Path:          r.Path,
		Format:        r.config.Format,
		SystemDir:     r.config.SystemDir,
		IndexSize:     r.cache.Len(),
		ReadOnly:      r.config.ReadOnly,
		UniqueField:   r.config.UniqueField,
		WatcherActive: r.watcherActive,
	}
	if r.lastScan != nil {
		at := r.lastScan.at
		s.LastScan = &at
		s.LastScanCount = r.lastScan.count
	}
	return s
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)

func (r *Repository) setWatcherActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watcherActive = active
}

func (r *Repository) recordScan(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastScan = &scanInfo{at: time.Now(), count: count}
}
