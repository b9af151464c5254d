// Package sqlite stores documents in a single SQLite table through the pure-Go
// modernc.org/sqlite driver.
//
// Each row holds the document id, its unique key (NULL when the document has
// none) and the full field map as internal JSON. Find conditions are SQL
// boolean expressions over those columns, so JSON1 functions work:
//
//	repo.Find(ctx, `json_extract(body, '$.context') = 'work'`)
//
// Conditions are spliced into the query verbatim and must come from trusted
// code, never from end users.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/introspection"

	"github.com/aretw0/jdoc/pkg/core"

	_ "modernc.org/sqlite"
)

// Config holds the configuration for the SQLite repository.
type Config struct {
	// Path is the database file; ":memory:" keeps everything in process.
	Path string
	// UniqueField is stored in the UNIQUE key column (e.g. "_key").
	UniqueField string
	ReadOnly    bool
	Codec       *core.Codec
	Decoder     core.Decoder
	Logger      *slog.Logger
}

// Repository implements core.Repository on SQLite.
type Repository struct {
	config Config
	codec  *core.Codec
	db     *sql.DB

	mu     sync.RWMutex
	opened time.Time
	saves  int64
	finds  int64
}

// NewRepository creates a repository. The database is opened by Initialize.
func NewRepository(config Config) *Repository {
	if config.Codec == nil {
		config.Codec = core.DefaultCodec()
	}
	if config.Decoder == nil {
		config.Decoder = config.Codec
	}
	if config.Logger == nil {
		config.Logger = config.Codec.Logger()
	}
	return &Repository{config: config, codec: config.Codec}
}

// Initialize opens the database in WAL mode and creates the table.
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.Path == "" {
		return fmt.Errorf("sqlite: empty database path")
	}
	dsn := r.config.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(60000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	if r.config.Path == ":memory:" {
		// Every connection to :memory: is its own database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return fmt.Errorf("migrate: %w", err)
	}

	r.mu.Lock()
	r.db = db
	r.opened = time.Now()
	r.mu.Unlock()
	return nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS documents (
		id         TEXT PRIMARY KEY,
		key        TEXT UNIQUE,
		body       TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`)
	return err
}

// Close closes the database.
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Repository) handle() (*sql.DB, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.db == nil {
		return nil, fmt.Errorf("sqlite: repository not initialized")
	}
	return r.db, nil
}

// Save inserts or replaces the document stored under id.
func (r *Repository) Save(ctx context.Context, id string, doc *core.Document) error {
	if r.config.ReadOnly {
		return fmt.Errorf("save %s: %w", id, core.ErrReadOnly)
	}
	if id == "" {
		return core.Invalid("", "id", "empty id")
	}
	if doc == nil {
		return fmt.Errorf("save %s: nil document", id)
	}
	db, err := r.handle()
	if err != nil {
		return err
	}

	body, err := r.codec.EncodeInternal(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize document %s: %w", id, err)
	}
	var key sql.NullString
	if r.config.UniqueField != "" {
		key.String, key.Valid = doc.Text(r.config.UniqueField)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	err = retryOnContention(func() error {
		_, err := db.ExecContext(ctx,
			`INSERT INTO documents (id, key, body, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET key = excluded.key, body = excluded.body, updated_at = excluded.updated_at`,
			id, key, string(body), now,
		)
		return err
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("save %s: %s %q already used: %w", id, r.config.UniqueField, key.String, core.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("save %s: %w", id, err)
	}

	r.mu.Lock()
	r.saves++
	r.mu.Unlock()
	return nil
}

// Get loads the document stored under id.
func (r *Repository) Get(ctx context.Context, id string) (*core.Document, error) {
	db, err := r.handle()
	if err != nil {
		return nil, err
	}
	var body string
	err = db.QueryRowContext(ctx, `SELECT body FROM documents WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	doc, err := r.config.Decoder.Decode([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document %s: %w", id, err)
	}
	return doc, nil
}

// Find returns the documents matching condition, ordered by id.
func (r *Repository) Find(ctx context.Context, condition string) ([]core.Record, error) {
	db, err := r.handle()
	if err != nil {
		return nil, err
	}

	query := `SELECT id, body FROM documents`
	if strings.TrimSpace(condition) != "" {
		query += ` WHERE (` + condition + `)`
	}
	query += ` ORDER BY id`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find %q: %w", condition, err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		doc, err := r.config.Decoder.Decode([]byte(body))
		if err != nil {
			r.config.Logger.Warn("skipping unreadable document", "id", id, "error", err)
			continue
		}
		records = append(records, core.Record{ID: id, Doc: doc})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.finds++
	r.mu.Unlock()
	return records, nil
}

// Delete removes the document stored under id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if r.config.ReadOnly {
		return fmt.Errorf("delete %s: %w", id, core.ErrReadOnly)
	}
	db, err := r.handle()
	if err != nil {
		return err
	}
	var affected int64
	err = retryOnContention(func() error {
		res, err := db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("delete %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path        string     `json:"path"`
	Open        bool       `json:"open"`
	OpenedAt    *time.Time `json:"opened_at,omitempty"`
	UniqueField string     `json:"unique_field,omitempty"`
	ReadOnly    bool       `json:"read_only"`
	Saves       int64      `json:"saves"`
	Finds       int64      `json:"finds"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := RepositoryState{
		Path:        r.config.Path,
		Open:        r.db != nil,
		UniqueField: r.config.UniqueField,
		ReadOnly:    r.config.ReadOnly,
		Saves:       r.saves,
		Finds:       r.finds,
	}
	if r.db != nil {
		at := r.opened
		s.OpenedAt = &at
	}
	return s
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string { return "repository" }

var (
	_ core.Repository              = (*Repository)(nil)
	_ core.Closer                  = (*Repository)(nil)
	_ introspection.Introspectable = (*Repository)(nil)
	_ introspection.Component      = (*Repository)(nil)
)
