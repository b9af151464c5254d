package core

import "context"

// Decoder rebuilds a Document from its stored JSON form. Both *Codec and a
// discriminator registry implement it.
type Decoder interface {
	Decode(data []byte) (*Document, error)
}

// Record pairs a stored Document with its identifier.
type Record struct {
	ID  string
	Doc *Document
}

// Repository defines the contract for storing and retrieving documents.
// Implementations persist the full field map, internal fields included, and
// re-run construction when loading so stored data is validated again.
type Repository interface {
	// Initialize ensures the underlying storage is ready (directories, schema migration).
	Initialize(ctx context.Context) error

	// Save persists a document under id. It creates or replaces.
	Save(ctx context.Context, id string, doc *Document) error

	// Get retrieves a document by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Document, error)

	// Find returns documents matching an adapter-specific condition, sorted by id.
	// An empty condition matches everything.
	Find(ctx context.Context, condition string) ([]Record, error)

	// Delete removes a document by id, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// EventType represents the type of change in a repository.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change observed in a repository.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return string(e.Type) + " " + e.ID
}

// Watchable is implemented by repositories that can report changes.
type Watchable interface {
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// Closer is implemented by repositories holding resources.
type Closer interface {
	Close() error
}
