package types

import "errors"

// Shelf defines the interface for backend-agnostic storage access.
// Callers attach to a backend, access tables by name, and detach when done.
type Shelf interface {
	// GetTable returns the Table for the given name.
	// Returns ErrTableNotFound if the name is not a standard table.
	GetTable(name string) (Table, error)

	// Attach connects the Shelf to the backend described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, operations return ErrShelfDetached.
	Detach() error

	// ReadDocument returns the JSON document stored under key.
	// Returns ErrNotFound if no document exists.
	ReadDocument(key string) ([]byte, error)

	// WriteDocument stores data (a JSON document) under key, replacing any
	// previous value.
	WriteDocument(key string, data []byte) error

	// Stats reports record counts and queued writes.
	Stats() (Stats, error)
}

// Stats summarizes the contents of an attached shelf.
type Stats struct {
	Mangas        int    `json:"mangas"`
	Tags          int    `json:"tags"`
	Documents     int    `json:"documents"`
	PendingWrites int    `json:"pendingWrites"`
	SyncStrategy  string `json:"syncStrategy"`
	DataDir       string `json:"dataDir"`
}

// TagCascader is implemented by shelves that can strip a tag from every
// manga and delete the tag in one transaction.
type TagCascader interface {
	DeleteTagCascade(tagID int64) (int, error)
}

// Shelf lifecycle errors.
var (
	ErrShelfDetached   = errors.New("shelf is detached")
	ErrAlreadyAttached = errors.New("shelf is already attached")
	ErrTableNotFound   = errors.New("table not found")
)
