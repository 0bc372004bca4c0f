package types

import "errors"

// Table provides uniform storage operations for a single entity type.
// Get, All, RangeQuery, and BulkGet return any; callers type-assert to the
// concrete entity struct (*Manga or *Tag).
type Table interface {
	// Get retrieves the entity with the given ID.
	// Returns ErrNotFound if no entity exists with that ID.
	Get(id int64) (any, error)

	// Add inserts a new entity and returns the store-assigned ID. Any ID set
	// on the entity is ignored.
	Add(data any) (int64, error)

	// Update applies a partial change set keyed by field name and returns
	// the number of affected entities (0 when id does not exist).
	// Returns ErrInvalidData for unknown fields or mistyped values.
	Update(id int64, changes map[string]any) (int, error)

	// Delete removes the entity with the given ID. Deleting an absent ID
	// succeeds.
	Delete(id int64) error

	// All returns every entity in ID order.
	All() ([]any, error)

	// RangeQuery returns entities whose field lies within [min, max].
	// Only indexed fields are accepted; others return ErrInvalidFilter.
	RangeQuery(field string, min, max any) ([]any, error)

	// BulkGet returns one element per requested ID, in request order, with
	// nil for IDs that do not exist.
	BulkGet(ids []int64) ([]any, error)
}

// Standard table names for Shelf.GetTable.
const (
	MangasTable = "mangas"
	TagsTable   = "tags"
)

// StandardTableNames lists all standard table names for enumeration.
var StandardTableNames = []string{
	MangasTable,
	TagsTable,
}

// Table operation errors.
var (
	ErrInvalidID     = errors.New("invalid entity ID")
	ErrInvalidData   = errors.New("invalid entity data")
	ErrInvalidFilter = errors.New("invalid filter value type")
)

// Domain errors surfaced by the query engine and its callers.
var (
	// ErrNotFound reports a missing mutation or lookup target.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput reports malformed filters, bounds, or entity fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorageFailure wraps any error returned by the underlying store.
	ErrStorageFailure = errors.New("storage failure")

	// ErrImportValidation reports a malformed or incompatible import file.
	ErrImportValidation = errors.New("import validation failed")
)
