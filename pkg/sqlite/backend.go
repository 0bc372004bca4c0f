// Package sqlite provides the public API for the SQLite shelf backend.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"github.com/mesh-intelligence/mangashelf/internal/sqlite"
	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	backend := sqlite.NewBackend()
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".mangashelf-db",
//	})
//	defer backend.Detach()
func NewBackend() types.Shelf {
	return sqlite.NewBackend()
}
