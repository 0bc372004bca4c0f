// This file implements the keyed JSON document store used for settings.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

// ReadDocument returns the JSON document stored under key.
// Returns ErrNotFound if no document exists.
func (b *Backend) ReadDocument(key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrShelfDetached
	}

	var value string
	err := b.db.QueryRow("SELECT value FROM documents WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading document %q: %w", key, err)
	}
	return []byte(value), nil
}

// WriteDocument stores data under key, replacing any previous value.
// Returns ErrInvalidData if key is empty or data is not valid JSON.
func (b *Backend) WriteDocument(key string, data []byte) error {
	if key == "" || !json.Valid(data) {
		return types.ErrInvalidData
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrShelfDetached
	}

	_, err := b.db.Exec(`INSERT INTO documents (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), types.FormatTimestamp(time.Now()))
	if err != nil {
		return fmt.Errorf("writing document %q: %w", key, err)
	}
	return b.persist(documentsFile, b.persistDocumentsJSONL)
}

// persistDocumentsJSONL rewrites documents.jsonl from SQLite.
func (b *Backend) persistDocumentsJSONL() error {
	rows, err := b.db.Query("SELECT key, value, updated_at FROM documents ORDER BY key")
	if err != nil {
		return fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var recs []documentJSON
	for rows.Next() {
		var d documentJSON
		if err := rows.Scan(&d.Key, &d.Value, &d.UpdatedAt); err != nil {
			return fmt.Errorf("scanning document: %w", err)
		}
		recs = append(recs, d)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating documents: %w", err)
	}
	records, err := marshalRecords(recs)
	if err != nil {
		return err
	}
	return writeJSONL(filepath.Join(b.dataDir, documentsFile), records)
}
