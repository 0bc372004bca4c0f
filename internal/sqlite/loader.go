// This file implements JSONL loading for startup.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

// loadAllJSONL reads each JSONL file from dataDir and inserts the records
// into the corresponding SQLite tables. Loading is transactional: all tables
// load or the database stays empty. Malformed lines and records that fail
// decoding or constraints are skipped; unknown fields are ignored so newer
// files load into older binaries.
func loadAllJSONL(db *sql.DB, dataDir string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	loaders := []struct {
		file string
		load func(*sql.Tx, []json.RawMessage) error
	}{
		{tagsFile, loadTags},
		{mangasFile, loadMangas},
		{documentsFile, loadDocuments},
	}

	for _, l := range loaders {
		records, err := readJSONL(filepath.Join(dataDir, l.file))
		if err != nil {
			return fmt.Errorf("reading %s: %w", l.file, err)
		}
		if len(records) == 0 {
			continue
		}
		if err := l.load(tx, records); err != nil {
			return fmt.Errorf("loading %s: %w", l.file, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

func loadMangas(tx *sql.Tx, records []json.RawMessage) error {
	stmt, err := tx.Prepare(`INSERT INTO mangas (` + mangaColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing manga insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		var m mangaJSON
		if err := json.Unmarshal(rec, &m); err != nil {
			continue
		}
		if m.ID <= 0 || strings.TrimSpace(m.Title) == "" {
			continue
		}
		if m.Type == "" {
			m.Type = string(types.TypeOther)
		}
		if m.State == "" {
			m.State = string(types.StateNone)
		}
		tags, err := encodeTagIDs(m.Tags)
		if err != nil {
			continue
		}
		if _, err := stmt.Exec(m.ID, m.Title, m.Link, m.Image, m.Chapters, boolToInt(m.IsFavorite),
			m.Type, m.State, tags, m.CreatedAt, m.UpdatedAt); err != nil {
			continue
		}
	}
	return nil
}

func loadTags(tx *sql.Tx, records []json.RawMessage) error {
	stmt, err := tx.Prepare(`INSERT INTO tags (` + tagColumns + `) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing tag insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		var t tagJSON
		if err := json.Unmarshal(rec, &t); err != nil {
			continue
		}
		if t.ID <= 0 || t.Name == "" {
			continue
		}
		if _, err := stmt.Exec(t.ID, t.Name, t.Color); err != nil {
			continue
		}
	}
	return nil
}

func loadDocuments(tx *sql.Tx, records []json.RawMessage) error {
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO documents (key, value, updated_at) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing document insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		var d documentJSON
		if err := json.Unmarshal(rec, &d); err != nil {
			continue
		}
		if d.Key == "" || !json.Valid([]byte(d.Value)) {
			continue
		}
		if _, err := stmt.Exec(d.Key, d.Value, d.UpdatedAt); err != nil {
			continue
		}
	}
	return nil
}
