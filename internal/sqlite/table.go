package sqlite

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

// Compile-time interface check: table must implement Table.
var _ types.Table = (*table)(nil)

// table implements types.Table for a single entity type. Each operation
// takes the backend lock, checks attachment, and dispatches on the table
// name to the entity-specific implementation.
type table struct {
	name    string   // Table name (types.MangasTable or types.TagsTable).
	backend *Backend // Parent backend for DB access and JSONL writes.
}

// Get retrieves an entity by ID.
// Returns ErrInvalidID if id is not positive, ErrNotFound if absent.
func (t *table) Get(id int64) (any, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return nil, types.ErrShelfDetached
	}

	switch t.name {
	case types.MangasTable:
		return t.getManga(id)
	case types.TagsTable:
		return t.getTag(id)
	default:
		return nil, types.ErrTableNotFound
	}
}

// Add inserts a new entity and returns its store-assigned ID.
func (t *table) Add(data any) (int64, error) {
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return 0, types.ErrShelfDetached
	}

	switch t.name {
	case types.MangasTable:
		return t.addManga(data)
	case types.TagsTable:
		return t.addTag(data)
	default:
		return 0, types.ErrTableNotFound
	}
}

// Update applies a partial change set and returns the affected count.
func (t *table) Update(id int64, changes map[string]any) (int, error) {
	if id <= 0 {
		return 0, types.ErrInvalidID
	}
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return 0, types.ErrShelfDetached
	}

	switch t.name {
	case types.MangasTable:
		return t.updateManga(id, changes)
	case types.TagsTable:
		return t.updateTag(id, changes)
	default:
		return 0, types.ErrTableNotFound
	}
}

// Delete removes an entity. Deleting an absent ID succeeds.
func (t *table) Delete(id int64) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return types.ErrShelfDetached
	}

	switch t.name {
	case types.MangasTable:
		return t.deleteRow("mangas", mangasFile, id, t.persistMangasJSONL)
	case types.TagsTable:
		return t.deleteRow("tags", tagsFile, id, t.persistTagsJSONL)
	default:
		return types.ErrTableNotFound
	}
}

// All returns every entity in ID order.
func (t *table) All() ([]any, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return nil, types.ErrShelfDetached
	}

	switch t.name {
	case types.MangasTable:
		return t.queryMangas("SELECT " + mangaColumns + " FROM mangas ORDER BY id")
	case types.TagsTable:
		return t.queryTags("SELECT " + tagColumns + " FROM tags ORDER BY id")
	default:
		return nil, types.ErrTableNotFound
	}
}

// RangeQuery returns entities whose field lies in [min, max], in ID order.
func (t *table) RangeQuery(field string, min, max any) ([]any, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return nil, types.ErrShelfDetached
	}

	switch t.name {
	case types.MangasTable:
		return t.rangeMangas(field, min, max)
	case types.TagsTable:
		return t.rangeTags(field, min, max)
	default:
		return nil, types.ErrTableNotFound
	}
}

// BulkGet returns entities for ids in request order, nil for absent ids.
func (t *table) BulkGet(ids []int64) ([]any, error) {
	out := make([]any, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return nil, types.ErrShelfDetached
	}

	var (
		columns, from string
		scan          func(string, ...any) ([]any, error)
	)
	switch t.name {
	case types.MangasTable:
		columns, from, scan = mangaColumns, "mangas", t.queryMangas
	case types.TagsTable:
		columns, from, scan = tagColumns, "tags", t.queryTags
	default:
		return nil, types.ErrTableNotFound
	}

	placeholders, args := inClause(ids)
	rows, err := scan("SELECT "+columns+" FROM "+from+" WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}

	found := make(map[int64]any, len(rows))
	for _, r := range rows {
		switch e := r.(type) {
		case *types.Manga:
			found[e.ID] = e
		case *types.Tag:
			found[e.ID] = e
		}
	}
	for i, id := range ids {
		if e, ok := found[id]; ok {
			out[i] = e
		}
	}
	return out, nil
}

// deleteRow removes one row by id and persists the table file.
func (t *table) deleteRow(sqlTable, file string, id int64, persist func() error) error {
	res, err := t.backend.db.Exec("DELETE FROM "+sqlTable+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", sqlTable, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}
	return t.backend.persist(file, persist)
}

// inClause builds "?, ?, ?" and the matching argument list for ids.
func inClause(ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ", "), args
}

// setClause renders "a = ?, b = ?" for columns in sorted order so
// statements are deterministic.
func setClause(cols map[string]any) (string, []any) {
	names := make([]string, 0, len(cols))
	for c := range cols {
		names = append(names, c)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	args := make([]any, len(names))
	for i, c := range names {
		parts[i] = c + " = ?"
		args[i] = cols[c]
	}
	return strings.Join(parts, ", "), args
}

func encodeTagIDs(ids []int64) (string, error) {
	if ids == nil {
		ids = []int64{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encoding tag ids: %w", err)
	}
	return string(data), nil
}

func decodeTagIDs(raw string) ([]int64, error) {
	ids := []int64{}
	if raw == "" {
		return ids, nil
	}
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decoding tag ids: %w", err)
	}
	return ids, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// toInt converts numeric values (including JSON float64) to int.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

// toIDs converts []int64 or a decoded JSON array to tag ids.
func toIDs(v any) ([]int64, bool) {
	switch ids := v.(type) {
	case []int64:
		return ids, true
	case []any:
		out := make([]int64, 0, len(ids))
		for _, raw := range ids {
			n, ok := toInt(raw)
			if !ok {
				return nil, false
			}
			out = append(out, int64(n))
		}
		return out, true
	case nil:
		return []int64{}, true
	default:
		return nil, false
	}
}
