// This file implements the tags table accessor and the tag delete cascade.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

func scanTag(row rowScanner) (*types.Tag, error) {
	var tg types.Tag
	if err := row.Scan(&tg.ID, &tg.Name, &tg.Color); err != nil {
		return nil, err
	}
	return &tg, nil
}

func (t *table) getTag(id int64) (any, error) {
	row := t.backend.db.QueryRow("SELECT "+tagColumns+" FROM tags WHERE id = ?", id)
	tg, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting tag %d: %w", id, err)
	}
	return tg, nil
}

func (t *table) queryTags(query string, args ...any) ([]any, error) {
	rows, err := t.backend.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		tg, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		results = append(results, tg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}
	return results, nil
}

func (t *table) addTag(data any) (int64, error) {
	tg, ok := data.(*types.Tag)
	if !ok {
		return 0, types.ErrInvalidData
	}
	if strings.TrimSpace(tg.Name) == "" {
		return 0, fmt.Errorf("%w: tag name must not be empty", types.ErrInvalidData)
	}

	res, err := t.backend.db.Exec("INSERT INTO tags (name, color) VALUES (?, ?)", tg.Name, tg.Color)
	if err != nil {
		return 0, fmt.Errorf("inserting tag: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading tag id: %w", err)
	}
	tg.ID = id

	if err := t.backend.persist(tagsFile, t.persistTagsJSONL); err != nil {
		return 0, fmt.Errorf("persisting %s: %w", tagsFile, err)
	}
	return id, nil
}

func (t *table) updateTag(id int64, changes map[string]any) (int, error) {
	cols := make(map[string]any, len(changes))
	for field, v := range changes {
		s, ok := v.(string)
		switch {
		case !ok:
			return 0, fmt.Errorf("%w: field %q must be a string", types.ErrInvalidData, field)
		case field == types.FieldName:
			if strings.TrimSpace(s) == "" {
				return 0, fmt.Errorf("%w: tag name must not be empty", types.ErrInvalidData)
			}
			cols["name"] = s
		case field == types.FieldColor:
			cols["color"] = s
		default:
			return 0, fmt.Errorf("%w: unknown tag field %q", types.ErrInvalidData, field)
		}
	}
	if len(cols) == 0 {
		var one int
		err := t.backend.db.QueryRow("SELECT 1 FROM tags WHERE id = ?", id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("checking tag %d: %w", id, err)
		}
		return 1, nil
	}

	set, args := setClause(cols)
	res, err := t.backend.db.Exec("UPDATE tags SET "+set+" WHERE id = ?", append(args, id)...)
	if err != nil {
		return 0, fmt.Errorf("updating tag %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	if n > 0 {
		if err := t.backend.persist(tagsFile, t.persistTagsJSONL); err != nil {
			return 0, fmt.Errorf("persisting %s: %w", tagsFile, err)
		}
	}
	return int(n), nil
}

func (t *table) rangeTags(field string, min, max any) ([]any, error) {
	if field != types.FieldName {
		return nil, types.ErrInvalidFilter
	}
	lo, okA := min.(string)
	hi, okB := max.(string)
	if !okA || !okB {
		return nil, types.ErrInvalidFilter
	}
	return t.queryTags("SELECT "+tagColumns+" FROM tags WHERE name BETWEEN ? AND ? ORDER BY id", lo, hi)
}

// persistTagsJSONL rewrites tags.jsonl from SQLite.
func (t *table) persistTagsJSONL() error {
	rows, err := t.queryTags("SELECT " + tagColumns + " FROM tags ORDER BY id")
	if err != nil {
		return err
	}
	recs := make([]tagJSON, 0, len(rows))
	for _, r := range rows {
		tg := r.(*types.Tag)
		recs = append(recs, tagJSON{ID: tg.ID, Name: tg.Name, Color: tg.Color})
	}
	records, err := marshalRecords(recs)
	if err != nil {
		return err
	}
	return writeJSONL(filepath.Join(t.backend.dataDir, tagsFile), records)
}

// DeleteTagCascade removes tagID from every manga that references it and
// deletes the tag, all in one transaction. It returns the number of mangas
// whose tag list changed. Manga timestamps are left untouched. Deleting an
// absent tag still sweeps dangling references and succeeds.
func (b *Backend) DeleteTagCascade(tagID int64) (int, error) {
	if tagID <= 0 {
		return 0, types.ErrInvalidID
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return 0, types.ErrShelfDetached
	}

	tx, err := b.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning cascade: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(
		`SELECT id, tags FROM mangas WHERE EXISTS (SELECT 1 FROM json_each(mangas.tags) WHERE value = ?)`, tagID)
	if err != nil {
		return 0, fmt.Errorf("finding tagged mangas: %w", err)
	}
	type retag struct {
		id   int64
		tags string
	}
	var pending []retag
	for rows.Next() {
		var (
			id  int64
			raw string
		)
		if err := rows.Scan(&id, &raw); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning tagged manga: %w", err)
		}
		ids, err := decodeTagIDs(raw)
		if err != nil {
			rows.Close()
			return 0, err
		}
		kept := make([]int64, 0, len(ids))
		for _, x := range ids {
			if x != tagID {
				kept = append(kept, x)
			}
		}
		enc, err := encodeTagIDs(kept)
		if err != nil {
			rows.Close()
			return 0, err
		}
		pending = append(pending, retag{id: id, tags: enc})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("iterating tagged mangas: %w", err)
	}
	rows.Close()

	for _, p := range pending {
		if _, err := tx.Exec("UPDATE mangas SET tags = ? WHERE id = ?", p.tags, p.id); err != nil {
			return 0, fmt.Errorf("untagging manga %d: %w", p.id, err)
		}
	}
	res, err := tx.Exec("DELETE FROM tags WHERE id = ?", tagID)
	if err != nil {
		return 0, fmt.Errorf("deleting tag %d: %w", tagID, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing cascade: %w", err)
	}

	mangas, tags := b.tables[types.MangasTable], b.tables[types.TagsTable]
	if len(pending) > 0 {
		if err := b.persist(mangasFile, mangas.persistMangasJSONL); err != nil {
			return 0, fmt.Errorf("persisting %s: %w", mangasFile, err)
		}
	}
	if n, _ := res.RowsAffected(); n > 0 {
		if err := b.persist(tagsFile, tags.persistTagsJSONL); err != nil {
			return 0, fmt.Errorf("persisting %s: %w", tagsFile, err)
		}
	}
	return len(pending), nil
}
