// This file implements the mangas table accessor for the SQLite backend.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanManga(row rowScanner) (*types.Manga, error) {
	var (
		m        types.Manga
		fav      int
		mt, ms   string
		tagsJSON string
	)
	if err := row.Scan(&m.ID, &m.Title, &m.Link, &m.Image, &m.Chapters, &fav,
		&mt, &ms, &tagsJSON, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.IsFavorite = fav != 0
	m.Type = types.MangaType(mt)
	m.State = types.MangaState(ms)
	tags, err := decodeTagIDs(tagsJSON)
	if err != nil {
		return nil, fmt.Errorf("manga %d: %w", m.ID, err)
	}
	m.Tags = tags
	return &m, nil
}

func (t *table) getManga(id int64) (any, error) {
	row := t.backend.db.QueryRow("SELECT "+mangaColumns+" FROM mangas WHERE id = ?", id)
	m, err := scanManga(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting manga %d: %w", id, err)
	}
	return m, nil
}

// queryMangas runs a SELECT of mangaColumns and hydrates every row.
// Returns an empty slice, not nil, when nothing matches.
func (t *table) queryMangas(query string, args ...any) ([]any, error) {
	rows, err := t.backend.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying mangas: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		m, err := scanManga(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning manga: %w", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating mangas: %w", err)
	}
	return results, nil
}

// addManga inserts a manga. The caller-supplied ID is ignored; the new ID
// is written back to the struct and returned. Empty timestamps are stamped
// with the current time.
func (t *table) addManga(data any) (int64, error) {
	m, ok := data.(*types.Manga)
	if !ok {
		return 0, types.ErrInvalidData
	}
	if strings.TrimSpace(m.Title) == "" {
		return 0, fmt.Errorf("%w: title must not be empty", types.ErrInvalidData)
	}
	if m.Type == "" {
		m.Type = types.TypeOther
	}
	if m.State == "" {
		m.State = types.StateNone
	}
	if !m.Type.Valid() || !m.State.Valid() {
		return 0, fmt.Errorf("%w: unknown type or state", types.ErrInvalidData)
	}
	now := types.FormatTimestamp(time.Now())
	if m.CreatedAt == "" {
		m.CreatedAt = now
	}
	if m.UpdatedAt == "" {
		m.UpdatedAt = now
	}
	m.Tags = types.DedupeIDs(m.Tags)
	tags, err := encodeTagIDs(m.Tags)
	if err != nil {
		return 0, err
	}

	res, err := t.backend.db.Exec(`INSERT INTO mangas
		(title, link, image, chapters, is_favorite, type, state, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Title, m.Link, m.Image, m.Chapters, boolToInt(m.IsFavorite),
		string(m.Type), string(m.State), tags, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("inserting manga: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading manga id: %w", err)
	}
	m.ID = id

	if err := t.backend.persist(mangasFile, t.persistMangasJSONL); err != nil {
		return 0, fmt.Errorf("persisting %s: %w", mangasFile, err)
	}
	return id, nil
}

// mangaColumnFor maps a change-set field to its column and a converted value.
func mangaColumnFor(field string, v any) (string, any, error) {
	bad := func() (string, any, error) {
		return "", nil, fmt.Errorf("%w: field %q has value %v (%T)", types.ErrInvalidData, field, v, v)
	}
	switch field {
	case types.FieldTitle:
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return bad()
		}
		return "title", s, nil
	case types.FieldLink, types.FieldImage:
		s, ok := v.(string)
		if !ok {
			return bad()
		}
		return field, s, nil
	case types.FieldCreatedAt, types.FieldUpdatedAt:
		s, ok := v.(string)
		if !ok {
			return bad()
		}
		if field == types.FieldCreatedAt {
			return "created_at", s, nil
		}
		return "updated_at", s, nil
	case types.FieldChapters:
		n, ok := toInt(v)
		if !ok {
			return bad()
		}
		return "chapters", n, nil
	case types.FieldIsFavorite:
		b, ok := v.(bool)
		if !ok {
			return bad()
		}
		return "is_favorite", boolToInt(b), nil
	case types.FieldType:
		var mt types.MangaType
		switch x := v.(type) {
		case types.MangaType:
			mt = x
		case string:
			mt = types.MangaType(x)
		}
		if !mt.Valid() {
			return bad()
		}
		return "type", string(mt), nil
	case types.FieldState:
		var ms types.MangaState
		switch x := v.(type) {
		case types.MangaState:
			ms = x
		case string:
			ms = types.MangaState(x)
		}
		if !ms.Valid() {
			return bad()
		}
		return "state", string(ms), nil
	case types.FieldTags:
		ids, ok := toIDs(v)
		if !ok {
			return bad()
		}
		enc, err := encodeTagIDs(types.DedupeIDs(ids))
		if err != nil {
			return "", nil, err
		}
		return "tags", enc, nil
	default:
		return "", nil, fmt.Errorf("%w: unknown manga field %q", types.ErrInvalidData, field)
	}
}

func (t *table) updateManga(id int64, changes map[string]any) (int, error) {
	cols := make(map[string]any, len(changes))
	for field, v := range changes {
		col, val, err := mangaColumnFor(field, v)
		if err != nil {
			return 0, err
		}
		cols[col] = val
	}
	if len(cols) == 0 {
		var one int
		err := t.backend.db.QueryRow("SELECT 1 FROM mangas WHERE id = ?", id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("checking manga %d: %w", id, err)
		}
		return 1, nil
	}

	set, args := setClause(cols)
	res, err := t.backend.db.Exec("UPDATE mangas SET "+set+" WHERE id = ?", append(args, id)...)
	if err != nil {
		return 0, fmt.Errorf("updating manga %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	if n > 0 {
		if err := t.backend.persist(mangasFile, t.persistMangasJSONL); err != nil {
			return 0, fmt.Errorf("persisting %s: %w", mangasFile, err)
		}
	}
	return int(n), nil
}

// rangeMangas serves Table.RangeQuery for the indexed manga fields.
func (t *table) rangeMangas(field string, min, max any) ([]any, error) {
	var column string
	var lo, hi any
	switch field {
	case types.FieldChapters:
		a, okA := toInt(min)
		b, okB := toInt(max)
		if !okA || !okB {
			return nil, types.ErrInvalidFilter
		}
		column, lo, hi = "chapters", a, b
	case types.FieldTitle:
		a, okA := min.(string)
		b, okB := max.(string)
		if !okA || !okB {
			return nil, types.ErrInvalidFilter
		}
		column, lo, hi = "title", a, b
	case types.FieldCreatedAt, types.FieldUpdatedAt:
		a, okA := timestampArg(min)
		b, okB := timestampArg(max)
		if !okA || !okB {
			return nil, types.ErrInvalidFilter
		}
		column = "created_at"
		if field == types.FieldUpdatedAt {
			column = "updated_at"
		}
		lo, hi = a, b
	default:
		return nil, types.ErrInvalidFilter
	}
	return t.queryMangas(
		"SELECT "+mangaColumns+" FROM mangas WHERE "+column+" BETWEEN ? AND ? ORDER BY id", lo, hi)
}

// timestampArg renders a time bound in the stored text layout.
func timestampArg(v any) (string, bool) {
	switch x := v.(type) {
	case time.Time:
		return types.FormatTimestamp(x), true
	case string:
		return x, true
	default:
		return "", false
	}
}

// persistMangasJSONL reads all mangas from SQLite and writes them to
// mangas.jsonl using the atomic write pattern.
func (t *table) persistMangasJSONL() error {
	rows, err := t.queryMangas("SELECT " + mangaColumns + " FROM mangas ORDER BY id")
	if err != nil {
		return err
	}
	recs := make([]mangaJSON, 0, len(rows))
	for _, r := range rows {
		m := r.(*types.Manga)
		recs = append(recs, mangaJSON{
			ID:         m.ID,
			Title:      m.Title,
			Link:       m.Link,
			Image:      m.Image,
			Chapters:   m.Chapters,
			IsFavorite: m.IsFavorite,
			Type:       string(m.Type),
			State:      string(m.State),
			Tags:       m.Tags,
			CreatedAt:  m.CreatedAt,
			UpdatedAt:  m.UpdatedAt,
		})
	}
	records, err := marshalRecords(recs)
	if err != nil {
		return err
	}
	return writeJSONL(filepath.Join(t.backend.dataDir, mangasFile), records)
}
