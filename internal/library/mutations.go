package library

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

// Get returns one record with ResolvedTags filled in.
func (e *Engine) Get(id int64) (*types.Manga, error) {
	m, err := e.getManga(id)
	if err != nil {
		return nil, err
	}
	if err := e.hydrate([]*types.Manga{m}); err != nil {
		return nil, err
	}
	return m, nil
}

// Add creates a record from m and returns its new id. Any ID on m is
// ignored, omitted optional fields take their defaults, and both timestamps
// are set to now. m itself is not modified.
func (e *Engine) Add(m types.Manga) (int64, error) {
	rec := m.Clone()
	rec.ID = 0
	rec.ResolvedTags = nil
	rec.Title = strings.TrimSpace(rec.Title)
	rec.ApplyDefaults(e.now())
	return e.insert(rec)
}

// Restore inserts a record keeping its timestamps when they parse, so
// imported history survives. Unparsable timestamps are replaced with now.
func (e *Engine) Restore(m types.Manga) (int64, error) {
	rec := m.Clone()
	rec.ID = 0
	rec.ResolvedTags = nil
	rec.Title = strings.TrimSpace(rec.Title)
	created, updated := rec.CreatedAt, rec.UpdatedAt
	rec.ApplyDefaults(e.now())
	if t, ok := types.ParseTimestamp(created); ok {
		rec.CreatedAt = types.FormatTimestamp(t)
	}
	if t, ok := types.ParseTimestamp(updated); ok {
		rec.UpdatedAt = types.FormatTimestamp(t)
	}
	return e.insert(rec)
}

func (e *Engine) insert(rec *types.Manga) (int64, error) {
	if err := e.validate.Validate(rec); err != nil {
		return 0, err
	}
	tags, err := e.knownTags(rec.Title, rec.Tags)
	if err != nil {
		return 0, err
	}
	rec.Tags = tags
	id, err := e.mangas.Add(rec)
	if err != nil {
		return 0, storeErr("add manga", err)
	}
	e.log.Debug("manga added", "id", id, "title", rec.Title)
	return id, nil
}

// Update merges patch into the stored record and rewrites updatedAt.
// Returns ErrNotFound when id does not exist.
func (e *Engine) Update(id int64, patch types.MangaPatch) error {
	current, err := e.getManga(id)
	if err != nil {
		return err
	}
	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		patch.Title = &t
	}
	if patch.Tags != nil {
		tags, err := e.knownTags(current.Title, *patch.Tags)
		if err != nil {
			return err
		}
		patch.Tags = &tags
	}
	merged := current.Clone()
	patch.Apply(merged)
	if err := e.validate.Validate(merged); err != nil {
		return err
	}
	return e.update(id, patch.Changes())
}

// Delete removes a record. Deleting an absent id succeeds.
func (e *Engine) Delete(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: manga id %d", types.ErrInvalidInput, id)
	}
	if err := e.mangas.Delete(id); err != nil {
		return storeErr("delete manga", err)
	}
	e.log.Debug("manga deleted", "id", id)
	return nil
}

// ToggleFavorite flips the favorite flag and returns the new value. When
// known is non-nil it is taken as the current value and the record is not
// read first. Two concurrent toggles that pass the same known value both
// write the same result, so the flag ends up flipped once, not twice.
func (e *Engine) ToggleFavorite(id int64, known *bool) (bool, error) {
	var current bool
	if known != nil {
		current = *known
	} else {
		m, err := e.getManga(id)
		if err != nil {
			return false, err
		}
		current = m.IsFavorite
	}
	next := !current
	if err := e.update(id, map[string]any{types.FieldIsFavorite: next}); err != nil {
		return false, err
	}
	return next, nil
}

// UpdateChapters sets the chapter count. The value is written as given;
// callers keep it non-negative.
func (e *Engine) UpdateChapters(id int64, chapters int) error {
	return e.update(id, map[string]any{types.FieldChapters: chapters})
}

// IncrementChapters adds one chapter and returns the new count.
func (e *Engine) IncrementChapters(id int64) (int, error) {
	return e.stepChapters(id, 1)
}

// DecrementChapters removes one chapter, never going below zero, and
// returns the new count.
func (e *Engine) DecrementChapters(id int64) (int, error) {
	return e.stepChapters(id, -1)
}

func (e *Engine) stepChapters(id int64, delta int) (int, error) {
	m, err := e.getManga(id)
	if err != nil {
		return 0, err
	}
	next := max(m.Chapters+delta, 0)
	if err := e.update(id, map[string]any{types.FieldChapters: next}); err != nil {
		return 0, err
	}
	return next, nil
}

// AddTagToManga attaches tagIDs to a record and returns its resulting tag
// list. Ids with no tag in the tag store are dropped from the request,
// removed from this record's existing list, and swept from every other
// record. The result is the deduplicated union of the surviving ids.
func (e *Engine) AddTagToManga(id int64, tagIDs []int64) ([]int64, error) {
	m, err := e.getManga(id)
	if err != nil {
		return nil, err
	}

	union := types.DedupeIDs(append(slices.Clone(m.Tags), tagIDs...))
	kept, missing, err := e.splitTags(union)
	if err != nil {
		return nil, err
	}

	for _, tagID := range missing {
		e.log.Warn("dropping unknown tag id", "manga", id, "tag", tagID)
		if _, err := e.RemoveTagFromAllMangas(tagID); err != nil {
			return nil, err
		}
	}

	if err := e.update(id, map[string]any{types.FieldTags: kept}); err != nil {
		return nil, err
	}
	return kept, nil
}

// splitTags partitions ids into those with a tag in the tag store and
// those without, keeping order.
func (e *Engine) splitTags(ids []int64) (kept, missing []int64, err error) {
	kept = make([]int64, 0, len(ids))
	if len(ids) == 0 {
		return kept, nil, nil
	}
	rows, err := e.tags.BulkGet(ids)
	if err != nil {
		return nil, nil, storeErr("load tags", err)
	}
	for i, tagID := range ids {
		if t, ok := rows[i].(*types.Tag); ok && t != nil {
			kept = append(kept, tagID)
		} else {
			missing = append(missing, tagID)
		}
	}
	return kept, missing, nil
}

// knownTags deduplicates ids and drops the ones with no tag, so a write
// never stores a dangling reference.
func (e *Engine) knownTags(title string, ids []int64) ([]int64, error) {
	kept, missing, err := e.splitTags(types.DedupeIDs(ids))
	if err != nil {
		return nil, err
	}
	for _, tagID := range missing {
		e.log.Warn("dropping unknown tag id", "title", title, "tag", tagID)
	}
	return kept, nil
}

// RemoveTagFromManga detaches tagID from one record.
func (e *Engine) RemoveTagFromManga(id, tagID int64) error {
	m, err := e.getManga(id)
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(slices.Clone(m.Tags), func(t int64) bool { return t == tagID })
	return e.update(id, map[string]any{types.FieldTags: kept})
}

// RemoveTagFromAllMangas strips tagID from every record that references it
// and returns how many records changed. Record timestamps are not touched;
// the sweep is reference cleanup, not a user edit.
func (e *Engine) RemoveTagFromAllMangas(tagID int64) (int, error) {
	rows, err := e.mangas.All()
	if err != nil {
		return 0, storeErr("load mangas", err)
	}
	changed := 0
	for _, m := range asMangas(rows) {
		if !m.HasTag(tagID) {
			continue
		}
		kept := slices.DeleteFunc(slices.Clone(m.Tags), func(t int64) bool { return t == tagID })
		if _, err := e.mangas.Update(m.ID, map[string]any{types.FieldTags: kept}); err != nil {
			return changed, storeErr("untag manga", err)
		}
		changed++
	}
	if changed > 0 {
		e.log.Info("tag swept", "tag", tagID, "mangas", changed)
	}
	return changed, nil
}

// IsTitleTaken reports whether another record has the same title after
// trimming and case folding. excludeID skips one record; pass 0 to check
// all records.
func (e *Engine) IsTitleTaken(title string, excludeID int64) (bool, error) {
	want := FoldTitle(title)
	if want == "" {
		return false, nil
	}
	rows, err := e.mangas.All()
	if err != nil {
		return false, storeErr("load mangas", err)
	}
	for _, m := range asMangas(rows) {
		if m.ID != excludeID && FoldTitle(m.Title) == want {
			return true, nil
		}
	}
	return false, nil
}

// FindByTitle returns the first record, in id order, whose folded title
// matches title. Returns ErrNotFound when none does.
func (e *Engine) FindByTitle(title string) (*types.Manga, error) {
	want := FoldTitle(title)
	rows, err := e.mangas.All()
	if err != nil {
		return nil, storeErr("load mangas", err)
	}
	for _, m := range asMangas(rows) {
		if FoldTitle(m.Title) == want {
			return m, nil
		}
	}
	return nil, fmt.Errorf("title %q: %w", title, types.ErrNotFound)
}
