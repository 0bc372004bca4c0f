package library

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

// Tags manages tag entities. Deleting a tag first removes it from every
// manga so no record is left pointing at it.
type Tags struct {
	engine *Engine
}

// Get returns one tag.
func (s *Tags) Get(id int64) (*types.Tag, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: tag id %d", types.ErrInvalidInput, id)
	}
	row, err := s.engine.tags.Get(id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, fmt.Errorf("tag %d: %w", id, types.ErrNotFound)
		}
		return nil, storeErr("get tag", err)
	}
	t, ok := row.(*types.Tag)
	if !ok {
		return nil, fmt.Errorf("get tag %d: %w: unexpected row %T", id, types.ErrStorageFailure, row)
	}
	return t, nil
}

// All returns every tag ordered by name with the engine's collation, ties
// by id.
func (s *Tags) All() ([]*types.Tag, error) {
	rows, err := s.engine.tags.All()
	if err != nil {
		return nil, storeErr("load tags", err)
	}
	out := make([]*types.Tag, 0, len(rows))
	for _, r := range rows {
		if t, ok := r.(*types.Tag); ok && t != nil {
			out = append(out, t)
		}
	}
	col := s.engine.collator()
	slices.SortStableFunc(out, func(a, b *types.Tag) int {
		return col.CompareString(a.Name, b.Name)
	})
	return out, nil
}

// Add creates a tag with a trimmed name and returns its id.
func (s *Tags) Add(t types.Tag) (int64, error) {
	rec := &types.Tag{Name: strings.TrimSpace(t.Name), Color: strings.TrimSpace(t.Color)}
	if err := s.engine.validate.Validate(rec); err != nil {
		return 0, err
	}
	id, err := s.engine.tags.Add(rec)
	if err != nil {
		return 0, storeErr("add tag", err)
	}
	s.engine.log.Debug("tag added", "id", id, "name", rec.Name)
	return id, nil
}

// Update applies patch to a tag. Returns ErrNotFound when id does not exist.
func (s *Tags) Update(id int64, patch types.TagPatch) error {
	current, err := s.Get(id)
	if err != nil {
		return err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
		current.Name = name
	}
	if err := s.engine.validate.Validate(current); err != nil {
		return err
	}
	n, err := s.engine.tags.Update(id, patch.Changes())
	if err != nil {
		return storeErr("update tag", err)
	}
	if n == 0 {
		return fmt.Errorf("tag %d: %w", id, types.ErrNotFound)
	}
	return nil
}

// Delete removes the tag from every manga, then deletes the tag, and
// returns how many mangas were untagged. With a cascading store both steps
// run in one transaction; otherwise they run in sequence. Deleting an
// absent tag succeeds.
func (s *Tags) Delete(id int64) (int, error) {
	if id <= 0 {
		return 0, fmt.Errorf("%w: tag id %d", types.ErrInvalidInput, id)
	}
	if c := s.engine.cascader; c != nil {
		n, err := c.DeleteTagCascade(id)
		if err != nil {
			return 0, storeErr("delete tag", err)
		}
		s.engine.log.Info("tag deleted", "tag", id, "mangas", n)
		return n, nil
	}

	n, err := s.engine.RemoveTagFromAllMangas(id)
	if err != nil {
		return 0, err
	}
	if err := s.engine.tags.Delete(id); err != nil {
		return n, storeErr("delete tag", err)
	}
	s.engine.log.Info("tag deleted", "tag", id, "mangas", n)
	return n, nil
}

// FindByName returns the first tag, in id order, whose name matches name
// after trimming and case folding. Returns ErrNotFound when none does.
func (s *Tags) FindByName(name string) (*types.Tag, error) {
	want := FoldTitle(name)
	rows, err := s.engine.tags.All()
	if err != nil {
		return nil, storeErr("load tags", err)
	}
	for _, r := range rows {
		if t, ok := r.(*types.Tag); ok && t != nil && FoldTitle(t.Name) == want {
			return t, nil
		}
	}
	return nil, fmt.Errorf("tag %q: %w", name, types.ErrNotFound)
}
