package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

func TestTagsAddAndGet(t *testing.T) {
	e, _ := setupEngine(t)
	svc := e.Tags()

	id, err := svc.Add(types.Tag{ID: 55, Name: "  Isekai ", Color: "#00ff00"})
	require.NoError(t, err)

	got, err := svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, &types.Tag{ID: id, Name: "Isekai", Color: "#00ff00"}, got)

	_, err = svc.Add(types.Tag{Name: "   "})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	_, err = svc.Get(9999)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestTagsAllSortedByName(t *testing.T) {
	e, _ := setupEngine(t)
	svc := e.Tags()
	for _, name := range []string{"romance", "Action", "drama"} {
		addTag(t, e, name)
	}

	all, err := svc.All()
	require.NoError(t, err)
	var names []string
	for _, tg := range all {
		names = append(names, tg.Name)
	}
	assert.Equal(t, []string{"Action", "drama", "romance"}, names)
}

func TestTagsUpdate(t *testing.T) {
	e, _ := setupEngine(t)
	svc := e.Tags()
	id := addTag(t, e, "Sci-fi")

	name := " Science Fiction "
	color := "#123456"
	require.NoError(t, svc.Update(id, types.TagPatch{Name: &name, Color: &color}))

	got, err := svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "Science Fiction", got.Name)
	assert.Equal(t, "#123456", got.Color)

	blank := ""
	assert.ErrorIs(t, svc.Update(id, types.TagPatch{Name: &blank}), types.ErrInvalidInput)
	assert.ErrorIs(t, svc.Update(9999, types.TagPatch{Color: &color}), types.ErrNotFound)
}

func TestTagsDeleteSweepsMangas(t *testing.T) {
	tests := []struct {
		name     string
		cascaded bool
	}{
		{name: "transactional cascade", cascaded: true},
		{name: "sequential sweep", cascaded: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := setupEngine(t)
			if !tt.cascaded {
				e.cascader = nil
			}
			svc := e.Tags()
			doomed := addTag(t, e, "Doomed")
			kept := addTag(t, e, "Kept")

			m1 := addManga(t, e, types.Manga{Title: "One", Tags: []int64{doomed, kept}})
			m2 := addManga(t, e, types.Manga{Title: "Two", Tags: []int64{doomed}})
			m3 := addManga(t, e, types.Manga{Title: "Three", Tags: []int64{kept}})

			n, err := svc.Delete(doomed)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			for _, id := range []int64{m1, m2, m3} {
				m, err := e.Get(id)
				require.NoError(t, err)
				assert.NotContains(t, m.Tags, doomed)
			}
			_, err = svc.Get(doomed)
			assert.ErrorIs(t, err, types.ErrNotFound)

			n, err = svc.Delete(doomed)
			require.NoError(t, err, "deleting an absent tag succeeds")
			assert.Zero(t, n)
		})
	}
}

func TestTagsFindByName(t *testing.T) {
	e, _ := setupEngine(t)
	id := addTag(t, e, "Slice of Life")

	got, err := e.Tags().FindByName("slice of life ")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	_, err = e.Tags().FindByName("Mecha")
	assert.ErrorIs(t, err, types.ErrNotFound)
}
