package library

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/mangashelf/internal/sqlite"
	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

// testClock returns a clock that advances one second per call, starting at
// 2024-01-01T00:00:00Z.
func testClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

// setupEngine attaches a SQLite backend in a temp directory and returns an
// engine over it. Detach runs on cleanup.
func setupEngine(t *testing.T, opts ...Option) (*Engine, *sqlite.Backend) {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })

	opts = append([]Option{WithClock(testClock()), WithRand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	e, err := Open(b, opts...)
	require.NoError(t, err)
	return e, b
}

func addManga(t *testing.T, e *Engine, m types.Manga) int64 {
	t.Helper()
	id, err := e.Add(m)
	require.NoError(t, err)
	return id
}

func addTag(t *testing.T, e *Engine, name string) int64 {
	t.Helper()
	id, err := e.Tags().Add(types.Tag{Name: name})
	require.NoError(t, err)
	return id
}

func titles(ms []*types.Manga) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Title
	}
	return out
}

func TestOpenRequiresAttachedShelf(t *testing.T) {
	_, err := Open(sqlite.NewBackend())
	assert.ErrorIs(t, err, types.ErrShelfDetached)
}

func TestAddAppliesDefaults(t *testing.T) {
	e, _ := setupEngine(t)

	in := types.Manga{ID: 77, Title: "  Berserk  ", Tags: []int64{}}
	id := addManga(t, e, in)
	assert.NotEqual(t, int64(77), id, "caller ids are ignored")
	assert.Equal(t, int64(77), in.ID, "input is not modified")

	got, err := e.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "Berserk", got.Title)
	assert.Equal(t, 0, got.Chapters)
	assert.False(t, got.IsFavorite)
	assert.Equal(t, types.TypeOther, got.Type)
	assert.Equal(t, types.StateNone, got.State)
	assert.Equal(t, []int64{}, got.Tags)
	assert.Equal(t, "2024-01-01T00:00:01.000Z", got.CreatedAt)
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)
}

func TestAddRejectsInvalidInput(t *testing.T) {
	e, _ := setupEngine(t)

	tests := []struct {
		name  string
		manga types.Manga
	}{
		{"blank title", types.Manga{Title: "   "}},
		{"negative chapters", types.Manga{Title: "X", Chapters: -1}},
		{"unknown type", types.Manga{Title: "X", Type: "comic"}},
		{"oversized link", types.Manga{Title: "X", Link: strings.Repeat("a", 2049)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Add(tt.manga)
			assert.ErrorIs(t, err, types.ErrInvalidInput)
		})
	}
}

func TestRestoreKeepsTimestamps(t *testing.T) {
	e, _ := setupEngine(t)

	id, err := e.Restore(types.Manga{Title: "Old", CreatedAt: "2019-05-01T10:00:00Z", UpdatedAt: "1577836800000"})
	require.NoError(t, err)
	got, err := e.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "2019-05-01T10:00:00.000Z", got.CreatedAt)
	assert.Equal(t, "2020-01-01T00:00:00.000Z", got.UpdatedAt)

	id, err = e.Restore(types.Manga{Title: "Undated", CreatedAt: "yesterday"})
	require.NoError(t, err)
	got, err = e.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T00:00:02.000Z", got.CreatedAt)
}

func TestUpdate(t *testing.T) {
	e, _ := setupEngine(t)
	id := addManga(t, e, types.Manga{Title: "Monster", Chapters: 3})
	before, err := e.Get(id)
	require.NoError(t, err)

	title := " Monster (Perfect Edition) "
	state := types.StateCompleted
	require.NoError(t, e.Update(id, types.MangaPatch{Title: &title, State: &state}))

	got, err := e.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "Monster (Perfect Edition)", got.Title)
	assert.Equal(t, types.StateCompleted, got.State)
	assert.Equal(t, 3, got.Chapters)
	assert.Equal(t, before.CreatedAt, got.CreatedAt)
	assert.Greater(t, got.UpdatedAt, before.UpdatedAt, "updatedAt always moves")

	require.NoError(t, e.Update(id, types.MangaPatch{}))
	again, err := e.Get(id)
	require.NoError(t, err)
	assert.Greater(t, again.UpdatedAt, got.UpdatedAt, "an empty patch still stamps updatedAt")

	empty := ""
	assert.ErrorIs(t, e.Update(id, types.MangaPatch{Title: &empty}), types.ErrInvalidInput)
	assert.ErrorIs(t, e.Update(9999, types.MangaPatch{Title: &title}), types.ErrNotFound)
}

func TestWritesDropUnknownTags(t *testing.T) {
	e, _ := setupEngine(t)
	drama := addTag(t, e, "Drama")

	id := addManga(t, e, types.Manga{Title: "X", Tags: []int64{999, drama, 999}})
	got, err := e.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []int64{drama}, got.Tags)

	restored, err := e.Restore(types.Manga{Title: "Y", Tags: []int64{997}})
	require.NoError(t, err)
	got, err = e.Get(restored)
	require.NoError(t, err)
	assert.Equal(t, []int64{}, got.Tags)

	tags := []int64{998, drama}
	require.NoError(t, e.Update(id, types.MangaPatch{Tags: &tags}))
	got, err = e.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []int64{drama}, got.Tags)

	none := []int64{998}
	require.NoError(t, e.Update(id, types.MangaPatch{Tags: &none}))
	got, err = e.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []int64{}, got.Tags)
}

func TestDeleteIsIdempotent(t *testing.T) {
	e, _ := setupEngine(t)
	id := addManga(t, e, types.Manga{Title: "Pluto"})

	require.NoError(t, e.Delete(id))
	require.NoError(t, e.Delete(id))
	_, err := e.Get(id)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestToggleFavorite(t *testing.T) {
	e, _ := setupEngine(t)
	id := addManga(t, e, types.Manga{Title: "Blame!"})

	got, err := e.ToggleFavorite(id, nil)
	require.NoError(t, err)
	assert.True(t, got)

	known := true
	got, err = e.ToggleFavorite(id, &known)
	require.NoError(t, err)
	assert.False(t, got)

	// Two toggles passing the same stale value flip the flag once.
	stale := false
	_, err = e.ToggleFavorite(id, &stale)
	require.NoError(t, err)
	_, err = e.ToggleFavorite(id, &stale)
	require.NoError(t, err)
	m, err := e.Get(id)
	require.NoError(t, err)
	assert.True(t, m.IsFavorite)

	_, err = e.ToggleFavorite(9999, nil)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = e.ToggleFavorite(9999, &known)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestChapters(t *testing.T) {
	e, _ := setupEngine(t)
	id := addManga(t, e, types.Manga{Title: "Akira"})

	n, err := e.DecrementChapters(id)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "decrement floors at zero")

	n, err = e.IncrementChapters(id)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, e.UpdateChapters(id, 40))
	n, err = e.DecrementChapters(id)
	require.NoError(t, err)
	assert.Equal(t, 39, n)

	assert.ErrorIs(t, e.UpdateChapters(9999, 1), types.ErrNotFound)
	_, err = e.IncrementChapters(9999)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestAddTagToManga(t *testing.T) {
	e, b := setupEngine(t)
	action := addTag(t, e, "Action")
	drama := addTag(t, e, "Drama")
	ghost := addTag(t, e, "Ghost")

	id := addManga(t, e, types.Manga{Title: "Vinland Saga", Tags: []int64{drama, ghost}})
	other := addManga(t, e, types.Manga{Title: "Planetes", Tags: []int64{ghost}})

	// Delete the tag row behind the engine's back to leave dangling ids.
	tags, err := b.GetTable(types.TagsTable)
	require.NoError(t, err)
	require.NoError(t, tags.Delete(ghost))

	got, err := e.AddTagToManga(id, []int64{action, drama, 404})
	require.NoError(t, err)
	assert.Equal(t, []int64{drama, action}, got)

	m, err := e.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []int64{drama, action}, m.Tags)

	o, err := e.Get(other)
	require.NoError(t, err)
	assert.Empty(t, o.Tags, "unknown ids are swept from every manga")

	_, err = e.AddTagToManga(9999, []int64{action})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestRemoveTagFromManga(t *testing.T) {
	e, _ := setupEngine(t)
	a := addTag(t, e, "A")
	bTag := addTag(t, e, "B")
	id := addManga(t, e, types.Manga{Title: "Dorohedoro", Tags: []int64{a, bTag}})

	require.NoError(t, e.RemoveTagFromManga(id, a))
	require.NoError(t, e.RemoveTagFromManga(id, a))
	m, err := e.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []int64{bTag}, m.Tags)

	assert.ErrorIs(t, e.RemoveTagFromManga(9999, a), types.ErrNotFound)
}

func TestIsTitleTaken(t *testing.T) {
	e, _ := setupEngine(t)
	id := addManga(t, e, types.Manga{Title: "Alpha"})

	tests := []struct {
		name      string
		title     string
		excludeID int64
		want      bool
	}{
		{"self is excluded", "alpha ", id, false},
		{"case and space folded", "  ALPHA", 0, true},
		{"different title", "Alphas", 0, false},
		{"blank", "  ", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.IsTitleTaken(tt.title, tt.excludeID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindByTitle(t *testing.T) {
	e, _ := setupEngine(t)
	id := addManga(t, e, types.Manga{Title: "Vagabond"})

	m, err := e.FindByTitle(" vagabond")
	require.NoError(t, err)
	assert.Equal(t, id, m.ID)

	_, err = e.FindByTitle("Slam Dunk")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

// brokenTable fails every operation.
type brokenTable struct{}

var errDisk = errors.New("disk on fire")

func (brokenTable) Get(int64) (any, error) { return nil, errDisk }
func (brokenTable) Add(any) (int64, error) { return 0, errDisk }
func (brokenTable) Update(int64, map[string]any) (int, error) { return 0, errDisk }
func (brokenTable) Delete(int64) error { return errDisk }
func (brokenTable) All() ([]any, error) { return nil, errDisk }
func (brokenTable) RangeQuery(string, any, any) ([]any, error) { return nil, errDisk }
func (brokenTable) BulkGet([]int64) ([]any, error) { return nil, errDisk }

func TestStorageFailuresAreWrapped(t *testing.T) {
	e := New(brokenTable{}, brokenTable{})

	_, err := e.Query(types.Filters{})
	assert.ErrorIs(t, err, types.ErrStorageFailure)
	assert.ErrorIs(t, err, errDisk)

	_, err = e.Add(types.Manga{Title: "X"})
	assert.ErrorIs(t, err, types.ErrStorageFailure)

	_, err = e.IncrementChapters(1)
	assert.ErrorIs(t, err, types.ErrStorageFailure)

	assert.ErrorIs(t, e.Delete(1), types.ErrStorageFailure)

	_, err = e.Tags().Delete(1)
	assert.ErrorIs(t, err, types.ErrStorageFailure)
}
