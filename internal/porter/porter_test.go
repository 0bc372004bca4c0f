package porter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/mangashelf/internal/library"
	"github.com/mesh-intelligence/mangashelf/internal/sqlite"
	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

// setupPorter attaches a SQLite backend in a temp directory and returns a
// porter and engine over it. Detach runs on cleanup.
func setupPorter(t *testing.T) (*Porter, *library.Engine) {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })

	e, err := library.Open(b)
	require.NoError(t, err)
	return New(e, nil), e
}

func seed(t *testing.T, e *library.Engine) {
	t.Helper()
	action, err := e.Tags().Add(types.Tag{Name: "Action", Color: "#f00"})
	require.NoError(t, err)
	drama, err := e.Tags().Add(types.Tag{Name: "Drama"})
	require.NoError(t, err)

	for _, m := range []types.Manga{
		{Title: "Berserk", Chapters: 364, IsFavorite: true, Type: types.TypeManga, State: types.StateReading, Tags: []int64{action, drama}},
		{Title: "Solo Leveling", Chapters: 179, Type: types.TypeManhwa, Tags: []int64{action}},
		{Title: "Monster", Link: "https://example.com/monster"},
	} {
		_, err := e.Add(m)
		require.NoError(t, err)
	}
}

func importString(t *testing.T, p *Porter, doc string, strategy Strategy, r Resolver) *Report {
	t.Helper()
	rep, err := p.Import(strings.NewReader(doc), strategy, r)
	require.NoError(t, err)
	return rep
}

func TestExportImportRoundTrip(t *testing.T) {
	src, srcEngine := setupPorter(t)
	seed(t, srcEngine)

	var buf bytes.Buffer
	require.NoError(t, src.Export(&buf))

	// Offset tag ids in the destination so the remap is observable.
	dst, dstEngine := setupPorter(t)
	filler, err := dstEngine.Tags().Add(types.Tag{Name: "Filler"})
	require.NoError(t, err)
	_, err = dstEngine.Tags().Delete(filler)
	require.NoError(t, err)

	rep := importString(t, dst, buf.String(), StrategySkipAll, nil)
	require.NoError(t, rep.Err())
	assert.Equal(t, 3, rep.Imported)
	assert.Zero(t, rep.Merged)
	assert.Zero(t, rep.Skipped)
	assert.Equal(t, 2, rep.TagsCreated)
	assert.Empty(t, rep.Collisions)
	assert.NotEmpty(t, rep.RunID)

	want, err := srcEngine.Query(types.Filters{SortBy: types.SortTitle})
	require.NoError(t, err)
	got, err := dstEngine.Query(types.Filters{SortBy: types.SortTitle})
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Title, got[i].Title)
		assert.Equal(t, want[i].Chapters, got[i].Chapters)
		assert.Equal(t, want[i].IsFavorite, got[i].IsFavorite)
		assert.Equal(t, want[i].Type, got[i].Type)
		assert.Equal(t, want[i].State, got[i].State)
		assert.Equal(t, want[i].CreatedAt, got[i].CreatedAt)
		assert.Equal(t, tagNames(want[i]), tagNames(got[i]))
	}
	assert.NotEqual(t, want[0].Tags, got[0].Tags, "tag ids are remapped")
}

func tagNames(m *types.Manga) []string {
	out := make([]string, 0, len(m.ResolvedTags))
	for _, t := range m.ResolvedTags {
		out = append(out, t.Name)
	}
	return out
}

func TestImportValidation(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantErrs int
	}{
		{"not an object", `[1,2]`, 1},
		{"not json", `{oops`, 1},
		{"missing version", `{"mangas":[],"tags":[]}`, 1},
		{"wrong version", `{"version":2,"mangas":[],"tags":[]}`, 1},
		{"string version", `{"version":"1","mangas":[],"tags":[]}`, 1},
		{"mangas not array", `{"version":1,"mangas":{},"tags":[]}`, 1},
		{"everything wrong", `{"mangas":null}`, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, e := setupPorter(t)

			rep := importString(t, p, tt.doc, StrategySkipAll, nil)
			assert.Len(t, rep.Errors, tt.wantErrs)
			assert.ErrorIs(t, rep.Err(), types.ErrImportValidation)

			all, err := e.Query(types.Filters{})
			require.NoError(t, err)
			assert.Empty(t, all, "a rejected file writes nothing")
		})
	}
}

func TestImportEntryErrors(t *testing.T) {
	p, e := setupPorter(t)

	doc := `{"version":1,"tags":[{"id":1,"name":"Action"}],"mangas":[
		{"title":"  "},
		{"title":"Ok","tags":[1,7]},
		{"title":"Bad type","type":"comic"},
		"nope"
	]}`
	rep := importString(t, p, doc, StrategySkipAll, nil)
	assert.Equal(t, 1, rep.Imported)
	assert.Equal(t, 3, rep.Skipped)
	require.Len(t, rep.Errors, 3)
	assert.ErrorIs(t, rep.Errors[0], types.ErrImportValidation)
	assert.ErrorIs(t, rep.Errors[1], types.ErrInvalidInput)
	assert.ErrorIs(t, rep.Errors[2], types.ErrImportValidation)

	m, err := e.FindByTitle("ok")
	require.NoError(t, err)
	require.Len(t, m.Tags, 1, "unknown tag id 7 is dropped")
}

func TestImportIntoSameStore(t *testing.T) {
	p, e := setupPorter(t)
	seed(t, e)

	var buf bytes.Buffer
	require.NoError(t, p.Export(&buf))

	rep := importString(t, p, buf.String(), StrategySkipAll, nil)
	require.NoError(t, rep.Err())
	assert.Equal(t, 3, rep.Imported)
	assert.Zero(t, rep.Skipped)
	assert.Zero(t, rep.TagsCreated, "tags match by name")
	assert.Empty(t, rep.Collisions)

	all, err := e.Query(types.Filters{Search: "berserk"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, tagNames(all[0]), tagNames(all[1]))
	assert.Equal(t, all[0].Tags, all[1].Tags)
}

func TestImportCollisions(t *testing.T) {
	doc := `{"version":1,"tags":[{"id":9,"name":"drama"}],"mangas":[
		{"title":"Berserk","chapters":370,"link":"https://example.com/b"},
		{"title":"Vagabond","chapters":327},
		{"title":"vagabond","chapters":1,"isFavorite":true,"tags":[9]},
		{"title":"BERSERK","image":"cover.png"}
	]}`

	tests := []struct {
		name        string
		strategy    Strategy
		resolver    Resolver
		wantMerged  int
		wantSkipped int
		check       func(t *testing.T, vagabond, berserk *types.Manga)
	}{
		{
			name:       "merge all",
			strategy:   StrategyMergeAll,
			wantMerged: 2,
			check: func(t *testing.T, vagabond, berserk *types.Manga) {
				assert.Equal(t, 1, vagabond.Chapters, "later entry merges over earlier")
				assert.True(t, vagabond.IsFavorite)
				assert.Equal(t, []string{"Drama"}, tagNames(vagabond))
				assert.Equal(t, 370, berserk.Chapters, "absent fields keep the earlier value")
				assert.Equal(t, "https://example.com/b", berserk.Link)
				assert.Equal(t, "cover.png", berserk.Image)
			},
		},
		{
			name:        "skip all",
			strategy:    StrategySkipAll,
			wantSkipped: 2,
			check: func(t *testing.T, vagabond, berserk *types.Manga) {
				assert.Equal(t, 327, vagabond.Chapters)
				assert.False(t, vagabond.IsFavorite)
				assert.Empty(t, berserk.Image)
			},
		},
		{
			name:     "prompt per collision",
			strategy: StrategyPrompt,
			resolver: ResolverFunc(func(c Collision, existing *types.Manga) (Decision, bool, error) {
				if c.Title == "vagabond" {
					return DecisionMerge, false, nil
				}
				return DecisionSkip, false, nil
			}),
			wantMerged:  1,
			wantSkipped: 1,
			check: func(t *testing.T, vagabond, berserk *types.Manga) {
				assert.Equal(t, 1, vagabond.Chapters)
				assert.Empty(t, berserk.Image)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, e := setupPorter(t)
			seed(t, e)

			rep := importString(t, p, doc, tt.strategy, tt.resolver)
			require.NoError(t, rep.Err())
			assert.Equal(t, 2, rep.Imported)
			assert.Equal(t, tt.wantMerged, rep.Merged)
			assert.Equal(t, tt.wantSkipped, rep.Skipped)
			assert.Zero(t, rep.TagsCreated, "tags match by folded name")
			require.Len(t, rep.Collisions, 2)
			assert.Equal(t, "vagabond", rep.Collisions[0].Title)
			assert.Equal(t, "BERSERK", rep.Collisions[1].Title)

			vagabond, err := e.Get(rep.Collisions[0].ExistingID)
			require.NoError(t, err)
			berserk, err := e.Get(rep.Collisions[1].ExistingID)
			require.NoError(t, err)
			assert.Equal(t, "Vagabond", vagabond.Title)
			assert.Equal(t, "Berserk", berserk.Title)
			tt.check(t, vagabond, berserk)

			seeded, err := e.Query(types.Filters{Search: "berserk", SortBy: types.SortChapters})
			require.NoError(t, err)
			require.Len(t, seeded, 2)
			assert.Equal(t, 364, seeded[0].Chapters, "records outside the file are untouched")
			assert.True(t, seeded[0].IsFavorite)
		})
	}
}

func TestImportPromptApplyAll(t *testing.T) {
	p, _ := setupPorter(t)

	calls := 0
	resolver := ResolverFunc(func(Collision, *types.Manga) (Decision, bool, error) {
		calls++
		return DecisionSkip, true, nil
	})
	doc := `{"version":1,"tags":[],"mangas":[{"title":"Monster"},{"title":"monster"},{"title":" MONSTER "}]}`
	rep := importString(t, p, doc, StrategyPrompt, resolver)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, rep.Imported)
	assert.Equal(t, 2, rep.Skipped)
	require.Len(t, rep.Collisions, 2)
	for _, c := range rep.Collisions {
		assert.Equal(t, DecisionSkip, c.Decision)
	}
}

func TestImportStrategyErrors(t *testing.T) {
	p, _ := setupPorter(t)

	_, err := p.Import(strings.NewReader(`{}`), StrategyPrompt, nil)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	_, err = p.Import(strings.NewReader(`{}`), "ask", nil)
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = ParseStrategy("mergeAll")
	assert.NoError(t, err)
}

func TestExportDocument(t *testing.T) {
	p, e := setupPorter(t)
	seed(t, e)

	var buf bytes.Buffer
	require.NoError(t, p.Export(&buf))

	var f File
	require.NoError(t, json.Unmarshal(buf.Bytes(), &f))
	assert.Equal(t, ExportVersion, f.Version)
	require.Len(t, f.Mangas, 3)
	require.Len(t, f.Tags, 2)
	assert.Equal(t, "Berserk", f.Mangas[0].Title)
	require.NotNil(t, f.Mangas[2].Chapters)
	assert.Zero(t, *f.Mangas[2].Chapters)
	assert.Equal(t, []int64{}, f.Mangas[2].Tags)
}

func TestDefaultFileName(t *testing.T) {
	day := time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "mangas_2024-05-01.json", DefaultFileName(day))
}
