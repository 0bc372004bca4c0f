package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMangaApplyDefaults(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
	m := &Manga{Title: "Alpha", Tags: []int64{3, 1, 3}}
	m.ApplyDefaults(now)

	assert.Equal(t, TypeOther, m.Type)
	assert.Equal(t, StateNone, m.State)
	assert.Equal(t, []int64{3, 1}, m.Tags)
	assert.Equal(t, "2026-03-14T09:26:53.589Z", m.CreatedAt)
	assert.Equal(t, m.CreatedAt, m.UpdatedAt)
	assert.Zero(t, m.Chapters)
	assert.False(t, m.IsFavorite)
}

func TestMangaApplyDefaultsKeepsExplicitEnums(t *testing.T) {
	m := &Manga{Title: "Beta", Type: TypeManhwa, State: StateReading}
	m.ApplyDefaults(time.Now())

	assert.Equal(t, TypeManhwa, m.Type)
	assert.Equal(t, StateReading, m.State)
	assert.NotNil(t, m.Tags)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		want   time.Time
	}{
		{
			name:   "millisecond ISO",
			input:  "2024-05-01T10:00:00.250Z",
			wantOK: true,
			want:   time.Date(2024, 5, 1, 10, 0, 0, 250_000_000, time.UTC),
		},
		{
			name:   "plain RFC 3339",
			input:  "2024-05-01T10:00:00Z",
			wantOK: true,
			want:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:   "legacy epoch milliseconds",
			input:  "1700000000000",
			wantOK: true,
			want:   time.UnixMilli(1700000000000).UTC(),
		},
		{name: "empty", input: ""},
		{name: "garbage", input: "yesterday"},
		{name: "date only", input: "2024-05-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "want %v got %v", tt.want, got)
			}
		})
	}
}

func TestMangaPatchChanges(t *testing.T) {
	title := "New"
	chapters := 7
	fav := true
	state := StateCompleted
	tags := []int64{2, 2, 5}

	p := MangaPatch{Title: &title, Chapters: &chapters, IsFavorite: &fav, State: &state, Tags: &tags}
	changes := p.Changes()

	require.Len(t, changes, 5)
	assert.Equal(t, "New", changes[FieldTitle])
	assert.Equal(t, 7, changes[FieldChapters])
	assert.Equal(t, true, changes[FieldIsFavorite])
	assert.Equal(t, StateCompleted, changes[FieldState])
	assert.Equal(t, []int64{2, 5}, changes[FieldTags])

	m := &Manga{Title: "Old", Chapters: 1}
	p.Apply(m)
	assert.Equal(t, "New", m.Title)
	assert.Equal(t, 7, m.Chapters)
	assert.True(t, m.IsFavorite)
	assert.Equal(t, []int64{2, 5}, m.Tags)
}

func TestMangaPatchEmpty(t *testing.T) {
	assert.Empty(t, MangaPatch{}.Changes())
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, TypeOneShot.Valid())
	assert.False(t, MangaType("comic").Valid())
	assert.True(t, StatePlanToRead.Valid())
	assert.False(t, MangaState("paused").Valid())
}

func TestDedupeIDs(t *testing.T) {
	assert.Equal(t, []int64{}, DedupeIDs(nil))
	assert.Equal(t, []int64{4, 1, 9}, DedupeIDs([]int64{4, 1, 4, 9, 1}))
}

func TestMangaClone(t *testing.T) {
	m := &Manga{Title: "A", Tags: []int64{1}}
	c := m.Clone()
	c.Tags[0] = 99
	assert.Equal(t, int64(1), m.Tags[0])
}
