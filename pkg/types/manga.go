package types

import (
	"slices"
	"strconv"
	"time"
)

// MangaType is the document type of a library entry.
type MangaType string

// Manga types. The set is closed; anything else is rejected on write.
const (
	TypeManga     MangaType = "manga"
	TypeManhwa    MangaType = "manhwa"
	TypeManhua    MangaType = "manhua"
	TypeWebcomic  MangaType = "webcomic"
	TypeNovel     MangaType = "novel"
	TypeBook      MangaType = "book"
	TypeOneShot   MangaType = "one-shot"
	TypeDoujinshi MangaType = "doujinshi"
	TypeOther     MangaType = "other"
)

// MangaState is the reading state of a library entry.
type MangaState string

// Reading states.
const (
	StateReading    MangaState = "reading"
	StateCompleted  MangaState = "completed"
	StateOnHold     MangaState = "on-hold"
	StateDropped    MangaState = "dropped"
	StatePlanToRead MangaState = "plan-to-read"
	StateNone       MangaState = "none"
)

var validMangaTypes = map[MangaType]bool{
	TypeManga: true, TypeManhwa: true, TypeManhua: true, TypeWebcomic: true,
	TypeNovel: true, TypeBook: true, TypeOneShot: true, TypeDoujinshi: true,
	TypeOther: true,
}

var validMangaStates = map[MangaState]bool{
	StateReading: true, StateCompleted: true, StateOnHold: true,
	StateDropped: true, StatePlanToRead: true, StateNone: true,
}

// Valid reports whether t is one of the known manga types.
func (t MangaType) Valid() bool { return validMangaTypes[t] }

// Valid reports whether s is one of the known reading states.
func (s MangaState) Valid() bool { return validMangaStates[s] }

// TimestampLayout is the ISO-8601 layout used for CreatedAt and UpdatedAt
// (millisecond precision, UTC).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses an RFC 3339 timestamp or a legacy epoch-millisecond
// string. The second result is false for empty or unparsable input.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}

// Manga is a single library entry.
type Manga struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title" validate:"required,max=500"`
	Link       string     `json:"link,omitempty" validate:"max=2048"`
	Image      string     `json:"image,omitempty"`
	Chapters   int        `json:"chapters" validate:"gte=0"`
	IsFavorite bool       `json:"isFavorite"`
	Type       MangaType  `json:"type,omitempty" validate:"omitempty,oneof=manga manhwa manhua webcomic novel book one-shot doujinshi other"`
	State      MangaState `json:"state,omitempty" validate:"omitempty,oneof=reading completed on-hold dropped plan-to-read none"`
	Tags       []int64    `json:"tags"`
	CreatedAt  string     `json:"createdAt"`
	UpdatedAt  string     `json:"updatedAt"`

	// ResolvedTags is filled by query hydration only and is never persisted.
	ResolvedTags []Tag `json:"resolvedTags,omitempty"`
}

// ApplyDefaults fills omitted optional fields with their creation defaults
// and stamps both timestamps with now.
func (m *Manga) ApplyDefaults(now time.Time) {
	if m.Type == "" {
		m.Type = TypeOther
	}
	if m.State == "" {
		m.State = StateNone
	}
	m.Tags = DedupeIDs(m.Tags)
	stamp := FormatTimestamp(now)
	m.CreatedAt = stamp
	m.UpdatedAt = stamp
}

// HasTag reports whether id is among the manga's tag ids.
func (m *Manga) HasTag(id int64) bool {
	return slices.Contains(m.Tags, id)
}

// CreatedTime returns the parsed CreatedAt.
func (m *Manga) CreatedTime() (time.Time, bool) { return ParseTimestamp(m.CreatedAt) }

// UpdatedTime returns the parsed UpdatedAt.
func (m *Manga) UpdatedTime() (time.Time, bool) { return ParseTimestamp(m.UpdatedAt) }

// Clone returns a deep copy of m.
func (m *Manga) Clone() *Manga {
	c := *m
	c.Tags = slices.Clone(m.Tags)
	c.ResolvedTags = slices.Clone(m.ResolvedTags)
	return &c
}

// MangaPatch is a partial update. Nil fields are left unchanged.
type MangaPatch struct {
	Title      *string
	Link       *string
	Image      *string
	Chapters   *int
	IsFavorite *bool
	Type       *MangaType
	State      *MangaState
	Tags       *[]int64
}

// Store field names accepted by Table.Update for the mangas table.
const (
	FieldTitle      = "title"
	FieldLink       = "link"
	FieldImage      = "image"
	FieldChapters   = "chapters"
	FieldIsFavorite = "isFavorite"
	FieldType       = "type"
	FieldState      = "state"
	FieldTags       = "tags"
	FieldCreatedAt  = "createdAt"
	FieldUpdatedAt  = "updatedAt"
)

// Changes converts the patch into a store change set keyed by field name.
func (p MangaPatch) Changes() map[string]any {
	changes := make(map[string]any)
	if p.Title != nil {
		changes[FieldTitle] = *p.Title
	}
	if p.Link != nil {
		changes[FieldLink] = *p.Link
	}
	if p.Image != nil {
		changes[FieldImage] = *p.Image
	}
	if p.Chapters != nil {
		changes[FieldChapters] = *p.Chapters
	}
	if p.IsFavorite != nil {
		changes[FieldIsFavorite] = *p.IsFavorite
	}
	if p.Type != nil {
		changes[FieldType] = *p.Type
	}
	if p.State != nil {
		changes[FieldState] = *p.State
	}
	if p.Tags != nil {
		changes[FieldTags] = DedupeIDs(*p.Tags)
	}
	return changes
}

// Apply merges the patch into m without touching timestamps.
func (p MangaPatch) Apply(m *Manga) {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Link != nil {
		m.Link = *p.Link
	}
	if p.Image != nil {
		m.Image = *p.Image
	}
	if p.Chapters != nil {
		m.Chapters = *p.Chapters
	}
	if p.IsFavorite != nil {
		m.IsFavorite = *p.IsFavorite
	}
	if p.Type != nil {
		m.Type = *p.Type
	}
	if p.State != nil {
		m.State = *p.State
	}
	if p.Tags != nil {
		m.Tags = DedupeIDs(*p.Tags)
	}
}

// DedupeIDs returns ids with duplicates removed, keeping first occurrences
// in order. A nil input yields an empty, non-nil slice.
func DedupeIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
