package library

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

// Criterion is one compiled filter predicate. The set of kinds is closed:
// searchCriterion, tagCriterion, chapterCriterion and dateCriterion.
type Criterion interface {
	Match(m *types.Manga) bool
	criterion()
}

// searchCriterion keeps titles containing needle, compared case-folded.
type searchCriterion struct {
	needle string
}

func (c searchCriterion) Match(m *types.Manga) bool {
	return strings.Contains(cases.Fold().String(m.Title), c.needle)
}

// tagCriterion keeps records holding the included ids (all of them, or any
// of them in OR mode) and none of the excluded ids.
type tagCriterion struct {
	include []int64
	any     bool
	exclude []int64
}

func (c tagCriterion) Match(m *types.Manga) bool {
	set := make(map[int64]struct{}, len(m.Tags))
	for _, id := range m.Tags {
		set[id] = struct{}{}
	}
	for _, id := range c.exclude {
		if _, ok := set[id]; ok {
			return false
		}
	}
	if len(c.include) == 0 {
		return true
	}
	for _, id := range c.include {
		_, ok := set[id]
		if c.any && ok {
			return true
		}
		if !c.any && !ok {
			return false
		}
	}
	return !c.any
}

// chapterCriterion is an inclusive bound on chapters.
type chapterCriterion struct {
	bounds types.Range[int]
}

func (c chapterCriterion) Match(m *types.Manga) bool {
	return m.Chapters >= c.bounds.Min && m.Chapters <= c.bounds.Max
}

// dateCriterion is an inclusive bound on a parsed timestamp field. Records
// with a missing or unparsable date fail it.
type dateCriterion struct {
	field  string // types.FieldCreatedAt or types.FieldUpdatedAt
	bounds types.Range[time.Time]
}

func (c dateCriterion) Match(m *types.Manga) bool {
	var (
		t  time.Time
		ok bool
	)
	if c.field == types.FieldCreatedAt {
		t, ok = m.CreatedTime()
	} else {
		t, ok = m.UpdatedTime()
	}
	return ok && !t.Before(c.bounds.Min) && !t.After(c.bounds.Max)
}

func (searchCriterion) criterion()  {}
func (tagCriterion) criterion()     {}
func (chapterCriterion) criterion() {}
func (dateCriterion) criterion()    {}

// Compile validates f and turns its constraints into criteria, in the
// order they are applied. An unconstrained filter compiles to nil.
func Compile(f types.Filters) ([]Criterion, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var out []Criterion
	if s := strings.TrimSpace(f.Search); s != "" {
		out = append(out, searchCriterion{needle: cases.Fold().String(s)})
	}
	if len(f.IncludeTags) > 0 || len(f.ExcludeTags) > 0 {
		out = append(out, tagCriterion{
			include: types.DedupeIDs(f.IncludeTags),
			any:     f.IncludeMode == types.TagModeOr,
			exclude: types.DedupeIDs(f.ExcludeTags),
		})
	}
	if f.ChapterRange != nil {
		out = append(out, chapterCriterion{bounds: *f.ChapterRange})
	}
	if f.LastSeenRange != nil {
		out = append(out, dateCriterion{field: types.FieldUpdatedAt, bounds: *f.LastSeenRange})
	}
	if f.AddedRange != nil {
		out = append(out, dateCriterion{field: types.FieldCreatedAt, bounds: *f.AddedRange})
	}
	return out, nil
}

// matchAll reports whether m satisfies every criterion.
func matchAll(criteria []Criterion, m *types.Manga) bool {
	for _, c := range criteria {
		if !c.Match(m) {
			return false
		}
	}
	return true
}
