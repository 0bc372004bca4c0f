package types

import (
	"cmp"
	"fmt"
	"time"
)

// SortField names the manga field a query sorts by.
type SortField string

// Sortable fields. The empty SortField means default (ID) order.
const (
	SortNone       SortField = ""
	SortTitle      SortField = "title"
	SortUpdatedAt  SortField = "updatedAt"
	SortCreatedAt  SortField = "createdAt"
	SortChapters   SortField = "chapters"
	SortIsFavorite SortField = "isFavorite"
	SortType       SortField = "type"
	SortState      SortField = "state"
)

var validSortFields = map[SortField]bool{
	SortNone: true, SortTitle: true, SortUpdatedAt: true, SortCreatedAt: true,
	SortChapters: true, SortIsFavorite: true, SortType: true, SortState: true,
}

// Order is the sort direction.
type Order string

// Sort directions. The empty Order means ascending.
const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// TagMode selects how IncludeTags combines.
type TagMode string

// Include modes. The empty TagMode means AND.
const (
	TagModeAnd TagMode = "AND"
	TagModeOr  TagMode = "OR"
)

// Range is an inclusive [Min, Max] bound.
type Range[T any] struct {
	Min T `json:"min"`
	Max T `json:"max"`
}

// Filters is a declarative query. Zero-valued fields apply
// no constraint.
type Filters struct {
	Search        string            `json:"search,omitempty"`
	IncludeTags   []int64           `json:"includeTags,omitempty"`
	IncludeMode   TagMode           `json:"includeTagsMode,omitempty"`
	ExcludeTags   []int64           `json:"excludeTags,omitempty"`
	ChapterRange  *Range[int]       `json:"chapterRange,omitempty"`
	LastSeenRange *Range[time.Time] `json:"lastSeenRange,omitempty"`
	AddedRange    *Range[time.Time] `json:"addedRange,omitempty"`
	SortBy        SortField         `json:"sortBy,omitempty"`
	Order         Order             `json:"order,omitempty"`
	Random        bool              `json:"random,omitempty"`
	Limit         int               `json:"limit,omitempty"`
}

// Validate checks enumerations, the limit, and range bounds. Errors wrap
// ErrInvalidInput.
func (f Filters) Validate() error {
	if !validSortFields[f.SortBy] {
		return fmt.Errorf("%w: unknown sortBy %q", ErrInvalidInput, f.SortBy)
	}
	switch f.Order {
	case "", OrderAsc, OrderDesc:
	default:
		return fmt.Errorf("%w: unknown order %q", ErrInvalidInput, f.Order)
	}
	switch f.IncludeMode {
	case "", TagModeAnd, TagModeOr:
	default:
		return fmt.Errorf("%w: unknown includeTagsMode %q", ErrInvalidInput, f.IncludeMode)
	}
	if f.Limit < 0 {
		return fmt.Errorf("%w: limit must be >= 1, got %d", ErrInvalidInput, f.Limit)
	}
	if r := f.ChapterRange; r != nil {
		if r.Min < 0 || cmp.Compare(r.Min, r.Max) > 0 {
			return fmt.Errorf("%w: chapter range [%d, %d]", ErrInvalidInput, r.Min, r.Max)
		}
	}
	if r := f.LastSeenRange; r != nil && r.Min.After(r.Max) {
		return fmt.Errorf("%w: lastSeen range min after max", ErrInvalidInput)
	}
	if r := f.AddedRange; r != nil && r.Min.After(r.Max) {
		return fmt.Errorf("%w: added range min after max", ErrInvalidInput)
	}
	return nil
}
