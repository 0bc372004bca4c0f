package library

import (
	"cmp"
	"slices"
	"time"

	"golang.org/x/text/collate"

	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

// sortMangas orders records by field and order. The primary key honors
// order; ties always fall back to title ascending, then id ascending, so the
// result is a total order. An empty field keeps id order.
func sortMangas(ms []*types.Manga, field types.SortField, order types.Order, col *collate.Collator) {
	primary := primaryComparator(field, col)
	desc := order == types.OrderDesc

	slices.SortFunc(ms, func(a, b *types.Manga) int {
		if primary != nil {
			c := primary(a, b)
			if desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		if field != types.SortNone {
			if c := col.CompareString(a.Title, b.Title); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func primaryComparator(field types.SortField, col *collate.Collator) func(a, b *types.Manga) int {
	switch field {
	case types.SortTitle:
		return func(a, b *types.Manga) int { return col.CompareString(a.Title, b.Title) }
	case types.SortChapters:
		return func(a, b *types.Manga) int { return cmp.Compare(a.Chapters, b.Chapters) }
	case types.SortIsFavorite:
		return func(a, b *types.Manga) int { return cmp.Compare(boolRank(a.IsFavorite), boolRank(b.IsFavorite)) }
	case types.SortType:
		return func(a, b *types.Manga) int { return cmp.Compare(a.Type, b.Type) }
	case types.SortState:
		return func(a, b *types.Manga) int { return cmp.Compare(a.State, b.State) }
	case types.SortCreatedAt:
		return func(a, b *types.Manga) int { return compareTimes(a.CreatedTime, b.CreatedTime) }
	case types.SortUpdatedAt:
		return func(a, b *types.Manga) int { return compareTimes(a.UpdatedTime, b.UpdatedTime) }
	default:
		return nil
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// compareTimes orders parsed timestamps. Unparsable dates sort before any
// valid date and equal to each other.
func compareTimes(a, b func() (time.Time, bool)) int {
	ta, okA := a()
	tb, okB := b()
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return -1
	case !okB:
		return 1
	default:
		return ta.Compare(tb)
	}
}
