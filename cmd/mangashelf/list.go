package main

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

// filterFlags binds query filters to command flags.
type filterFlags struct {
	search      string
	include     []int64
	anyTag      bool
	exclude     []int64
	minChapters int
	maxChapters int
	seenFrom    string
	seenTo      string
	addedFrom   string
	addedTo     string
	sortBy      string
	order       string
	limit       int
}

func (f *filterFlags) register(cmd *cobra.Command, withSort bool) {
	fl := cmd.Flags()
	fl.StringVarP(&f.search, "search", "s", "", "case-insensitive title substring")
	fl.Int64SliceVar(&f.include, "tag", nil, "require tag id (repeatable)")
	fl.BoolVar(&f.anyTag, "any", false, "match any --tag instead of all")
	fl.Int64SliceVar(&f.exclude, "exclude-tag", nil, "reject tag id (repeatable)")
	fl.IntVar(&f.minChapters, "min-chapters", 0, "lowest chapter count")
	fl.IntVar(&f.maxChapters, "max-chapters", 0, "highest chapter count")
	fl.StringVar(&f.seenFrom, "seen-from", "", "last updated on or after (YYYY-MM-DD or RFC 3339)")
	fl.StringVar(&f.seenTo, "seen-to", "", "last updated on or before")
	fl.StringVar(&f.addedFrom, "added-from", "", "added on or after")
	fl.StringVar(&f.addedTo, "added-to", "", "added on or before")
	if withSort {
		fl.StringVar(&f.sortBy, "sort", "", "title, updatedAt, createdAt, chapters, isFavorite, type, state")
		fl.StringVar(&f.order, "order", "", "asc or desc")
		fl.IntVarP(&f.limit, "limit", "n", 0, "maximum results (0 for all)")
	}
}

// filters converts the flags to a query. A chapter bound given alone
// leaves the other end open.
func (f *filterFlags) filters(cmd *cobra.Command) (types.Filters, error) {
	changed := cmd.Flags().Changed
	out := types.Filters{
		Search:      f.search,
		IncludeTags: f.include,
		ExcludeTags: f.exclude,
		SortBy:      types.SortField(f.sortBy),
		Order:       types.Order(f.order),
		Limit:       f.limit,
	}
	if f.anyTag {
		out.IncludeMode = types.TagModeOr
	}

	if changed("min-chapters") || changed("max-chapters") {
		r := &types.Range[int]{Min: f.minChapters, Max: f.maxChapters}
		if !changed("max-chapters") {
			r.Max = math.MaxInt
		}
		out.ChapterRange = r
	}

	var err error
	if out.LastSeenRange, err = dateRange("seen", f.seenFrom, f.seenTo); err != nil {
		return types.Filters{}, err
	}
	if out.AddedRange, err = dateRange("added", f.addedFrom, f.addedTo); err != nil {
		return types.Filters{}, err
	}
	return out, nil
}

// dateRange builds an inclusive range from optional bounds. A date-only
// upper bound covers the whole day.
func dateRange(name, from, to string) (*types.Range[time.Time], error) {
	if from == "" && to == "" {
		return nil, nil
	}
	r := &types.Range[time.Time]{Min: time.Time{}, Max: time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)}
	if from != "" {
		t, _, err := parseDate(from)
		if err != nil {
			return nil, userError(fmt.Errorf("%w: --%s-from: %w", types.ErrInvalidInput, name, err))
		}
		r.Min = t
	}
	if to != "" {
		t, dateOnly, err := parseDate(to)
		if err != nil {
			return nil, userError(fmt.Errorf("%w: --%s-to: %w", types.ErrInvalidInput, name, err))
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Millisecond)
		}
		r.Max = t
	}
	return r, nil
}

func parseDate(s string) (t time.Time, dateOnly bool, err error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	return t, false, err
}

func newListCmd(a *app) *cobra.Command {
	var f filterFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List mangas matching filters",
		Long: `List mangas matching filters, sorted and limited as requested.

Examples:
  mangashelf list --search berserk
  mangashelf list --tag 1 --tag 2 --any --exclude-tag 5
  mangashelf list --min-chapters 100 --sort chapters --order desc -n 10
  mangashelf list --seen-from 2024-01-01 --seen-to 2024-03-31`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := f.filters(cmd)
			if err != nil {
				return err
			}
			e, err := a.open()
			if err != nil {
				return err
			}
			ms, err := e.Query(filters)
			if err != nil {
				return err
			}
			return a.printMangas(ms)
		},
	}
	f.register(cmd, true)
	return cmd
}

func newRandomCmd(a *app) *cobra.Command {
	var f filterFlags
	cmd := &cobra.Command{
		Use:   "random [count]",
		Short: "Pick mangas at random",
		Long:  "Pick count distinct mangas (default 1) uniformly at random among those matching the filters.",
		Args:  rangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return userError(fmt.Errorf("%w: count must be a positive integer, got %q", types.ErrInvalidInput, args[0]))
				}
				count = n
			}
			filters, err := f.filters(cmd)
			if err != nil {
				return err
			}
			filters.Random = true
			filters.Limit = count

			e, err := a.open()
			if err != nil {
				return err
			}
			ms, err := e.Query(filters)
			if err != nil {
				return err
			}
			return a.printMangas(ms)
		},
	}
	f.register(cmd, false)
	return cmd
}
