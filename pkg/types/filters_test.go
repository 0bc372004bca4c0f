package types

import (
	"errors"
	"testing"
	"time"
)

func TestFiltersValidate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		filters Filters
		wantErr bool
	}{
		{name: "zero filters", filters: Filters{}},
		{name: "full valid", filters: Filters{
			Search:       "one",
			IncludeTags:  []int64{1},
			IncludeMode:  TagModeOr,
			ChapterRange: &Range[int]{Min: 0, Max: 10},
			AddedRange:   &Range[time.Time]{Min: now.Add(-time.Hour), Max: now},
			SortBy:       SortChapters,
			Order:        OrderDesc,
			Limit:        3,
		}},
		{name: "unknown sort", filters: Filters{SortBy: "rating"}, wantErr: true},
		{name: "unknown order", filters: Filters{Order: "up"}, wantErr: true},
		{name: "unknown include mode", filters: Filters{IncludeMode: "XOR"}, wantErr: true},
		{name: "negative limit", filters: Filters{Limit: -1}, wantErr: true},
		{name: "inverted chapter range", filters: Filters{ChapterRange: &Range[int]{Min: 5, Max: 2}}, wantErr: true},
		{name: "negative chapter bound", filters: Filters{ChapterRange: &Range[int]{Min: -1, Max: 2}}, wantErr: true},
		{name: "inverted lastSeen range", filters: Filters{
			LastSeenRange: &Range[time.Time]{Min: now, Max: now.Add(-time.Minute)},
		}, wantErr: true},
		{name: "inverted added range", filters: Filters{
			AddedRange: &Range[time.Time]{Min: now, Max: now.Add(-time.Minute)},
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filters.Validate()
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
