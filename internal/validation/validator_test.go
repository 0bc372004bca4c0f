package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

func TestValidateManga(t *testing.T) {
	v := New()

	tests := []struct {
		name       string
		manga      types.Manga
		wantFields []string
	}{
		{
			name:  "valid",
			manga: types.Manga{Title: "Berserk", Link: "https://example.com/berserk", Chapters: 3, Type: types.TypeManga},
		},
		{
			name:  "bare link without a scheme",
			manga: types.Manga{Title: "Berserk", Link: "mangadex.org/title/x"},
		},
		{
			name:  "empty optional enums are accepted",
			manga: types.Manga{Title: "Berserk"},
		},
		{
			name:       "missing title",
			manga:      types.Manga{},
			wantFields: []string{"title"},
		},
		{
			name:       "several failures are all reported",
			manga:      types.Manga{Title: "X", Link: strings.Repeat("l", 2049), Chapters: -1, State: "paused"},
			wantFields: []string{"chapters", "link", "state"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.manga)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrInvalidInput)

			var verr *Error
			require.True(t, errors.As(err, &verr))
			var got []string
			for _, f := range verr.Fields {
				got = append(got, f.Field)
			}
			assert.Equal(t, tt.wantFields, got)
		})
	}
}

func TestValidateNestedFieldPath(t *testing.T) {
	type inner struct {
		Mode string `json:"mode" validate:"oneof=a b"`
	}
	type outer struct {
		Inner inner `json:"inner"`
	}

	err := New().Validate(outer{Inner: inner{Mode: "c"}})
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "inner.mode", verr.Fields[0].Field)
	assert.Contains(t, err.Error(), "must be one of: a b")
}

func TestVar(t *testing.T) {
	v := New()
	assert.NoError(t, v.Var("link", "https://example.com", "url"))

	err := v.Var("link", "nope", "url")
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	assert.Contains(t, err.Error(), "link must be a valid URL")
}
