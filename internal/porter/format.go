// Package porter exports the library to a portable JSON file and imports
// such files back, resolving title collisions with a caller-chosen
// strategy.
package porter

import (
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

// ExportVersion is the file format version written by Export and the only
// version Import accepts.
const ExportVersion = 1

// File is the export document.
type File struct {
	Version int           `json:"version"`
	Mangas  []ExportManga `json:"mangas"`
	Tags    []ExportTag   `json:"tags"`
}

// ExportManga is one manga in an export file. Tags hold ids from the
// exporting store; the file's tag list maps them to names.
type ExportManga struct {
	Title      string  `json:"title"`
	Link       string  `json:"link,omitempty"`
	Image      string  `json:"image,omitempty"`
	Chapters   *int    `json:"chapters,omitempty"`
	IsFavorite bool    `json:"isFavorite"`
	Type       string  `json:"type,omitempty"`
	State      string  `json:"state,omitempty"`
	Tags       []int64 `json:"tags"`
	CreatedAt  string  `json:"createdAt,omitempty"`
	UpdatedAt  string  `json:"updatedAt,omitempty"`
}

// ExportTag is one tag in an export file. ID is the tag's id in the
// exporting store; files written by older versions omit it.
type ExportTag struct {
	ID    int64  `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

func fromManga(m *types.Manga) ExportManga {
	chapters := m.Chapters
	tags := m.Tags
	if tags == nil {
		tags = []int64{}
	}
	return ExportManga{
		Title:      m.Title,
		Link:       m.Link,
		Image:      m.Image,
		Chapters:   &chapters,
		IsFavorite: m.IsFavorite,
		Type:       string(m.Type),
		State:      string(m.State),
		Tags:       tags,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// toManga converts an entry to a record, with tag ids already remapped.
func (e ExportManga) toManga(tags []int64) types.Manga {
	m := types.Manga{
		Title:      strings.TrimSpace(e.Title),
		Link:       e.Link,
		Image:      e.Image,
		IsFavorite: e.IsFavorite,
		Type:       types.MangaType(e.Type),
		State:      types.MangaState(e.State),
		Tags:       tags,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
	if e.Chapters != nil {
		m.Chapters = *e.Chapters
	}
	return m
}

// DefaultFileName returns the conventional export file name for a day,
// such as mangas_2024-05-01.json.
func DefaultFileName(now time.Time) string {
	return fmt.Sprintf("mangas_%s.json", now.Format(time.DateOnly))
}
