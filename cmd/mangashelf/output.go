package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

// printJSON writes v as indented JSON.
func (a *app) printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal JSON: %w", err))
	}
	fmt.Fprintln(a.out, string(out))
	return nil
}

// styles renders through a renderer bound to the output writer, so color
// is dropped when stdout is not a terminal.
type styles struct {
	header lipgloss.Style
	border lipgloss.Style
	fav    lipgloss.Style
	muted  lipgloss.Style
}

func (a *app) styles() styles {
	r := lipgloss.NewRenderer(a.out)
	return styles{
		header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa")).Padding(0, 1),
		border: r.NewStyle().Foreground(lipgloss.Color("#585b70")),
		fav:    r.NewStyle().Foreground(lipgloss.Color("#f9e2af")),
		muted:  r.NewStyle().Foreground(lipgloss.Color("#6c7086")),
	}
}

func (a *app) newTable(headers ...string) *table.Table {
	st := a.styles()
	cell := lipgloss.NewRenderer(a.out).NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(st.border).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.header
			}
			return cell
		})
}

// printMangas writes records as a table, or as JSON in --json mode.
func (a *app) printMangas(ms []*types.Manga) error {
	if a.flags.jsonMode {
		if ms == nil {
			ms = []*types.Manga{}
		}
		return a.printJSON(ms)
	}
	if len(ms) == 0 {
		fmt.Fprintln(a.out, a.styles().muted.Render("no mangas"))
		return nil
	}
	st := a.styles()
	t := a.newTable("ID", "TITLE", "CH", "FAV", "TYPE", "STATE", "TAGS", "UPDATED")
	for _, m := range ms {
		fav := ""
		if m.IsFavorite {
			fav = st.fav.Render("★")
		}
		t.Row(
			strconv.FormatInt(m.ID, 10),
			m.Title,
			strconv.Itoa(m.Chapters),
			fav,
			string(m.Type),
			string(m.State),
			tagList(m.ResolvedTags),
			shortDate(m.UpdatedAt),
		)
	}
	fmt.Fprintln(a.out, t.Render())
	return nil
}

// printManga writes one record as a key/value listing.
func (a *app) printManga(m *types.Manga) error {
	if a.flags.jsonMode {
		return a.printJSON(m)
	}
	st := a.styles()
	rows := [][2]string{
		{"id", strconv.FormatInt(m.ID, 10)},
		{"title", m.Title},
		{"link", m.Link},
		{"image", m.Image},
		{"chapters", strconv.Itoa(m.Chapters)},
		{"favorite", strconv.FormatBool(m.IsFavorite)},
		{"type", string(m.Type)},
		{"state", string(m.State)},
		{"tags", tagList(m.ResolvedTags)},
		{"created", m.CreatedAt},
		{"updated", m.UpdatedAt},
	}
	for _, r := range rows {
		fmt.Fprintf(a.out, "%s %s\n", st.muted.Render(fmt.Sprintf("%-9s", r[0])), r[1])
	}
	return nil
}

func (a *app) printTags(tags []*types.Tag) error {
	if a.flags.jsonMode {
		if tags == nil {
			tags = []*types.Tag{}
		}
		return a.printJSON(tags)
	}
	if len(tags) == 0 {
		fmt.Fprintln(a.out, a.styles().muted.Render("no tags"))
		return nil
	}
	t := a.newTable("ID", "NAME", "COLOR")
	for _, tg := range tags {
		t.Row(strconv.FormatInt(tg.ID, 10), tg.Name, tg.Color)
	}
	fmt.Fprintln(a.out, t.Render())
	return nil
}

// printResult writes a one-line confirmation, or v as JSON in --json mode.
func (a *app) printResult(v any, format string, args ...any) error {
	if a.flags.jsonMode {
		return a.printJSON(v)
	}
	fmt.Fprintf(a.out, format+"\n", args...)
	return nil
}

func tagList(tags []types.Tag) string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}

// shortDate trims a stored timestamp to its date.
func shortDate(ts string) string {
	if t, ok := types.ParseTimestamp(ts); ok {
		return t.Format("2006-01-02")
	}
	return ts
}
