package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

// mangaFlags binds the editable record fields to command flags.
type mangaFlags struct {
	title    string
	link     string
	image    string
	chapters int
	favorite bool
	typ      string
	state    string
	tags     []int64
}

func (f *mangaFlags) register(cmd *cobra.Command, withTitle bool) {
	if withTitle {
		cmd.Flags().StringVar(&f.title, "title", "", "title")
	}
	cmd.Flags().StringVar(&f.link, "link", "", "reading link (URL)")
	cmd.Flags().StringVar(&f.image, "image", "", "cover image URL")
	cmd.Flags().IntVar(&f.chapters, "chapters", 0, "chapters read")
	cmd.Flags().BoolVar(&f.favorite, "fav", false, "mark as favorite")
	cmd.Flags().StringVar(&f.typ, "type", "", "manga, manhwa, manhua, webcomic, novel, book, one-shot, doujinshi, other")
	cmd.Flags().StringVar(&f.state, "state", "", "reading, completed, on-hold, dropped, plan-to-read, none")
	cmd.Flags().Int64SliceVar(&f.tags, "tag", nil, "tag id (repeatable)")
}

// patch builds an update from the flags the user actually set.
func (f *mangaFlags) patch(cmd *cobra.Command) types.MangaPatch {
	var p types.MangaPatch
	changed := cmd.Flags().Changed
	if changed("title") {
		p.Title = &f.title
	}
	if changed("link") {
		p.Link = &f.link
	}
	if changed("image") {
		p.Image = &f.image
	}
	if changed("chapters") {
		p.Chapters = &f.chapters
	}
	if changed("fav") {
		p.IsFavorite = &f.favorite
	}
	if changed("type") {
		t := types.MangaType(f.typ)
		p.Type = &t
	}
	if changed("state") {
		s := types.MangaState(f.state)
		p.State = &s
	}
	if changed("tag") {
		p.Tags = &f.tags
	}
	return p
}

func newAddCmd(a *app) *cobra.Command {
	var (
		f     mangaFlags
		force bool
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a manga to the library",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open()
			if err != nil {
				return err
			}
			taken, err := e.IsTitleTaken(args[0], 0)
			if err != nil {
				return err
			}
			if taken && !force {
				return userError(fmt.Errorf("%w: a manga titled %q already exists (use --force to add anyway)",
					types.ErrInvalidInput, args[0]))
			}

			m := types.Manga{
				Title:      args[0],
				Link:       f.link,
				Image:      f.image,
				Chapters:   f.chapters,
				IsFavorite: f.favorite,
				Type:       types.MangaType(f.typ),
				State:      types.MangaState(f.state),
				Tags:       f.tags,
			}
			id, err := e.Add(m)
			if err != nil {
				return err
			}
			got, err := e.Get(id)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return a.printJSON(got)
			}
			fmt.Fprintf(a.out, "Added %d %s\n", got.ID, got.Title)
			return nil
		},
	}
	f.register(cmd, false)
	cmd.Flags().BoolVar(&force, "force", false, "add even if the title already exists")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one manga",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("manga", args[0])
			if err != nil {
				return err
			}
			e, err := a.open()
			if err != nil {
				return err
			}
			m, err := e.Get(id)
			if err != nil {
				return err
			}
			return a.printManga(m)
		},
	}
}

func newUpdateCmd(a *app) *cobra.Command {
	var f mangaFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a manga",
		Long:  "Change fields of a manga. Only the flags given are changed; --tag replaces the tag list.",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("manga", args[0])
			if err != nil {
				return err
			}
			e, err := a.open()
			if err != nil {
				return err
			}
			if err := e.Update(id, f.patch(cmd)); err != nil {
				return err
			}
			m, err := e.Get(id)
			if err != nil {
				return err
			}
			return a.printManga(m)
		},
	}
	f.register(cmd, true)
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a manga",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("manga", args[0])
			if err != nil {
				return err
			}
			e, err := a.open()
			if err != nil {
				return err
			}
			if err := e.Delete(id); err != nil {
				return err
			}
			return a.printResult(map[string]any{"deleted": id}, "Deleted %d", id)
		},
	}
}

func newFavCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fav <id>",
		Short: "Toggle the favorite flag of a manga",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("manga", args[0])
			if err != nil {
				return err
			}
			e, err := a.open()
			if err != nil {
				return err
			}
			fav, err := e.ToggleFavorite(id, nil)
			if err != nil {
				return err
			}
			return a.printResult(map[string]any{"id": id, "isFavorite": fav}, "Favorite %d: %t", id, fav)
		},
	}
}

func newChaptersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chapters",
		Short: "Set or step the chapter count of a manga",
	}

	result := func(id int64, n int) error {
		return a.printResult(map[string]any{"id": id, "chapters": n}, "Chapters %d: %d", id, n)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <id> <chapters>",
		Short: "Set the chapter count",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("manga", args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 0 {
				return userError(fmt.Errorf("%w: chapters must be a non-negative integer, got %q", types.ErrInvalidInput, args[1]))
			}
			e, err := a.open()
			if err != nil {
				return err
			}
			if err := e.UpdateChapters(id, n); err != nil {
				return err
			}
			return result(id, n)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "inc <id>",
		Short: "Add one chapter",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("manga", args[0])
			if err != nil {
				return err
			}
			e, err := a.open()
			if err != nil {
				return err
			}
			n, err := e.IncrementChapters(id)
			if err != nil {
				return err
			}
			return result(id, n)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "dec <id>",
		Short: "Remove one chapter, stopping at zero",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("manga", args[0])
			if err != nil {
				return err
			}
			e, err := a.open()
			if err != nil {
				return err
			}
			n, err := e.DecrementChapters(id)
			if err != nil {
				return err
			}
			return result(id, n)
		},
	})
	return cmd
}

func newTitleTakenCmd(a *app) *cobra.Command {
	var exclude int64
	cmd := &cobra.Command{
		Use:   "title-taken <title>",
		Short: "Report whether another manga already uses a title",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open()
			if err != nil {
				return err
			}
			taken, err := e.IsTitleTaken(args[0], exclude)
			if err != nil {
				return err
			}
			return a.printResult(map[string]any{"title": args[0], "taken": taken}, "%t", taken)
		},
	}
	cmd.Flags().Int64Var(&exclude, "exclude", 0, "manga id to ignore, such as the one being renamed")
	return cmd
}
