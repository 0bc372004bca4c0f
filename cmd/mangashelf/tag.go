package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

func newTagCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags and attach them to mangas",
	}
	cmd.AddCommand(newTagAddCmd(a))
	cmd.AddCommand(newTagListCmd(a))
	cmd.AddCommand(newTagUpdateCmd(a))
	cmd.AddCommand(newTagDeleteCmd(a))
	cmd.AddCommand(newTagAttachCmd(a))
	cmd.AddCommand(newTagDetachCmd(a))
	return cmd
}

func newTagAddCmd(a *app) *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a tag",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open()
			if err != nil {
				return err
			}
			if existing, err := e.Tags().FindByName(args[0]); err == nil {
				return userError(fmt.Errorf("%w: tag %q already exists with id %d", types.ErrInvalidInput, existing.Name, existing.ID))
			}
			id, err := e.Tags().Add(types.Tag{Name: args[0], Color: color})
			if err != nil {
				return err
			}
			t, err := e.Tags().Get(id)
			if err != nil {
				return err
			}
			return a.printResult(t, "Added tag %d %s", t.ID, t.Name)
		},
	}
	cmd.Flags().StringVar(&color, "color", "", "display color, such as #ff0000")
	return cmd
}

func newTagListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tags by name",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open()
			if err != nil {
				return err
			}
			tags, err := e.Tags().All()
			if err != nil {
				return err
			}
			return a.printTags(tags)
		},
	}
}

func newTagUpdateCmd(a *app) *cobra.Command {
	var name, color string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename or recolor a tag",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("tag", args[0])
			if err != nil {
				return err
			}
			var patch types.TagPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("color") {
				patch.Color = &color
			}
			e, err := a.open()
			if err != nil {
				return err
			}
			if err := e.Tags().Update(id, patch); err != nil {
				return err
			}
			t, err := e.Tags().Get(id)
			if err != nil {
				return err
			}
			return a.printResult(t, "Updated tag %d %s", t.ID, t.Name)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&color, "color", "", "new color")
	return cmd
}

func newTagDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a tag and remove it from every manga",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("tag", args[0])
			if err != nil {
				return err
			}
			e, err := a.open()
			if err != nil {
				return err
			}
			n, err := e.Tags().Delete(id)
			if err != nil {
				return err
			}
			return a.printResult(map[string]any{"deleted": id, "mangasUpdated": n},
				"Deleted tag %d (removed from %d mangas)", id, n)
		},
	}
}

func newTagAttachCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <manga-id> <tag-id>...",
		Short: "Attach tags to a manga",
		Long:  "Attach tags to a manga. Tag ids with no tag are dropped and swept from every manga.",
		Args:  minArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("manga", args[0])
			if err != nil {
				return err
			}
			tagIDs, err := parseIDs("tag", args[1:])
			if err != nil {
				return err
			}
			e, err := a.open()
			if err != nil {
				return err
			}
			tags, err := e.AddTagToManga(id, tagIDs)
			if err != nil {
				return err
			}
			return a.printResult(map[string]any{"id": id, "tags": tags}, "Manga %d tags: %v", id, tags)
		},
	}
}

func newTagDetachCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detach <manga-id> <tag-id>",
		Short: "Detach a tag from a manga",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("manga", args[0])
			if err != nil {
				return err
			}
			tagID, err := parseID("tag", args[1])
			if err != nil {
				return err
			}
			e, err := a.open()
			if err != nil {
				return err
			}
			if err := e.RemoveTagFromManga(id, tagID); err != nil {
				return err
			}
			return a.printResult(map[string]any{"id": id, "detached": tagID}, "Detached tag %d from manga %d", tagID, id)
		},
	}
}
