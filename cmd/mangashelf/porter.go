package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/mangashelf/internal/porter"
	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the library to a JSON file",
		Long:  "Write the library to a JSON file, mangas_YYYY-MM-DD.json by default. Use - for stdout.",
		Args:  rangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open()
			if err != nil {
				return err
			}
			p := porter.New(e, a.log)

			path := porter.DefaultFileName(time.Now())
			if len(args) == 1 {
				path = args[0]
			}
			if path == "-" {
				return p.Export(a.out)
			}

			f, err := os.Create(path)
			if err != nil {
				return sysError(fmt.Errorf("create %s: %w", path, err))
			}
			if err := p.Export(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return sysError(fmt.Errorf("close %s: %w", path, err))
			}
			return a.printResult(map[string]any{"file": path}, "Exported to %s", path)
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	var strategy string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Add mangas and tags from an exported JSON file",
		Long: `Add mangas and tags from an exported JSON file. Use - for stdin.

Every entry is added as a new manga. An entry whose title duplicates an
already-imported title in the same file is a collision. --strategy decides
collisions: prompt asks for each one, mergeAll copies the incoming fields
over the record imported earlier, skipAll leaves that record untouched.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strat, err := porter.ParseStrategy(strategy)
			if err != nil {
				return userError(err)
			}
			resolver := a.resolver
			if strat == porter.StrategyPrompt && resolver == nil {
				resolver, err = a.terminalResolver()
				if err != nil {
					return userError(err)
				}
			}

			var r io.Reader = a.in
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return userError(fmt.Errorf("open %s: %w", args[0], err))
				}
				defer f.Close()
				r = f
			}

			e, err := a.open()
			if err != nil {
				return err
			}
			rep, err := porter.New(e, a.log).Import(r, strat, resolver)
			if err != nil {
				return err
			}
			if err := a.printReport(rep); err != nil {
				return err
			}
			if len(rep.Errors) > 0 {
				return userError(fmt.Errorf("import finished with %d problems: %w", len(rep.Errors), rep.Err()))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", string(porter.StrategyPrompt), "collision strategy: prompt, mergeAll, skipAll")
	return cmd
}

func (a *app) printReport(rep *porter.Report) error {
	if a.flags.jsonMode {
		return a.printJSON(struct {
			*porter.Report
			Problems []string `json:"problems"`
		}{rep, rep.Messages()})
	}
	fmt.Fprintf(a.out, "Imported %d, merged %d, skipped %d, tags created %d (run %s)\n",
		rep.Imported, rep.Merged, rep.Skipped, rep.TagsCreated, rep.RunID)
	for _, c := range rep.Collisions {
		fmt.Fprintf(a.out, "  %s %q\n", c.Decision, c.Title)
	}
	return nil
}

// Answers offered by the collision prompt.
const (
	answerMerge    = "merge"
	answerSkip     = "skip"
	answerMergeAll = "merge all remaining"
	answerSkipAll  = "skip all remaining"
)

// terminalResolver asks about each collision on the terminal. It needs
// stdin and stdout to be terminals.
func (a *app) terminalResolver() (porter.Resolver, error) {
	in, inOK := a.in.(terminal.FileReader)
	out, outOK := a.out.(terminal.FileWriter)
	if !inOK || !outOK || !isTerminal(in.Fd()) || !isTerminal(out.Fd()) {
		return nil, fmt.Errorf("%w: the prompt strategy needs a terminal; use --strategy mergeAll or skipAll",
			types.ErrInvalidInput)
	}
	stdio := survey.WithStdio(in, out, a.errOut)

	return porter.ResolverFunc(func(c porter.Collision, existing *types.Manga) (porter.Decision, bool, error) {
		chapters := "?"
		if c.Incoming.Chapters != nil {
			chapters = fmt.Sprint(*c.Incoming.Chapters)
		}
		prompt := &survey.Select{
			Message: fmt.Sprintf("%q appears earlier in this file (id %d, %d chapters; incoming %s chapters)",
				c.Title, existing.ID, existing.Chapters, chapters),
			Options: []string{answerMerge, answerSkip, answerMergeAll, answerSkipAll},
			Default: answerSkip,
		}
		var answer string
		if err := survey.AskOne(prompt, &answer, stdio); err != nil {
			if errors.Is(err, terminal.InterruptErr) {
				return "", false, userError(errors.New("import interrupted"))
			}
			return "", false, err
		}
		switch answer {
		case answerMerge:
			return porter.DecisionMerge, false, nil
		case answerMergeAll:
			return porter.DecisionMerge, true, nil
		case answerSkipAll:
			return porter.DecisionSkip, true, nil
		default:
			return porter.DecisionSkip, false, nil
		}
	}), nil
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
