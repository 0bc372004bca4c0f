package porter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/mangashelf/internal/library"
	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

// rawFile is the loosely typed first pass over an import document, so
// shape problems are reported instead of failing the whole decode.
type rawFile struct {
	Version json.RawMessage `json:"version"`
	Mangas  json.RawMessage `json:"mangas"`
	Tags    json.RawMessage `json:"tags"`
}

// importRun carries the state of one Import call.
type importRun struct {
	p        *Porter
	strategy Strategy
	resolver Resolver
	sticky   Decision // prompt answer applied to all remaining collisions

	report *Report
	tagMap map[int64]int64  // file tag id -> store tag id
	titles map[string]int64 // folded title -> id created by this run
}

// Import reads an export document from r and adds its contents to the
// library. Every well-formed entry is inserted as a new record; only a
// title repeated within the file is a collision. Problems with the file or with single entries are collected in
// the report; storage failures abort the run and are returned. The prompt
// strategy requires a resolver.
func (p *Porter) Import(r io.Reader, strategy Strategy, resolver Resolver) (*Report, error) {
	if _, err := ParseStrategy(string(strategy)); err != nil {
		return nil, err
	}
	if strategy == StrategyPrompt && resolver == nil {
		return nil, fmt.Errorf("%w: prompt strategy needs a resolver", types.ErrInvalidInput)
	}

	runID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating run id: %w", err)
	}
	run := &importRun{
		p:        p,
		strategy: strategy,
		resolver: resolver,
		report:   &Report{RunID: runID.String(), Collisions: []Collision{}},
		tagMap:   make(map[int64]int64),
		titles:   make(map[string]int64),
	}
	log := p.log.With("run", run.report.RunID)

	mangas, tags, ok := run.validate(r)
	if !ok {
		log.Warn("import rejected", "errors", len(run.report.Errors))
		return run.report, nil
	}

	if err := run.importTags(tags); err != nil {
		return run.report, err
	}
	for i, raw := range mangas {
		if err := run.importManga(i, raw); err != nil {
			return run.report, err
		}
	}

	log.Info("import finished",
		"imported", run.report.Imported,
		"merged", run.report.Merged,
		"skipped", run.report.Skipped,
		"collisions", len(run.report.Collisions),
		"errors", len(run.report.Errors))
	return run.report, nil
}

func (run *importRun) fail(format string, args ...any) {
	run.report.Errors = append(run.report.Errors,
		fmt.Errorf("%w: "+format, append([]any{types.ErrImportValidation}, args...)...))
}

// validate checks the document shape. It reports every shape problem it
// finds and returns ok false when any were found.
func (run *importRun) validate(r io.Reader) (mangas, tags []json.RawMessage, ok bool) {
	data, err := io.ReadAll(r)
	if err != nil {
		run.fail("reading file: %v", err)
		return nil, nil, false
	}
	var raw rawFile
	if err := json.Unmarshal(data, &raw); err != nil {
		run.fail("root must be a JSON object: %v", err)
		return nil, nil, false
	}

	var version int
	switch {
	case len(raw.Version) == 0:
		run.fail("missing version")
	case json.Unmarshal(raw.Version, &version) != nil:
		run.fail("version must be an integer, got %s", raw.Version)
	case version != ExportVersion:
		run.fail("unsupported version %d, want %d", version, ExportVersion)
	}
	if err := json.Unmarshal(raw.Mangas, &mangas); err != nil || mangas == nil {
		run.fail("mangas must be an array")
	}
	if err := json.Unmarshal(raw.Tags, &tags); err != nil || tags == nil {
		run.fail("tags must be an array")
	}
	return mangas, tags, len(run.report.Errors) == 0
}

// importTags matches each file tag to a stored tag by name, creating the
// ones that do not exist, and records the id mapping.
func (run *importRun) importTags(raws []json.RawMessage) error {
	svc := run.p.engine.Tags()
	for i, raw := range raws {
		var t ExportTag
		if err := json.Unmarshal(raw, &t); err != nil {
			run.fail("tags[%d]: %v", i, err)
			continue
		}
		if strings.TrimSpace(t.Name) == "" {
			run.fail("tags[%d]: missing name", i)
			continue
		}

		existing, err := svc.FindByName(t.Name)
		var id int64
		switch {
		case err == nil:
			id = existing.ID
		case errors.Is(err, types.ErrNotFound):
			id, err = svc.Add(types.Tag{Name: t.Name, Color: t.Color})
			if errors.Is(err, types.ErrInvalidInput) {
				run.report.Errors = append(run.report.Errors, fmt.Errorf("tags[%d]: %w", i, err))
				continue
			}
			if err != nil {
				return err
			}
			run.report.TagsCreated++
		default:
			return err
		}
		if t.ID > 0 {
			run.tagMap[t.ID] = id
		}
	}
	return nil
}

// remapTags translates file tag ids to store ids, dropping ids the file's
// tag list does not describe.
func (run *importRun) remapTags(title string, ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if mapped, ok := run.tagMap[id]; ok {
			out = append(out, mapped)
			continue
		}
		run.p.log.Warn("dropping unmapped tag id", "run", run.report.RunID, "title", title, "tag", id)
	}
	return types.DedupeIDs(out)
}

func (run *importRun) importManga(i int, raw json.RawMessage) error {
	var in ExportManga
	if err := json.Unmarshal(raw, &in); err != nil {
		run.fail("mangas[%d]: %v", i, err)
		run.report.Skipped++
		return nil
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		run.fail("mangas[%d]: missing title", i)
		run.report.Skipped++
		return nil
	}
	tags := run.remapTags(title, in.Tags)

	key := library.FoldTitle(title)
	if existingID, ok := run.titles[key]; ok {
		return run.collide(Collision{Title: title, Incoming: in, ExistingID: existingID}, tags)
	}

	id, err := run.p.engine.Restore(in.toManga(tags))
	if errors.Is(err, types.ErrInvalidInput) {
		run.report.Errors = append(run.report.Errors, fmt.Errorf("mangas[%d] %q: %w", i, title, err))
		run.report.Skipped++
		return nil
	}
	if err != nil {
		return err
	}
	run.titles[key] = id
	run.report.Imported++
	return nil
}

// collide decides a collision and applies the decision.
func (run *importRun) collide(c Collision, tags []int64) error {
	existing, err := run.p.engine.Get(c.ExistingID)
	if err != nil {
		return err
	}

	switch {
	case run.strategy == StrategyMergeAll:
		c.Decision = DecisionMerge
	case run.strategy == StrategySkipAll:
		c.Decision = DecisionSkip
	case run.sticky != "":
		c.Decision = run.sticky
	default:
		d, all, err := run.resolver.Resolve(c, existing)
		if err != nil {
			return fmt.Errorf("resolving collision for %q: %w", c.Title, err)
		}
		if d != DecisionMerge {
			d = DecisionSkip
		}
		c.Decision = d
		if all {
			run.sticky = d
		}
	}
	run.report.Collisions = append(run.report.Collisions, c)

	if c.Decision == DecisionSkip {
		run.report.Skipped++
		return nil
	}

	if err := run.p.engine.Update(existing.ID, mergePatch(existing, c.Incoming, tags)); err != nil {
		if errors.Is(err, types.ErrInvalidInput) {
			run.report.Errors = append(run.report.Errors, fmt.Errorf("merging %q: %w", c.Title, err))
			run.report.Skipped++
			return nil
		}
		return err
	}
	run.report.Merged++
	return nil
}

// mergePatch builds the update for a merge: incoming non-empty fields win,
// tags are unioned, and favorite is true if either side is.
func mergePatch(existing *types.Manga, in ExportManga, tags []int64) types.MangaPatch {
	var patch types.MangaPatch
	if in.Link != "" {
		patch.Link = &in.Link
	}
	if in.Image != "" {
		patch.Image = &in.Image
	}
	if in.Chapters != nil {
		patch.Chapters = in.Chapters
	}
	if in.Type != "" {
		t := types.MangaType(in.Type)
		patch.Type = &t
	}
	if in.State != "" {
		s := types.MangaState(in.State)
		patch.State = &s
	}
	fav := existing.IsFavorite || in.IsFavorite
	patch.IsFavorite = &fav
	union := types.DedupeIDs(append(slices.Clone(existing.Tags), tags...))
	patch.Tags = &union
	return patch
}
