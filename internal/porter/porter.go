package porter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mesh-intelligence/mangashelf/internal/library"
	"github.com/mesh-intelligence/mangashelf/internal/logger"
	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

// Strategy selects how title collisions are resolved during import.
type Strategy string

// Collision strategies.
const (
	StrategyPrompt   Strategy = "prompt"
	StrategyMergeAll Strategy = "mergeAll"
	StrategySkipAll  Strategy = "skipAll"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyPrompt, StrategyMergeAll, StrategySkipAll:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("%w: unknown import strategy %q", types.ErrInvalidInput, s)
	}
}

// Decision is the outcome chosen for one collision.
type Decision string

// Collision decisions.
const (
	DecisionMerge Decision = "merge"
	DecisionSkip  Decision = "skip"
)

// Collision is an incoming manga whose title repeats one imported earlier
// in the same file. ExistingID is the record that earlier entry created.
type Collision struct {
	Title      string      `json:"title"`
	Incoming   ExportManga `json:"incoming"`
	ExistingID int64       `json:"existingId"`
	Decision   Decision    `json:"decision"`
}

// Resolver decides collisions for the prompt strategy. Returning applyAll
// true reuses the decision for every remaining collision in the run.
type Resolver interface {
	Resolve(c Collision, existing *types.Manga) (d Decision, applyAll bool, err error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(c Collision, existing *types.Manga) (Decision, bool, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(c Collision, existing *types.Manga) (Decision, bool, error) {
	return f(c, existing)
}

// Report summarizes an import run. Errors holds validation problems with
// the file or individual entries; each wraps types.ErrImportValidation or
// types.ErrInvalidInput.
type Report struct {
	RunID       string      `json:"runId"`
	Imported    int         `json:"imported"`
	Merged      int         `json:"merged"`
	Skipped     int         `json:"skipped"`
	TagsCreated int         `json:"tagsCreated"`
	Collisions  []Collision `json:"collisions"`
	Errors      []error     `json:"-"`
}

// Err joins the collected errors, or returns nil when there are none.
func (r *Report) Err() error {
	return errors.Join(r.Errors...)
}

// Messages returns the collected errors as strings.
func (r *Report) Messages() []string {
	out := make([]string, len(r.Errors))
	for i, err := range r.Errors {
		out[i] = err.Error()
	}
	return out
}

// Porter exports and imports a library through an engine.
type Porter struct {
	engine *library.Engine
	log    *slog.Logger
}

// New creates a Porter. A nil logger discards output.
func New(engine *library.Engine, log *slog.Logger) *Porter {
	if log == nil {
		log = logger.Discard()
	}
	return &Porter{engine: engine, log: log}
}

// Snapshot builds the export document for the current library: every manga
// in id order and every tag with its id.
func (p *Porter) Snapshot() (*File, error) {
	mangas, err := p.engine.Query(types.Filters{})
	if err != nil {
		return nil, err
	}
	tags, err := p.engine.Tags().All()
	if err != nil {
		return nil, err
	}

	f := &File{
		Version: ExportVersion,
		Mangas:  make([]ExportManga, 0, len(mangas)),
		Tags:    make([]ExportTag, 0, len(tags)),
	}
	for _, m := range mangas {
		f.Mangas = append(f.Mangas, fromManga(m))
	}
	for _, t := range tags {
		f.Tags = append(f.Tags, ExportTag{ID: t.ID, Name: t.Name, Color: t.Color})
	}
	return f, nil
}

// Export writes the library to w as indented JSON.
func (p *Porter) Export(w io.Writer) error {
	f, err := p.Snapshot()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	p.log.Info("library exported", "mangas", len(f.Mangas), "tags", len(f.Tags))
	return nil
}
