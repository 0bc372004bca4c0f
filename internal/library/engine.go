// Package library is the record query engine: it answers filter, sort,
// random and limit queries over the manga table, hydrates tag references,
// and routes every mutation through methods that keep updatedAt and the
// tag reference invariants consistent.
//
// The engine holds no locks. Callers serialize mutations on the same id.
package library

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/mesh-intelligence/mangashelf/internal/logger"
	"github.com/mesh-intelligence/mangashelf/internal/validation"
	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

// Engine runs queries and mutations against a manga table and a tag table.
type Engine struct {
	mangas   types.Table
	tags     types.Table
	cascader types.TagCascader // nil when the store has no transactional cascade

	log      *slog.Logger
	now      func() time.Time
	rng      *rand.Rand
	lang     language.Tag
	validate *validation.Validator
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRand sets the random source used for random selection.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithLanguage sets the collation language for title ordering.
func WithLanguage(tag language.Tag) Option {
	return func(e *Engine) { e.lang = tag }
}

// WithCascader sets the transactional tag cascade used by tag deletion.
func WithCascader(c types.TagCascader) Option {
	return func(e *Engine) { e.cascader = c }
}

// New creates an engine over the given tables.
func New(mangas, tags types.Table, opts ...Option) *Engine {
	e := &Engine{
		mangas:   mangas,
		tags:     tags,
		log:      logger.Discard(),
		now:      time.Now,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		lang:     language.English,
		validate: validation.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Open creates an engine over an attached shelf's standard tables. When the
// shelf implements types.TagCascader, tag deletion uses it.
func Open(shelf types.Shelf, opts ...Option) (*Engine, error) {
	mangas, err := shelf.GetTable(types.MangasTable)
	if err != nil {
		return nil, fmt.Errorf("opening %s table: %w", types.MangasTable, err)
	}
	tags, err := shelf.GetTable(types.TagsTable)
	if err != nil {
		return nil, fmt.Errorf("opening %s table: %w", types.TagsTable, err)
	}
	if c, ok := shelf.(types.TagCascader); ok {
		opts = append([]Option{WithCascader(c)}, opts...)
	}
	return New(mangas, tags, opts...), nil
}

// Tags returns the tag service sharing this engine's stores and settings.
func (e *Engine) Tags() *Tags {
	return &Tags{engine: e}
}

// collator returns a fresh collator; collate.Collator is not safe for
// concurrent use.
func (e *Engine) collator() *collate.Collator {
	return collate.New(e.lang, collate.IgnoreCase, collate.Numeric)
}

// stamp returns the current time in the stored timestamp layout.
func (e *Engine) stamp() string {
	return types.FormatTimestamp(e.now())
}

// FoldTitle normalizes a title for equality checks: trimmed, NFC, and
// case-folded.
func FoldTitle(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// storeErr classifies an error returned by a table. Not-found passes
// through; rejected data becomes invalid input; anything else is a storage
// failure.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return err
	case errors.Is(err, types.ErrInvalidData), errors.Is(err, types.ErrInvalidID):
		return fmt.Errorf("%s: %w: %w", op, types.ErrInvalidInput, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, types.ErrStorageFailure, err)
	}
}

// asMangas converts table rows to mangas, skipping foreign entries.
func asMangas(rows []any) []*types.Manga {
	out := make([]*types.Manga, 0, len(rows))
	for _, r := range rows {
		if m, ok := r.(*types.Manga); ok && m != nil {
			out = append(out, m)
		}
	}
	return out
}

func (e *Engine) getManga(id int64) (*types.Manga, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: manga id %d", types.ErrInvalidInput, id)
	}
	row, err := e.mangas.Get(id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, fmt.Errorf("manga %d: %w", id, types.ErrNotFound)
		}
		return nil, storeErr("get manga", err)
	}
	m, ok := row.(*types.Manga)
	if !ok {
		return nil, fmt.Errorf("get manga %d: %w: unexpected row %T", id, types.ErrStorageFailure, row)
	}
	return m, nil
}

// update writes changes plus a fresh updatedAt, and maps a zero affected
// count to ErrNotFound.
func (e *Engine) update(id int64, changes map[string]any) error {
	changes[types.FieldUpdatedAt] = e.stamp()
	n, err := e.mangas.Update(id, changes)
	if err != nil {
		return storeErr("update manga", err)
	}
	if n == 0 {
		return fmt.Errorf("manga %d: %w", id, types.ErrNotFound)
	}
	return nil
}
