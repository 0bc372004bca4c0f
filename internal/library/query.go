package library

import (
	"math/rand/v2"

	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

// Query returns the records matching f, ordered and limited as requested,
// with ResolvedTags filled in. An unconstrained filter returns every record
// in id order.
func (e *Engine) Query(f types.Filters) ([]*types.Manga, error) {
	criteria, err := Compile(f)
	if err != nil {
		return nil, err
	}

	candidates, err := e.candidates(f)
	if err != nil {
		return nil, err
	}

	matched := candidates[:0]
	for _, m := range candidates {
		if matchAll(criteria, m) {
			matched = append(matched, m)
		}
	}

	if f.Random {
		matched = sample(e.rng, matched, f.Limit)
	} else {
		sortMangas(matched, f.SortBy, f.Order, e.collator())
		if f.Limit > 0 && len(matched) > f.Limit {
			matched = matched[:f.Limit]
		}
	}

	if err := e.hydrate(matched); err != nil {
		return nil, err
	}
	e.log.Debug("query",
		"candidates", len(candidates),
		"results", len(matched),
		"sort", string(f.SortBy),
		"random", f.Random)
	return matched, nil
}

// candidates loads the records a query starts from. A chapter range narrows
// the load through the store's range index; every other query reads the
// full table.
func (e *Engine) candidates(f types.Filters) ([]*types.Manga, error) {
	var (
		rows []any
		err  error
	)
	if r := f.ChapterRange; r != nil {
		rows, err = e.mangas.RangeQuery(types.FieldChapters, r.Min, r.Max)
	} else {
		rows, err = e.mangas.All()
	}
	if err != nil {
		return nil, storeErr("load mangas", err)
	}
	return asMangas(rows), nil
}

// sample returns k distinct records chosen uniformly at random, in random
// order, using a partial Fisher-Yates shuffle. k <= 0 or k >= len(ms)
// shuffles the whole slice.
func sample(rng *rand.Rand, ms []*types.Manga, k int) []*types.Manga {
	n := len(ms)
	if k <= 0 || k > n {
		k = n
	}
	for i := range k {
		j := i + rng.IntN(n-i)
		ms[i], ms[j] = ms[j], ms[i]
	}
	return ms[:k]
}

// hydrate fills ResolvedTags on every record with one batch fetch of the
// union of their tag ids. Ids with no tag are dropped.
func (e *Engine) hydrate(ms []*types.Manga) error {
	if len(ms) == 0 {
		return nil
	}
	var ids []int64
	seen := make(map[int64]bool)
	for _, m := range ms {
		for _, id := range m.Tags {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	byID := make(map[int64]types.Tag, len(ids))
	if len(ids) > 0 {
		rows, err := e.tags.BulkGet(ids)
		if err != nil {
			return storeErr("load tags", err)
		}
		for _, r := range rows {
			if t, ok := r.(*types.Tag); ok && t != nil {
				byID[t.ID] = *t
			}
		}
	}

	for _, m := range ms {
		resolved := make([]types.Tag, 0, len(m.Tags))
		for _, id := range m.Tags {
			if t, ok := byID[id]; ok {
				resolved = append(resolved, t)
			}
		}
		m.ResolvedTags = resolved
	}
	return nil
}
