package memstore

import (
	"context"
	"sync"

	"github.com/hoopwithher/polystore/internal/backend"
	"github.com/hoopwithher/polystore/internal/document"
	"github.com/hoopwithher/polystore/internal/match"
	"github.com/hoopwithher/polystore/internal/query"
)

// collection holds one logical collection: its documents in insertion
// order and its registered indexes (field name -> unique flag).
type collection struct {
	name string

	mu      sync.RWMutex
	docs    []document.Document
	indexes map[string]bool
}

// Name returns the logical collection name.
func (c *collection) Name() string { return c.name }

// FindOne returns the first document in insertion order satisfying pred.
func (c *collection) FindOne(_ context.Context, pred query.Predicate) (document.Document, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, doc := range c.docs {
		if match.Matches(doc, pred) {
			return doc.Clone(), true, nil
		}
	}
	return nil, false, nil
}

// Find snapshots the matching documents under the read lock, then yields
// lazily from the snapshot. Abandoning the sequence mid-stream therefore
// holds no lock and has no effect on the store.
func (c *collection) Find(_ context.Context, pred query.Predicate, opts *backend.FindOptions) backend.Seq {
	c.mu.RLock()
	matched := make([]document.Document, 0, len(c.docs))
	for _, doc := range c.docs {
		if match.Matches(doc, pred) {
			matched = append(matched, doc.Clone())
		}
	}
	c.mu.RUnlock()

	if opts != nil {
		if opts.Sort != "" {
			match.SortStable(matched, opts.Sort, opts.Desc)
		}
		matched = match.Page(matched, opts.Skip, opts.Limit)
	}
	return backend.FromSlice(matched)
}

// InsertOne appends doc, enforcing every registered unique index. The
// uniqueness check and the append happen under one write lock, so two
// concurrent inserts of the same key resolve to exactly one success.
func (c *collection) InsertOne(_ context.Context, doc document.Document) (backend.InsertResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkUnique(doc, -1); err != nil {
		return backend.InsertResult{}, err
	}

	stored := doc.Clone()
	c.docs = append(c.docs, stored)

	id, _ := stored.ID()
	return backend.InsertResult{InsertedID: id}, nil
}

// UpdateOne applies spec to the first document satisfying pred.
// ModifiedCount is 1 only when the update changed the document.
// Positional operations narrow the match: a document whose array holds no
// element their condition accepts is skipped, not counted as matched.
func (c *collection) UpdateOne(_ context.Context, pred query.Predicate, spec query.UpdateSpec) (backend.MutateResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, doc := range c.docs {
		if !match.Matches(doc, pred) || !match.HasPositionalTargets(doc, spec) {
			continue
		}

		updated, err := match.Apply(doc, spec)
		if err != nil {
			return backend.MutateResult{}, err
		}
		if err := c.checkUnique(updated, i); err != nil {
			return backend.MutateResult{}, err
		}

		res := backend.MutateResult{MatchedCount: 1}
		if !document.Equal(doc, updated) {
			res.ModifiedCount = 1
		}
		c.docs[i] = updated
		return res, nil
	}
	return backend.MutateResult{}, nil
}

// DeleteOne removes the first document satisfying pred.
func (c *collection) DeleteOne(_ context.Context, pred query.Predicate) (backend.DeleteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, doc := range c.docs {
		if match.Matches(doc, pred) {
			c.docs = append(c.docs[:i], c.docs[i+1:]...)
			return backend.DeleteResult{DeletedCount: 1}, nil
		}
	}
	return backend.DeleteResult{}, nil
}

// CountDocuments returns the number of matches, ignoring any paging.
func (c *collection) CountDocuments(_ context.Context, pred query.Predicate) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var n int64
	for _, doc := range c.docs {
		if match.Matches(doc, pred) {
			n++
		}
	}
	return n, nil
}

// CreateIndex registers an index on field. Uniqueness is enforced on
// subsequent inserts and updates only; existing documents are not
// revalidated.
func (c *collection) CreateIndex(_ context.Context, field string, unique bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.indexes[field] = unique
	return nil
}

// checkUnique verifies doc against every unique index, skipping the
// document at position self (-1 for inserts). Missing and null fields are
// exempt: uniqueness constrains values, not presence.
//
// Callers must hold the write lock.
func (c *collection) checkUnique(doc document.Document, self int) error {
	for field, unique := range c.indexes {
		if !unique {
			continue
		}
		val, present := doc[field]
		if !present {
			continue
		}
		if _, isNull := val.(document.Null); isNull {
			continue
		}
		for i, existing := range c.docs {
			if i == self {
				continue
			}
			if ev, ok := existing[field]; ok && document.Equal(ev, val) {
				return &backend.DuplicateKeyError{Collection: c.name, Field: field, Value: val}
			}
		}
	}
	return nil
}
