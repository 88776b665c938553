// Package backend defines the storage contract every physical backend
// implements and the result and error types shared across them.
//
// Application code never touches a concrete backend; it asks the registry
// for a Collection handle and issues the same logical operations
// regardless of which backend is active for the process.
package backend

import (
	"context"
	"iter"

	"github.com/hoopwithher/polystore/internal/document"
	"github.com/hoopwithher/polystore/internal/query"
)

// Kind identifies a backend variant. Exactly one is active per process.
type Kind string

const (
	// KindMemory is the in-process reference backend.
	KindMemory Kind = "memory"

	// KindMongoDB is the document-database adapter.
	KindMongoDB Kind = "mongodb"

	// KindTableService is the HTTP table-service adapter.
	KindTableService Kind = "tableservice"
)

// Seq is a lazy, finite, non-restartable sequence of documents.
//
// Ranging over a Seq yields (doc, nil) pairs followed by at most one
// (zero, err) pair if the underlying read failed mid-stream. Abandoning
// the sequence early has no effect on the store.
type Seq = iter.Seq2[document.Document, error]

// Collection is a long-lived binding between one logical collection name
// and one backend. Handles are stateless beyond that binding and safe for
// concurrent use.
//
// "Zero matched" is always an ordinary result, never an error; a write
// failure is always an error, never a fabricated zero.
type Collection interface {
	// Name returns the logical collection name the handle is bound to.
	Name() string

	// FindOne returns the first document satisfying pred in the backend's
	// storage order. found is false when nothing matched.
	FindOne(ctx context.Context, pred query.Predicate) (doc document.Document, found bool, err error)

	// Find returns the documents satisfying pred after applying the sort,
	// skip, and limit in opts (opts may be nil). The sort is stable with
	// respect to insertion order.
	Find(ctx context.Context, pred query.Predicate, opts *FindOptions) Seq

	// InsertOne appends doc to the collection. Fails with a
	// DuplicateKeyError when a declared unique index already holds the
	// incoming document's value.
	InsertOne(ctx context.Context, doc document.Document) (InsertResult, error)

	// UpdateOne applies spec to the first document satisfying pred.
	UpdateOne(ctx context.Context, pred query.Predicate, spec query.UpdateSpec) (MutateResult, error)

	// DeleteOne removes the first document satisfying pred.
	DeleteOne(ctx context.Context, pred query.Predicate) (DeleteResult, error)

	// CountDocuments returns the total number of matches, independent of
	// any skip or limit a paired Find would use.
	CountDocuments(ctx context.Context, pred query.Predicate) (int64, error)

	// CreateIndex registers an index on field. A unique index is enforced
	// on subsequent inserts and updates; existing data is not revalidated.
	CreateIndex(ctx context.Context, field string, unique bool) error
}

// Backend is one physical storage variant. The registry binds every
// collection handle to a single Backend chosen at process startup.
type Backend interface {
	// Kind identifies the variant.
	Kind() Kind

	// Collection returns a handle bound to the named collection. Backends
	// do not cache handles; the registry does.
	Collection(name string) Collection

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close(ctx context.Context) error
}

// FindOptions carries the optional sort and paging of a Find.
type FindOptions struct {
	// Sort orders results by this field; empty means insertion order.
	Sort string

	// Desc reverses the sort order.
	Desc bool

	// Skip drops this many documents from the front of the sorted result.
	Skip int64

	// Limit caps the number of documents returned; zero means no cap.
	Limit int64
}

// Collect drains a Seq into a slice. The error, if any, is the one the
// sequence ended with.
func Collect(seq Seq) ([]document.Document, error) {
	var docs []document.Document
	for doc, err := range seq {
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// FromSlice wraps an already-materialized result as a Seq.
func FromSlice(docs []document.Document) Seq {
	return func(yield func(document.Document, error) bool) {
		for _, doc := range docs {
			if !yield(doc, nil) {
				return
			}
		}
	}
}

// Fail returns a Seq that yields only err.
func Fail(err error) Seq {
	return func(yield func(document.Document, error) bool) {
		yield(nil, err)
	}
}
