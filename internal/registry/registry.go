// Package registry resolves logical collection names to backend-bound
// handles.
//
// The registry replaces the upstream pattern of treating any unknown
// attribute as a fresh collection: names are declared up front, a typo
// is an error instead of a silently created empty collection, and the
// same handle instance is returned for the same name for the life of
// the process.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hoopwithher/polystore/internal/backend"
	"github.com/hoopwithher/polystore/internal/config"
)

// ErrUnknownCollection is returned for names not declared at startup.
var ErrUnknownCollection = errors.New("unknown collection")

// Registry binds declared collection names to one backend chosen at
// startup. Safe for concurrent use; the backend binding is immutable
// after construction.
type Registry struct {
	be       backend.Backend
	declared map[string]bool

	mu      sync.Mutex
	handles map[string]backend.Collection
}

// New creates a registry over be for the declared collection names.
func New(be backend.Backend, names []string) *Registry {
	declared := make(map[string]bool, len(names))
	for _, name := range names {
		declared[name] = true
	}
	return &Registry{
		be:       be,
		declared: declared,
		handles:  make(map[string]backend.Collection),
	}
}

// Handle returns the collection handle for name. Idempotent: the same
// name yields the same handle instance within a process.
func (r *Registry) Handle(name string) (backend.Collection, error) {
	if !r.declared[name] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[name]
	if !ok {
		h = r.be.Collection(name)
		r.handles[name] = h
	}
	return h, nil
}

// Backend exposes the bound backend for lifecycle calls (Ping, Close).
func (r *Registry) Backend() backend.Backend { return r.be }

// EnsureIndexes provisions every declared index, mirroring the upstream
// application's startup index creation. Existing data is not revalidated;
// uniqueness applies to subsequent writes.
func (r *Registry) EnsureIndexes(ctx context.Context, specs []config.CollectionSpec) error {
	for _, col := range specs {
		if len(col.Indexes) == 0 {
			continue
		}
		h, err := r.Handle(col.Name)
		if err != nil {
			return err
		}
		for _, idx := range col.Indexes {
			if err := h.CreateIndex(ctx, idx.Field, idx.Unique); err != nil {
				return fmt.Errorf("ensure index %s.%s: %w", col.Name, idx.Field, err)
			}
			slog.Debug("index ensured", "collection", col.Name, "field", idx.Field, "unique", idx.Unique)
		}
	}
	return nil
}
