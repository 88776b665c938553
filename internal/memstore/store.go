// Package memstore implements the in-process reference backend.
//
// Its semantics are authoritative: every other backend must produce
// observationally identical results for equivalent predicates and updates.
// Storage order is insertion order; all state dies with the process.
//
// Locking model: one RWMutex per collection. Mutations take the write
// lock so a unique-index check and the following write are atomic with
// respect to concurrent writers; reads take the read lock and copy what
// they need, so no lock outlives a call.
package memstore

import (
	"context"
	"sync"

	"github.com/hoopwithher/polystore/internal/backend"
)

// Store is an in-memory backend instance. Construct one per process (or
// one per test - stores share nothing).
type Store struct {
	mu          sync.Mutex
	collections map[string]*collection
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{collections: make(map[string]*collection)}
}

// Kind identifies the variant.
func (s *Store) Kind() backend.Kind { return backend.KindMemory }

// Collection returns a handle bound to the named collection, creating the
// collection lazily on first access.
func (s *Store) Collection(name string) backend.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		c = &collection{name: name, indexes: make(map[string]bool)}
		s.collections[name] = c
	}
	return c
}

// Ping always succeeds: the process-local store is reachable by
// definition.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op; the store has no external resources.
func (s *Store) Close(context.Context) error { return nil }
