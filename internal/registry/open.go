package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hoopwithher/polystore/internal/backend"
	"github.com/hoopwithher/polystore/internal/config"
	"github.com/hoopwithher/polystore/internal/memstore"
	"github.com/hoopwithher/polystore/internal/mongostore"
	"github.com/hoopwithher/polystore/internal/tablestore"
)

// OpenBackend constructs the one backend the configuration selects.
// This is the single place a concrete backend type is chosen; everything
// downstream sees only the backend contract.
func OpenBackend(ctx context.Context, cfg config.Config) (backend.Backend, error) {
	kind := backend.Kind(cfg.Backend)
	slog.Info("selecting storage backend", "backend", kind)

	switch kind {
	case backend.KindMemory:
		return memstore.New(), nil

	case backend.KindMongoDB:
		return mongostore.Open(ctx, cfg.MongoDB.URI, cfg.MongoDB.Database)

	case backend.KindTableService:
		return tablestore.Open(cfg.TableService.URL, tablestore.Options{
			APIKey: cfg.TableService.APIKey,
		})

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Open is the startup path: construct the configured backend, wrap it in
// a registry for the declared collections, and provision indexes.
func Open(ctx context.Context, cfg config.Config) (*Registry, error) {
	be, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	r := New(be, cfg.CollectionNames())
	if err := r.EnsureIndexes(ctx, cfg.Collections); err != nil {
		_ = be.Close(ctx)
		return nil, err
	}
	return r, nil
}
