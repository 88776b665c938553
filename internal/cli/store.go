package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/hoopwithher/polystore/internal/config"
	"github.com/hoopwithher/polystore/internal/document"
	"github.com/hoopwithher/polystore/internal/query"
	"github.com/hoopwithher/polystore/internal/registry"
)

// openRegistry loads configuration and opens the configured backend.
// Callers own closing the backend.
func openRegistry(ctx context.Context, opts *RootOptions) (*registry.Registry, config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, config.Config{}, err
	}
	reg, err := registry.Open(ctx, cfg)
	if err != nil {
		return nil, config.Config{}, err
	}
	return reg, cfg, nil
}

// parseWhere converts repeated --where field=value flags into an
// equality predicate. Values parse as JSON literals first (true, 42,
// null, "quoted"), falling back to plain strings, so shells stay usable.
// Quote values that must stay strings despite looking numeric:
//
//	--where verified=true --where school=Lincoln --where grad_class='"2026"'
func parseWhere(clauses []string) (query.Predicate, error) {
	if len(clauses) == 0 {
		return nil, nil
	}

	children := make([]query.Predicate, 0, len(clauses))
	for _, clause := range clauses {
		field, raw, ok := strings.Cut(clause, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid --where %q: want field=value", clause)
		}
		val, err := document.UnmarshalValue([]byte(raw))
		if err != nil {
			val = document.String(raw)
		}
		children = append(children, query.Eq(field, val))
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return query.AllOf(children...), nil
}

// parseDocument decodes a JSON object into a document.
func parseDocument(raw string) (document.Document, error) {
	var doc document.Document
	if err := doc.UnmarshalJSON([]byte(raw)); err != nil {
		return nil, fmt.Errorf("invalid document JSON: %w", err)
	}
	return doc, nil
}
