// Package tablestore adapts the storage contract onto a relational table
// service reached over HTTP.
//
// The service supports only per-column equality filters and whole-row
// patches: no OR, no regex, no array operators. The adapter therefore
// pushes down the conjunctive-equality fragment of each predicate,
// fetches the broader candidate set, and re-applies the reference
// evaluator client-side - trading transferred rows for correctness.
//
// Array mutations are emulated by read-modify-write: fetch the row,
// apply the update in memory with the reference semantics, patch the row
// back. The window between read and write is not atomic; two concurrent
// array appends to one row can race and lose one append. Collections
// needing strict array-mutation atomicity belong on the memory or
// document-database backend instead.
//
// The service's JSON columns carry no timestamp type, so timestamps
// travel as RFC 3339 strings and are coerced back to timestamps on
// decode. A genuine string value that happens to be in strict RFC 3339
// form comes back as a timestamp on this backend; see
// document.UnmarshalValue.
package tablestore

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hoopwithher/polystore/internal/backend"
	"github.com/hoopwithher/polystore/internal/document"
	"github.com/hoopwithher/polystore/internal/match"
	"github.com/hoopwithher/polystore/internal/query"
)

// Store is a table-service backend instance bound to one service URL.
type Store struct {
	client *client
}

// Options configures Open.
type Options struct {
	// APIKey is sent as both the apikey and bearer token headers.
	APIKey string

	// HTTPClient overrides the default client (mainly for tests).
	HTTPClient *http.Client

	// Timeout applies when HTTPClient is nil. Zero means 10s.
	Timeout time.Duration
}

// Open binds to the table service at baseURL. No connection is made
// until the first operation; use Ping to probe reachability.
func Open(baseURL string, opts Options) (*Store, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse table service url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("table service url %q has no scheme or host", baseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Store{client: &client{base: base, key: opts.APIKey, http: httpClient}}, nil
}

// Kind identifies the variant.
func (s *Store) Kind() backend.Kind { return backend.KindTableService }

// Collection returns a handle bound to the named table.
func (s *Store) Collection(name string) backend.Collection {
	return &table{name: name, client: s.client}
}

// Ping probes the service endpoint.
func (s *Store) Ping(ctx context.Context) error { return s.client.ping(ctx) }

// Close is a no-op; connections are pooled by the HTTP client.
func (s *Store) Close(context.Context) error { return nil }

type table struct {
	name   string
	client *client
}

// Name returns the logical collection name.
func (t *table) Name() string { return t.name }

// fetch pulls the equality-filtered candidate rows and re-applies the
// full predicate client-side. The result order is the service's row
// order, which stands in for insertion order on this backend.
func (t *table) fetch(ctx context.Context, op string, pred query.Predicate) ([]document.Document, error) {
	params, _, err := compileFilter(pred)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rows, err := t.client.getRows(ctx, op, t.name, params)
	if err != nil {
		return nil, err
	}

	matched := rows[:0]
	for _, row := range rows {
		if match.Matches(row, pred) {
			matched = append(matched, row)
		}
	}
	return matched, nil
}

// FindOne returns the first matching row.
func (t *table) FindOne(ctx context.Context, pred query.Predicate) (document.Document, bool, error) {
	rows, err := t.fetch(ctx, "find_one", pred)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// Find fetches eagerly (the transport is request-response) but yields
// lazily, preserving the sequence contract.
func (t *table) Find(ctx context.Context, pred query.Predicate, opts *backend.FindOptions) backend.Seq {
	rows, err := t.fetch(ctx, "find", pred)
	if err != nil {
		return backend.Fail(err)
	}
	if opts != nil {
		if opts.Sort != "" {
			match.SortStable(rows, opts.Sort, opts.Desc)
		}
		rows = match.Page(rows, opts.Skip, opts.Limit)
	}
	return backend.FromSlice(rows)
}

// InsertOne posts the document as a new row. Unique constraints live in
// the service's schema; a conflict surfaces as DuplicateKeyError.
func (t *table) InsertOne(ctx context.Context, doc document.Document) (backend.InsertResult, error) {
	if err := t.client.insertRow(ctx, t.name, doc); err != nil {
		return backend.InsertResult{}, err
	}
	id, _ := doc.ID()
	return backend.InsertResult{InsertedID: id}, nil
}

// UpdateOne emulates a single-document update: resolve the first
// matching row, apply the spec in memory with the reference semantics,
// then patch only the changed columns, re-targeted by the row's id so
// the service cannot touch other matches.
//
// The read-modify-write window is not atomic; see the package comment.
func (t *table) UpdateOne(ctx context.Context, pred query.Predicate, spec query.UpdateSpec) (backend.MutateResult, error) {
	rows, err := t.fetch(ctx, "update_one", pred)
	if err != nil {
		return backend.MutateResult{}, err
	}

	// Positional element conditions narrow the match, as on the other
	// backends.
	var target document.Document
	for _, row := range rows {
		if match.HasPositionalTargets(row, spec) {
			target = row
			break
		}
	}
	if target == nil {
		return backend.MutateResult{}, nil
	}

	updated, err := match.Apply(target, spec)
	if err != nil {
		return backend.MutateResult{}, fmt.Errorf("update_one: %w", err)
	}

	patch := changedFields(target, updated)
	if len(patch) == 0 {
		return backend.MutateResult{MatchedCount: 1}, nil
	}

	params, err := t.rowParams(target, "update_one")
	if err != nil {
		return backend.MutateResult{}, err
	}
	if err := t.client.patchRows(ctx, t.name, params, patch); err != nil {
		return backend.MutateResult{}, err
	}
	return backend.MutateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

// DeleteOne resolves the first matching row and deletes it by id.
func (t *table) DeleteOne(ctx context.Context, pred query.Predicate) (backend.DeleteResult, error) {
	rows, err := t.fetch(ctx, "delete_one", pred)
	if err != nil {
		return backend.DeleteResult{}, err
	}
	if len(rows) == 0 {
		return backend.DeleteResult{}, nil
	}

	params, err := t.rowParams(rows[0], "delete_one")
	if err != nil {
		return backend.DeleteResult{}, err
	}
	if err := t.client.deleteRows(ctx, t.name, params); err != nil {
		return backend.DeleteResult{}, err
	}
	return backend.DeleteResult{DeletedCount: 1}, nil
}

// CountDocuments answers fully-pushable counts server-side without
// transferring rows; anything else falls back to fetch-and-count.
func (t *table) CountDocuments(ctx context.Context, pred query.Predicate) (int64, error) {
	params, pushedAll, err := compileFilter(pred)
	if err != nil {
		return 0, fmt.Errorf("count_documents: %w", err)
	}
	if pushedAll {
		return t.client.countExact(ctx, t.name, params)
	}

	rows, err := t.fetch(ctx, "count_documents", pred)
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

// CreateIndex is a no-op: indexes and unique constraints are managed in
// the service's schema, and violations come back as conflicts on write.
func (t *table) CreateIndex(_ context.Context, field string, unique bool) error {
	slog.Debug("create_index ignored; table service manages its own indexes",
		"table", t.name, "field", field, "unique", unique)
	return nil
}

// rowParams builds the id-equality filter addressing exactly one row.
// Rows without an id column cannot be individually addressed by this
// service, so single-row updates and deletes on them are unsupported.
func (t *table) rowParams(row document.Document, op string) (url.Values, error) {
	id, ok := row.ID()
	if !ok {
		return nil, backend.NewUnsupported(backend.KindTableService,
			fmt.Sprintf("%s on a row without an id column", op))
	}
	params := url.Values{}
	params.Set("id", "eq."+id)
	return params, nil
}

// changedFields diffs two versions of a row and returns the top-level
// fields that differ, which is exactly the patch body.
func changedFields(before, after document.Document) document.Document {
	patch := document.Document{}
	for k, v := range after {
		if old, ok := before[k]; !ok || !document.Equal(old, v) {
			patch[k] = v
		}
	}
	return patch
}
