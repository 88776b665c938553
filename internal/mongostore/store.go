// Package mongostore adapts the storage contract onto a document
// database over its native wire protocol.
//
// The whole predicate and update model pushes down: filters translate to
// native filter documents and array mutations to the server's array
// operators, so single-document atomicity is the server's. Network
// failures surface as backend.UnavailableError, never as silent empty
// results.
//
// One server-side divergence is accepted: plain equality and regex
// filters traverse array fields on the server (a filter {tags: "x"}
// matches a document whose tags array contains "x"), where the reference
// evaluator requires the field itself to equal the operand. Rewriting
// every comparison through $expr to suppress traversal is not worth it
// for data that never queries arrays with EQ.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hoopwithher/polystore/internal/backend"
	"github.com/hoopwithher/polystore/internal/document"
	"github.com/hoopwithher/polystore/internal/query"
)

// Store is a document-database backend instance bound to one database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to the database at uri and binds to dbName.
// The connection is verified with a ping before the store is returned.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, backend.NewUnavailable(backend.KindMongoDB, "connect", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, backend.NewUnavailable(backend.KindMongoDB, "ping", err)
	}
	slog.Info("document database connected", "database", dbName)
	return &Store{client: client, db: client.Database(dbName)}, nil
}

// Kind identifies the variant.
func (s *Store) Kind() backend.Kind { return backend.KindMongoDB }

// Collection returns a handle bound to the named collection.
func (s *Store) Collection(name string) backend.Collection {
	return &collection{name: name, coll: s.db.Collection(name)}
}

// Ping verifies the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return backend.NewUnavailable(backend.KindMongoDB, "ping", err)
	}
	return nil
}

// Close disconnects from the server.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type collection struct {
	name string
	coll *mongo.Collection
}

// noID projects the driver's internal _id out of every read; documents
// are addressed by the application-level "id" field.
var noID = bson.D{{Key: "_id", Value: 0}}

// Name returns the logical collection name.
func (c *collection) Name() string { return c.name }

// FindOne returns the first match in the server's natural order.
func (c *collection) FindOne(ctx context.Context, pred query.Predicate) (document.Document, bool, error) {
	filter, err := translatePredicate(pred)
	if err != nil {
		return nil, false, fmt.Errorf("find_one: %w", err)
	}

	var raw bson.D
	err = c.coll.FindOne(ctx, filter, options.FindOne().SetProjection(noID)).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, c.classify("find_one", err)
	}

	doc, err := decodeDocument(raw)
	if err != nil {
		return nil, false, fmt.Errorf("find_one: %w", err)
	}
	return doc, true, nil
}

// Find issues the query lazily: the cursor is opened on first iteration
// and closed when the caller stops, so an abandoned sequence leaks
// nothing.
func (c *collection) Find(ctx context.Context, pred query.Predicate, opts *backend.FindOptions) backend.Seq {
	filter, err := translatePredicate(pred)
	if err != nil {
		return backend.Fail(fmt.Errorf("find: %w", err))
	}

	findOpts := options.Find().SetProjection(noID)
	if opts != nil {
		if opts.Sort != "" {
			dir := 1
			if opts.Desc {
				dir = -1
			}
			findOpts = findOpts.SetSort(bson.D{{Key: opts.Sort, Value: dir}})
		}
		if opts.Skip > 0 {
			findOpts = findOpts.SetSkip(opts.Skip)
		}
		if opts.Limit > 0 {
			findOpts = findOpts.SetLimit(opts.Limit)
		}
	}

	return func(yield func(document.Document, error) bool) {
		cursor, err := c.coll.Find(ctx, filter, findOpts)
		if err != nil {
			yield(nil, c.classify("find", err))
			return
		}
		defer cursor.Close(ctx)

		for cursor.Next(ctx) {
			var raw bson.D
			if err := cursor.Decode(&raw); err != nil {
				yield(nil, fmt.Errorf("find: decode: %w", err))
				return
			}
			doc, err := decodeDocument(raw)
			if err != nil {
				yield(nil, fmt.Errorf("find: %w", err))
				return
			}
			if !yield(doc, nil) {
				return
			}
		}
		if err := cursor.Err(); err != nil {
			yield(nil, c.classify("find", err))
		}
	}
}

// InsertOne writes doc. Unique-index violations surface as
// DuplicateKeyError; the server enforces them atomically.
func (c *collection) InsertOne(ctx context.Context, doc document.Document) (backend.InsertResult, error) {
	wire, err := translateValue(doc)
	if err != nil {
		return backend.InsertResult{}, fmt.Errorf("insert_one: %w", err)
	}
	if _, err := c.coll.InsertOne(ctx, wire); err != nil {
		return backend.InsertResult{}, c.classify("insert_one", err)
	}
	id, _ := doc.ID()
	return backend.InsertResult{InsertedID: id}, nil
}

// UpdateOne applies spec to the first match. Positional array updates
// extend the filter with the $elemMatch condition their positional path
// requires.
func (c *collection) UpdateOne(ctx context.Context, pred query.Predicate, spec query.UpdateSpec) (backend.MutateResult, error) {
	filter, err := translatePredicate(pred)
	if err != nil {
		return backend.MutateResult{}, fmt.Errorf("update_one: %w", err)
	}
	update, filterExtra, err := translateUpdate(spec)
	if err != nil {
		return backend.MutateResult{}, fmt.Errorf("update_one: %w", err)
	}
	filter = append(filter, filterExtra...)

	res, err := c.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return backend.MutateResult{}, c.classify("update_one", err)
	}
	return backend.MutateResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

// DeleteOne removes the first match.
func (c *collection) DeleteOne(ctx context.Context, pred query.Predicate) (backend.DeleteResult, error) {
	filter, err := translatePredicate(pred)
	if err != nil {
		return backend.DeleteResult{}, fmt.Errorf("delete_one: %w", err)
	}
	res, err := c.coll.DeleteOne(ctx, filter)
	if err != nil {
		return backend.DeleteResult{}, c.classify("delete_one", err)
	}
	return backend.DeleteResult{DeletedCount: res.DeletedCount}, nil
}

// CountDocuments counts matches server-side.
func (c *collection) CountDocuments(ctx context.Context, pred query.Predicate) (int64, error) {
	filter, err := translatePredicate(pred)
	if err != nil {
		return 0, fmt.Errorf("count_documents: %w", err)
	}
	n, err := c.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, c.classify("count_documents", err)
	}
	return n, nil
}

// CreateIndex provisions a server-side index on field.
func (c *collection) CreateIndex(ctx context.Context, field string, unique bool) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(unique),
	}
	if _, err := c.coll.Indexes().CreateOne(ctx, model); err != nil {
		return c.classify("create_index", err)
	}
	return nil
}

// classify maps driver errors onto the shared taxonomy: duplicate-key
// write errors become DuplicateKeyError, server-reported command errors
// pass through wrapped, and everything else (dial, server selection,
// timeout, mid-stream network faults) is the backend being unavailable.
func (c *collection) classify(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		slog.Debug("duplicate key rejected by server", "collection", c.name, "op", op)
		return &backend.DuplicateKeyError{Collection: c.name}
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && !cmdErr.HasErrorLabel("NetworkError") {
		return fmt.Errorf("%s: %w", op, err)
	}
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return backend.NewUnavailable(backend.KindMongoDB, op, err)
}
