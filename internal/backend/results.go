package backend

// InsertResult describes a completed insert.
type InsertResult struct {
	// InsertedID is the inserted document's "id" field, empty when the
	// document carried none. The store never generates identifiers.
	InsertedID string
}

// MutateResult describes a completed update.
//
// MatchedCount is the number of documents the predicate selected (0 or 1
// for UpdateOne). ModifiedCount counts documents the update actually
// changed: an update that sets a field to its current value matches
// without modifying.
type MutateResult struct {
	MatchedCount  int64
	ModifiedCount int64
}

// DeleteResult describes a completed delete. A zero DeletedCount is an
// ordinary result, not an error.
type DeleteResult struct {
	DeletedCount int64
}
