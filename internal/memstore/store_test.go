package memstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopwithher/polystore/internal/backend"
	"github.com/hoopwithher/polystore/internal/document"
	"github.com/hoopwithher/polystore/internal/query"
)

func playerDoc(id, gradClass string, verified bool) document.Document {
	return document.Document{
		"id":         document.String(id),
		"grad_class": document.String(gradClass),
		"verified":   document.Bool(verified),
	}
}

func collect(t *testing.T, seq backend.Seq) []document.Document {
	t.Helper()
	docs, err := backend.Collect(seq)
	require.NoError(t, err)
	return docs
}

func TestStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := New()
	players := store.Collection("players")

	assert.Equal(t, backend.KindMemory, store.Kind())
	assert.Equal(t, "players", players.Name())
	assert.Same(t, store.Collection("players"), players, "handles for one name are one collection")

	res, err := players.InsertOne(ctx, playerDoc("p1", "2026", false))
	require.NoError(t, err)
	assert.Equal(t, "p1", res.InsertedID)

	_, err = players.InsertOne(ctx, playerDoc("p2", "2026", true))
	require.NoError(t, err)

	// Predicate filtering.
	verified := collect(t, players.Find(ctx, query.Eq("verified", document.Bool(true)), nil))
	require.Len(t, verified, 1)
	assert.Equal(t, document.String("p2"), verified[0]["id"])

	// Empty predicate counts everything.
	n, err := players.CountDocuments(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// Updating p1 in place keeps insertion order.
	mut, err := players.UpdateOne(ctx, query.ByID("p1"),
		query.Set(document.Document{"verified": document.Bool(true)}))
	require.NoError(t, err)
	assert.Equal(t, backend.MutateResult{MatchedCount: 1, ModifiedCount: 1}, mut)

	all := collect(t, players.Find(ctx, nil, nil))
	require.Len(t, all, 2)
	assert.Equal(t, document.String("p1"), all[0]["id"])
	assert.Equal(t, document.String("p2"), all[1]["id"])

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Close(ctx))
}

func TestCollection_FindOne(t *testing.T) {
	ctx := context.Background()
	players := New().Collection("players")
	_, err := players.InsertOne(ctx, playerDoc("p1", "2026", false))
	require.NoError(t, err)

	doc, found, err := players.FindOne(ctx, query.ByID("p1"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, document.String("2026"), doc["grad_class"])

	_, found, err = players.FindOne(ctx, query.ByID("ghost"))
	require.NoError(t, err)
	assert.False(t, found, "no match is an ordinary result, not an error")
}

func TestCollection_ReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	players := New().Collection("players")
	_, err := players.InsertOne(ctx, playerDoc("p1", "2026", false))
	require.NoError(t, err)

	doc, _, err := players.FindOne(ctx, query.ByID("p1"))
	require.NoError(t, err)
	doc["grad_class"] = document.String("mutated")

	stored, _, err := players.FindOne(ctx, query.ByID("p1"))
	require.NoError(t, err)
	assert.Equal(t, document.String("2026"), stored["grad_class"], "callers cannot reach stored state")
}

func TestCollection_UpdateOne_FirstMatchOnly(t *testing.T) {
	ctx := context.Background()
	players := New().Collection("players")
	for _, id := range []string{"p1", "p2"} {
		_, err := players.InsertOne(ctx, playerDoc(id, "2026", false))
		require.NoError(t, err)
	}

	mut, err := players.UpdateOne(ctx, query.Eq("grad_class", document.String("2026")),
		query.Set(document.Document{"verified": document.Bool(true)}))
	require.NoError(t, err)
	assert.Equal(t, backend.MutateResult{MatchedCount: 1, ModifiedCount: 1}, mut)

	n, err := players.CountDocuments(ctx, query.Eq("verified", document.Bool(true)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCollection_UpdateOne_NoChangeNotModified(t *testing.T) {
	ctx := context.Background()
	players := New().Collection("players")
	_, err := players.InsertOne(ctx, playerDoc("p1", "2026", false))
	require.NoError(t, err)

	mut, err := players.UpdateOne(ctx, query.ByID("p1"),
		query.Set(document.Document{"verified": document.Bool(false)}))
	require.NoError(t, err)
	assert.Equal(t, backend.MutateResult{MatchedCount: 1, ModifiedCount: 0}, mut)
}

func TestCollection_UpdateOne_PositionalNeedsElementMatch(t *testing.T) {
	ctx := context.Background()
	coaches := New().Collection("coaches")
	_, err := coaches.InsertOne(ctx, document.Document{
		"id":    document.String("c1"),
		"email": document.String("coach@example.com"),
		"saved_players": document.Array{
			document.Document{"player_id": document.String("p1"), "notes": document.String("quick")},
		},
	})
	require.NoError(t, err)

	// The coach matches the predicate but saves no such player, so the
	// whole update matches nothing. A caller can rely on matchedCount 0
	// to report "not found in saved list".
	mut, err := coaches.UpdateOne(ctx, query.ByID("c1"), query.UpdateSpec{Ops: []query.Op{
		query.SetFields{Fields: document.Document{"email": document.String("new@example.com")}},
		query.PositionalSet{
			Field: "saved_players",
			Match: query.Eq("player_id", document.String("p9")),
			Set:   document.Document{"notes": document.String("updated")},
		},
	}})
	require.NoError(t, err)
	assert.Equal(t, backend.MutateResult{}, mut)

	doc, _, err := coaches.FindOne(ctx, query.ByID("c1"))
	require.NoError(t, err)
	assert.Equal(t, document.String("coach@example.com"), doc["email"],
		"accompanying set ops are skipped along with the unmatched update")
}

func TestCollection_UpdateOne_NoMatch(t *testing.T) {
	ctx := context.Background()
	players := New().Collection("players")

	mut, err := players.UpdateOne(ctx, query.ByID("ghost"),
		query.Set(document.Document{"verified": document.Bool(true)}))
	require.NoError(t, err)
	assert.Equal(t, backend.MutateResult{}, mut)
}

func TestCollection_DeleteOne(t *testing.T) {
	ctx := context.Background()
	players := New().Collection("players")
	for _, id := range []string{"p1", "p2"} {
		_, err := players.InsertOne(ctx, playerDoc(id, "2026", false))
		require.NoError(t, err)
	}

	del, err := players.DeleteOne(ctx, query.Eq("grad_class", document.String("2026")))
	require.NoError(t, err)
	assert.Equal(t, int64(1), del.DeletedCount, "only the first match is removed")

	remaining := collect(t, players.Find(ctx, nil, nil))
	require.Len(t, remaining, 1)
	assert.Equal(t, document.String("p2"), remaining[0]["id"])

	del, err = players.DeleteOne(ctx, query.ByID("ghost"))
	require.NoError(t, err)
	assert.Zero(t, del.DeletedCount)
}

func TestCollection_UniqueIndex_Insert(t *testing.T) {
	ctx := context.Background()
	players := New().Collection("players")
	require.NoError(t, players.CreateIndex(ctx, "player_key", true))

	first := document.Document{"id": document.String("p1"), "player_key": document.String("jo-ramirez-2026")}
	_, err := players.InsertOne(ctx, first)
	require.NoError(t, err)

	dup := document.Document{"id": document.String("p2"), "player_key": document.String("jo-ramirez-2026")}
	_, err = players.InsertOne(ctx, dup)
	require.Error(t, err)
	assert.True(t, backend.IsDuplicateKey(err))

	n, err := players.CountDocuments(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "a rejected insert leaves the collection untouched")
}

func TestCollection_UniqueIndex_SkipsMissingAndNull(t *testing.T) {
	ctx := context.Background()
	players := New().Collection("players")
	require.NoError(t, players.CreateIndex(ctx, "player_key", true))

	for i := 0; i < 2; i++ {
		_, err := players.InsertOne(ctx, document.Document{"id": document.String(fmt.Sprintf("m%d", i))})
		require.NoError(t, err, "missing indexed field never collides")
	}
	for i := 0; i < 2; i++ {
		_, err := players.InsertOne(ctx, document.Document{
			"id":         document.String(fmt.Sprintf("n%d", i)),
			"player_key": document.Null{},
		})
		require.NoError(t, err, "null indexed field never collides")
	}
}

func TestCollection_UniqueIndex_Update(t *testing.T) {
	ctx := context.Background()
	players := New().Collection("players")
	require.NoError(t, players.CreateIndex(ctx, "player_key", true))

	for _, key := range []string{"key-a", "key-b"} {
		_, err := players.InsertOne(ctx, document.Document{
			"id":         document.String(key),
			"player_key": document.String(key),
		})
		require.NoError(t, err)
	}

	// Moving onto another document's key fails and changes nothing.
	_, err := players.UpdateOne(ctx, query.ByID("key-a"),
		query.Set(document.Document{"player_key": document.String("key-b")}))
	require.Error(t, err)
	assert.True(t, backend.IsDuplicateKey(err))

	doc, _, err := players.FindOne(ctx, query.ByID("key-a"))
	require.NoError(t, err)
	assert.Equal(t, document.String("key-a"), doc["player_key"])

	// Rewriting a document's own key to itself is not a collision.
	mut, err := players.UpdateOne(ctx, query.ByID("key-a"),
		query.Set(document.Document{"player_key": document.String("key-a")}))
	require.NoError(t, err)
	assert.Equal(t, int64(1), mut.MatchedCount)
}

func TestCollection_ConcurrentUniqueInserts_ExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	players := New().Collection("players")
	require.NoError(t, players.CreateIndex(ctx, "player_key", true))

	const writers = 16
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = players.InsertOne(ctx, document.Document{
				"id":         document.String(fmt.Sprintf("w%d", i)),
				"player_key": document.String("contested"),
			})
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.True(t, backend.IsDuplicateKey(err))
		}
	}
	assert.Equal(t, 1, wins)

	n, err := players.CountDocuments(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCollection_Find_SortSkipLimit(t *testing.T) {
	ctx := context.Background()
	players := New().Collection("players")
	for _, p := range []struct {
		id   string
		rank int64
	}{{"c", 3}, {"a", 1}, {"d", 4}, {"b", 2}} {
		_, err := players.InsertOne(ctx, document.Document{
			"id":   document.String(p.id),
			"rank": document.Int(p.rank),
		})
		require.NoError(t, err)
	}

	docs := collect(t, players.Find(ctx, nil, &backend.FindOptions{Sort: "rank", Skip: 1, Limit: 2}))
	require.Len(t, docs, 2)
	assert.Equal(t, document.String("b"), docs[0]["id"])
	assert.Equal(t, document.String("c"), docs[1]["id"])

	desc := collect(t, players.Find(ctx, nil, &backend.FindOptions{Sort: "rank", Desc: true, Limit: 1}))
	require.Len(t, desc, 1)
	assert.Equal(t, document.String("d"), desc[0]["id"])

	// Count ignores paging.
	n, err := players.CountDocuments(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestCollection_Find_AbandonedSequence(t *testing.T) {
	ctx := context.Background()
	players := New().Collection("players")
	for i := 0; i < 5; i++ {
		_, err := players.InsertOne(ctx, playerDoc(fmt.Sprintf("p%d", i), "2026", false))
		require.NoError(t, err)
	}

	for range players.Find(ctx, nil, nil) {
		break
	}

	// The store stays fully usable after an abandoned stream.
	_, err := players.InsertOne(ctx, playerDoc("p9", "2026", false))
	require.NoError(t, err)
}
