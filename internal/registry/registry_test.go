package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopwithher/polystore/internal/backend"
	"github.com/hoopwithher/polystore/internal/config"
	"github.com/hoopwithher/polystore/internal/document"
	"github.com/hoopwithher/polystore/internal/memstore"
	"github.com/hoopwithher/polystore/internal/query"
)

func TestRegistry_Handle(t *testing.T) {
	r := New(memstore.New(), []string{"players", "coaches"})

	players, err := r.Handle("players")
	require.NoError(t, err)
	assert.Equal(t, "players", players.Name())

	again, err := r.Handle("players")
	require.NoError(t, err)
	assert.Same(t, players, again, "one name yields one handle instance")

	coaches, err := r.Handle("coaches")
	require.NoError(t, err)
	assert.NotSame(t, players, coaches)
}

func TestRegistry_Handle_UndeclaredName(t *testing.T) {
	r := New(memstore.New(), []string{"players"})

	_, err := r.Handle("playerz")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCollection)
	assert.Contains(t, err.Error(), `"playerz"`)
}

func TestRegistry_EnsureIndexes(t *testing.T) {
	ctx := context.Background()
	r := New(memstore.New(), []string{"players"})

	specs := []config.CollectionSpec{{
		Name:    "players",
		Indexes: []config.IndexSpec{{Field: "player_key", Unique: true}},
	}}
	require.NoError(t, r.EnsureIndexes(ctx, specs))

	players, err := r.Handle("players")
	require.NoError(t, err)
	_, err = players.InsertOne(ctx, document.Document{
		"id":         document.String("p1"),
		"player_key": document.String("k"),
	})
	require.NoError(t, err)
	_, err = players.InsertOne(ctx, document.Document{
		"id":         document.String("p2"),
		"player_key": document.String("k"),
	})
	assert.True(t, backend.IsDuplicateKey(err), "ensured index enforces uniqueness")
}

func TestRegistry_EnsureIndexes_UndeclaredCollection(t *testing.T) {
	r := New(memstore.New(), []string{"players"})
	err := r.EnsureIndexes(context.Background(), []config.CollectionSpec{{
		Name:    "ghosts",
		Indexes: []config.IndexSpec{{Field: "x", Unique: true}},
	}})
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestOpenBackend_Memory(t *testing.T) {
	be, err := OpenBackend(context.Background(), config.Config{Backend: "memory"})
	require.NoError(t, err)
	assert.Equal(t, backend.KindMemory, be.Kind())
}

func TestOpenBackend_Unknown(t *testing.T) {
	_, err := OpenBackend(context.Background(), config.Config{Backend: "cassandra"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cassandra")
}

func TestOpen_MemoryWithIndexes(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{
		Backend: "memory",
		Collections: []config.CollectionSpec{
			{Name: "players", Indexes: []config.IndexSpec{{Field: "player_key", Unique: true}}},
			{Name: "coaches"},
		},
	}

	r, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer r.Backend().Close(ctx)

	players, err := r.Handle("players")
	require.NoError(t, err)
	_, err = players.InsertOne(ctx, document.Document{"id": document.String("p1")})
	require.NoError(t, err)

	doc, found, err := players.FindOne(ctx, query.ByID("p1"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, document.String("p1"), doc["id"])
}
