package mongostore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hoopwithher/polystore/internal/document"
)

func TestDecodeDocument_DropsDriverID(t *testing.T) {
	doc, err := decodeDocument(bson.D{
		{Key: "_id", Value: primitive.NewObjectID()},
		{Key: "id", Value: "p1"},
		{Key: "verified", Value: false},
	})
	require.NoError(t, err)

	_, present := doc["_id"]
	assert.False(t, present)
	assert.Equal(t, document.String("p1"), doc["id"])
	assert.Equal(t, document.Bool(false), doc["verified"])
}

func TestDecodeValue_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want document.Value
	}{
		{"nil", nil, document.Null{}},
		{"null", primitive.Null{}, document.Null{}},
		{"bool", true, document.Bool(true)},
		{"int32", int32(7), document.Int(7)},
		{"int64", int64(7), document.Int(7)},
		{"float", 1.85, document.Float(1.85)},
		{"string", "2026", document.String("2026")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeValue_DateTime(t *testing.T) {
	instant := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	got, err := decodeValue(primitive.NewDateTimeFromTime(instant))
	require.NoError(t, err)

	ts, ok := got.(document.Time)
	require.True(t, ok)
	assert.True(t, instant.Equal(ts.Std()))
}

func TestDecodeValue_Composite(t *testing.T) {
	got, err := decodeValue(bson.D{
		{Key: "saved_players", Value: primitive.A{
			bson.D{{Key: "player_id", Value: "p1"}},
		}},
	})
	require.NoError(t, err)

	want := document.Document{
		"saved_players": document.Array{
			document.Document{"player_id": document.String("p1")},
		},
	}
	assert.True(t, document.Equal(want, got))
}

func TestDecodeValue_RoundTripsTranslate(t *testing.T) {
	orig := document.Document{
		"id":       document.String("p1"),
		"jersey":   document.Int(23),
		"height":   document.Float(1.85),
		"coach":    document.Null{},
		"verified": document.Bool(true),
		"tags":     document.Array{document.String("guard")},
	}

	wire, err := translateValue(orig)
	require.NoError(t, err)
	back, err := decodeValue(wire)
	require.NoError(t, err)
	assert.True(t, document.Equal(orig, back))
}
