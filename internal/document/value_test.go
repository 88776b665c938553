package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqual_Scalars(t *testing.T) {
	assert.True(t, Equal(Null{}, Null{}))
	assert.True(t, Equal(Bool(true), Bool(true)))
	assert.False(t, Equal(Bool(true), Bool(false)))
	assert.True(t, Equal(String("a"), String("a")))
	assert.False(t, Equal(String("a"), String("A")), "field values are case-sensitive")

	// Numeric equality crosses Int and Float.
	assert.True(t, Equal(Int(1), Float(1.0)))
	assert.True(t, Equal(Float(2.0), Int(2)))
	assert.False(t, Equal(Int(1), Float(1.5)))

	// Other cross-type pairs are unequal, never panics.
	assert.False(t, Equal(String("1"), Int(1)))
	assert.False(t, Equal(Null{}, Bool(false)))
}

func TestEqual_Time(t *testing.T) {
	instant := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	elsewhere := instant.In(time.FixedZone("plus2", 2*3600))

	assert.True(t, Equal(Time(instant), Time(elsewhere)), "same instant, different zone")
	assert.False(t, Equal(Time(instant), Time(instant.Add(time.Second))))
}

func TestEqual_Composite(t *testing.T) {
	a := Document{
		"id":   String("p1"),
		"tags": Array{String("guard"), Int(3)},
		"meta": Document{"city": String("Austin")},
	}
	b := Document{
		"id":   String("p1"),
		"tags": Array{String("guard"), Int(3)},
		"meta": Document{"city": String("Austin")},
	}
	assert.True(t, Equal(a, b))

	b["tags"] = Array{Int(3), String("guard")}
	assert.False(t, Equal(a, b), "array order matters")
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want int
		ok   bool
	}{
		{"int_int", Int(1), Int(2), -1, true},
		{"int_float", Int(2), Float(1.5), 1, true},
		{"string", String("a"), String("b"), -1, true},
		{"bool", Bool(false), Bool(true), -1, true},
		{"time", Time(time.Unix(10, 0)), Time(time.Unix(20, 0)), -1, true},
		{"incomparable", String("1"), Int(1), 0, false},
		{"null", Null{}, Null{}, 0, false},
		{"array", Array{}, Array{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Compare(tt.a, tt.b)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestClone_Isolation(t *testing.T) {
	orig := Document{
		"id":   String("p1"),
		"tags": Array{String("guard")},
		"meta": Document{"city": String("Austin")},
	}
	clone := orig.Clone()

	clone["id"] = String("p2")
	clone["tags"] = append(clone["tags"].(Array), String("forward"))
	clone["meta"].(Document)["city"] = String("Dallas")

	assert.Equal(t, String("p1"), orig["id"])
	assert.Len(t, orig["tags"].(Array), 1)
	assert.Equal(t, String("Austin"), orig["meta"].(Document)["city"])
}

func TestJSON_RoundTrip(t *testing.T) {
	orig := Document{
		"id":       String("p1"),
		"verified": Bool(false),
		"height":   Float(1.85),
		"jersey":   Int(23),
		"coach":    Null{},
		"tags":     Array{String("guard"), Int(3)},
		"meta":     Document{"city": String("Austin")},
	}

	data, err := orig.MarshalJSON()
	require.NoError(t, err)

	var back Document
	require.NoError(t, back.UnmarshalJSON(data))
	assert.True(t, Equal(orig, back), "round trip must preserve every field")

	// Int stays Int, Float stays Float.
	assert.IsType(t, Int(0), back["jersey"])
	assert.IsType(t, Float(0), back["height"])
}

func TestJSON_Deterministic(t *testing.T) {
	doc := Document{"b": Int(2), "a": Int(1), "c": Int(3)}
	first, err := doc.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":2,"c":3}`, string(first))
	assert.Equal(t, `{"a":1,"b":2,"c":3}`, string(first), "keys are sorted")
}

func TestJSON_TimeRoundTrip(t *testing.T) {
	instant := time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)
	doc := Document{"created_at": Time(instant)}

	data, err := doc.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"created_at":"2026-08-25T10:30:00Z"}`, string(data))

	var back Document
	require.NoError(t, back.UnmarshalJSON(data))
	ts, ok := back["created_at"].(Time)
	require.True(t, ok, "RFC 3339 strings decode back into timestamps")
	assert.True(t, instant.Equal(ts.Std()))
}

func TestJSON_PlainStringsStayStrings(t *testing.T) {
	for _, s := range []string{"2026", "Lincoln High", "2026-08-25", "p1"} {
		val, err := UnmarshalValue([]byte(`"` + s + `"`))
		require.NoError(t, err)
		assert.IsType(t, String(""), val, "%q must not be coerced", s)
	}
}

func TestJSON_RFC3339StringBecomesTime(t *testing.T) {
	// A genuine string in strict RFC 3339 form is indistinguishable from
	// a stored timestamp on JSON transports, so it decodes as Time and a
	// round trip through a JSON backend does not preserve its type.
	doc := Document{"note": String("2026-01-02T15:04:05Z")}

	data, err := doc.MarshalJSON()
	require.NoError(t, err)
	var back Document
	require.NoError(t, back.UnmarshalJSON(data))

	ts, ok := back["note"].(Time)
	require.True(t, ok)
	assert.True(t, ts.Std().Equal(time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)))
	assert.False(t, Equal(doc, back))
}

func TestDocument_ID(t *testing.T) {
	id, ok := Document{"id": String("p1")}.ID()
	assert.True(t, ok)
	assert.Equal(t, "p1", id)

	_, ok = Document{"name": String("x")}.ID()
	assert.False(t, ok)

	_, ok = Document{"id": Int(7)}.ID()
	assert.False(t, ok, "non-string ids are not addressable")
}
