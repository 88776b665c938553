package tablestore

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopwithher/polystore/internal/document"
	"github.com/hoopwithher/polystore/internal/query"
)

func TestCompileFilter_Golden(t *testing.T) {
	tests := []struct {
		name      string
		pred      query.Predicate
		pushedAll bool
	}{
		{
			"conjunction",
			query.AllOf(
				query.Eq("grad_class", document.String("2026")),
				query.Eq("verified", document.Bool(true)),
			),
			true,
		},
		{
			"null_scan",
			query.Eq("coach", document.Null{}),
			true,
		},
		{
			"time_literal",
			query.Eq("created_at", document.Time(time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC))),
			true,
		},
		{
			// The regex stays client-side; only the equality pushes down.
			"partial_push",
			query.AllOf(
				query.Eq("grad_class", document.String("2026")),
				query.Regex("player_name", "ramirez"),
			),
			false,
		},
		{
			"spaces_escape",
			query.Eq("school", document.String("Lincoln High")),
			true,
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, pushedAll, err := compileFilter(tt.pred)
			require.NoError(t, err)
			assert.Equal(t, tt.pushedAll, pushedAll)
			g.Assert(t, tt.name, []byte(params.Encode()))
		})
	}
}

func TestCompileFilter_NothingPushable(t *testing.T) {
	tests := []struct {
		name string
		pred query.Predicate
	}{
		{"or", query.AnyOf(query.ByID("p1"), query.ByID("p2"))},
		{"regex", query.Regex("player_name", "jo")},
		{"ordered", query.Gt("height", document.Float(1.8))},
		{"in_set", query.Contains("positions", document.String("guard"))},
		{"composite_operand", query.Eq("tags", document.Array{document.String("x")})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, pushedAll, err := compileFilter(tt.pred)
			require.NoError(t, err)
			assert.False(t, pushedAll)
			assert.Empty(t, params)
		})
	}
}

func TestCompileFilter_NilMatchesEverything(t *testing.T) {
	params, pushedAll, err := compileFilter(nil)
	require.NoError(t, err)
	assert.True(t, pushedAll)
	assert.Empty(t, params)
}

func TestEncodeScalar(t *testing.T) {
	tests := []struct {
		name string
		in   document.Value
		want string
	}{
		{"bool", document.Bool(true), "true"},
		{"int", document.Int(23), "23"},
		{"float", document.Float(1.85), "1.85"},
		{"string", document.String("2026"), "2026"},
		{"time", document.Time(time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)), "2026-08-25T10:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encodeScalar(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
