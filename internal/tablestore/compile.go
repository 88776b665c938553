package tablestore

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/hoopwithher/polystore/internal/document"
	"github.com/hoopwithher/polystore/internal/query"
)

// compileFilter compiles the pushable fragment of a predicate into table
// query parameters.
//
// The table service understands only per-column filters chained
// conjunctively, so the pushable fragment is: scalar EQ predicates
// reachable through And nodes. Everything else (Or subtrees, regex,
// ordered and array operators, EQ on composite operands) stays behind
// and is re-applied client-side by the reference evaluator.
//
// pushedAll reports whether the parameters capture the whole predicate;
// when false the caller must re-filter the fetched rows, and counts
// cannot be answered server-side.
func compileFilter(pred query.Predicate) (params url.Values, pushedAll bool, err error) {
	params = url.Values{}
	pushedAll, err = compileInto(params, pred)
	if err != nil {
		return nil, false, err
	}
	return params, pushedAll, nil
}

func compileInto(params url.Values, pred query.Predicate) (bool, error) {
	switch node := pred.(type) {
	case nil:
		return true, nil

	case query.Field:
		return compileField(params, node)
	case *query.Field:
		return compileField(params, *node)

	case query.And:
		return compileConjunction(params, node.Children)
	case *query.And:
		return compileConjunction(params, node.Children)

	case query.Or, *query.Or:
		// No OR on the wire; the whole subtree is client-side.
		return false, nil

	default:
		return false, fmt.Errorf("unsupported predicate type: %T", pred)
	}
}

func compileConjunction(params url.Values, children []query.Predicate) (bool, error) {
	all := true
	for _, child := range children {
		pushed, err := compileInto(params, child)
		if err != nil {
			return false, err
		}
		all = all && pushed
	}
	return all, nil
}

func compileField(params url.Values, f query.Field) (bool, error) {
	if f.Op != query.EQ {
		return false, nil
	}
	switch operand := f.Operand.(type) {
	case document.Null:
		params.Add(f.Name, "is.null")
		return true, nil
	case document.Bool, document.Int, document.Float, document.String, document.Time:
		lit, err := encodeScalar(operand)
		if err != nil {
			return false, err
		}
		params.Add(f.Name, "eq."+lit)
		return true, nil
	default:
		// Array and document operands have no column literal form.
		return false, nil
	}
}

// encodeScalar renders a scalar value as a filter literal. URL escaping
// is the query encoder's job, not this function's.
func encodeScalar(v document.Value) (string, error) {
	switch val := v.(type) {
	case document.Bool:
		return strconv.FormatBool(bool(val)), nil
	case document.Int:
		return strconv.FormatInt(int64(val), 10), nil
	case document.Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64), nil
	case document.String:
		return string(val), nil
	case document.Time:
		return time.Time(val).UTC().Format(time.RFC3339Nano), nil
	default:
		return "", fmt.Errorf("no literal form for %T", v)
	}
}
