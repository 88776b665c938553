package match

import (
	"fmt"

	"github.com/hoopwithher/polystore/internal/document"
	"github.com/hoopwithher/polystore/internal/query"
)

// Apply returns a copy of doc with the update spec applied. The input
// document is never mutated; fields not named by any operation are
// preserved unchanged.
//
// Array element predicates (RemoveFromArray.Match, PositionalSet.Match)
// are evaluated against document-valued elements; scalar elements never
// match. This mirrors the upstream usage, where array fields hold
// embedded documents ({"player_id": ..., "notes": ...}).
func Apply(doc document.Document, spec query.UpdateSpec) (document.Document, error) {
	out := doc.Clone()
	if out == nil {
		out = document.Document{}
	}

	for i, op := range spec.Ops {
		if err := applyOp(out, op); err != nil {
			return nil, fmt.Errorf("update op %d: %w", i, err)
		}
	}
	return out, nil
}

// HasPositionalTargets reports whether doc can satisfy every positional
// operation in spec: each PositionalSet needs at least one array element
// its Match accepts. The element condition participates in document
// matching, exactly as the document database folds it into the update
// filter, so UpdateOne skips documents failing this instead of counting
// them as matched-but-unmodified.
func HasPositionalTargets(doc document.Document, spec query.UpdateSpec) bool {
	for _, op := range spec.Ops {
		ps, ok := op.(query.PositionalSet)
		if !ok {
			continue
		}
		arr, ok := doc[ps.Field].(document.Array)
		if !ok {
			return false
		}
		found := false
		for _, elem := range arr {
			if elemMatches(elem, ps.Match) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func applyOp(doc document.Document, op query.Op) error {
	switch o := op.(type) {
	case query.SetFields:
		for k, v := range o.Fields {
			doc[k] = document.CloneValue(v)
		}
		return nil

	case query.AppendToArray:
		arr, err := arrayField(doc, o.Field)
		if err != nil {
			return err
		}
		doc[o.Field] = append(arr, document.CloneValue(o.Value))
		return nil

	case query.RemoveFromArray:
		if _, present := doc[o.Field]; !present {
			// Removing from a field that does not exist is a no-op; it
			// must not create the field.
			return nil
		}
		arr, err := arrayField(doc, o.Field)
		if err != nil {
			return err
		}
		kept := make(document.Array, 0, len(arr))
		for _, elem := range arr {
			if elemMatches(elem, o.Match) {
				continue
			}
			kept = append(kept, elem)
		}
		doc[o.Field] = kept
		return nil

	case query.PositionalSet:
		if _, present := doc[o.Field]; !present {
			return nil
		}
		arr, err := arrayField(doc, o.Field)
		if err != nil {
			return err
		}
		// Only the first matching element is updated.
		for i, elem := range arr {
			if !elemMatches(elem, o.Match) {
				continue
			}
			sub := elem.(document.Document)
			for k, v := range o.Set {
				sub[k] = document.CloneValue(v)
			}
			arr[i] = sub
			break
		}
		doc[o.Field] = arr
		return nil
	}

	// Unreachable: Op is sealed.
	return fmt.Errorf("unknown update op type: %T", op)
}

// arrayField fetches doc[name] as an array. Missing and explicit-null
// fields become empty arrays (array operations create the field); any
// other type is an error rather than a silent overwrite.
func arrayField(doc document.Document, name string) (document.Array, error) {
	val, present := doc[name]
	if !present {
		return document.Array{}, nil
	}
	switch v := val.(type) {
	case document.Array:
		return v, nil
	case document.Null:
		return document.Array{}, nil
	default:
		return nil, fmt.Errorf("field %q is %T, not an array", name, val)
	}
}

func elemMatches(elem document.Value, pred query.Predicate) bool {
	sub, ok := elem.(document.Document)
	if !ok {
		return false
	}
	return Matches(sub, pred)
}
