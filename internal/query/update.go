package query

import "github.com/hoopwithher/polystore/internal/document"

// Op represents one update operation inside an UpdateSpec.
//
// This is a sealed interface - only types in this package implement it.
//
// Op types:
//   - SetFields: overwrite named top-level fields
//   - AppendToArray: append one value to an array field
//   - RemoveFromArray: remove every matching element from an array field
//   - PositionalSet: update subfields of the first matching array element
//
// An update mutates only the fields its operations name; every other
// field of the target document is preserved unchanged.
type Op interface {
	updateOp() // Marker method - seals interface to this package
}

// SetFields overwrites the named fields with the given values, creating
// fields that do not exist yet.
type SetFields struct {
	Fields document.Document
}

func (SetFields) updateOp() {}

// AppendToArray appends Value to the array in Field, preserving existing
// element order. A missing field is created as a one-element array; a
// non-array field is an error.
type AppendToArray struct {
	Field string
	Value document.Value
}

func (AppendToArray) updateOp() {}

// RemoveFromArray removes every element of the array in Field that the
// Match predicate accepts. Elements are matched as documents; removing
// from a missing field is a no-op.
type RemoveFromArray struct {
	Field string
	Match Predicate
}

func (RemoveFromArray) updateOp() {}

// PositionalSet updates the first element of the array in Field that the
// Match predicate accepts, overwriting the element's subfields named in
// Set. All other elements are untouched.
//
// The element condition participates in document matching: UpdateOne
// treats a document whose Field array holds no accepted element as not
// matching at all (matchedCount 0, no operation applied), on every
// backend.
type PositionalSet struct {
	Field string
	Match Predicate
	Set   document.Document
}

func (PositionalSet) updateOp() {}

// UpdateSpec is an ordered list of update operations applied atomically
// to one document (atomically as far as the active backend allows; see
// the table-service adapter's documented read-modify-write window).
type UpdateSpec struct {
	Ops []Op
}

// Set builds an UpdateSpec with a single SetFields operation.
func Set(fields document.Document) UpdateSpec {
	return UpdateSpec{Ops: []Op{SetFields{Fields: fields}}}
}

// Push builds an UpdateSpec with a single AppendToArray operation.
func Push(field string, value document.Value) UpdateSpec {
	return UpdateSpec{Ops: []Op{AppendToArray{Field: field, Value: value}}}
}

// Pull builds an UpdateSpec with a single RemoveFromArray operation.
func Pull(field string, match Predicate) UpdateSpec {
	return UpdateSpec{Ops: []Op{RemoveFromArray{Field: field, Match: match}}}
}

// SetMatched builds an UpdateSpec with a single PositionalSet operation.
func SetMatched(field string, match Predicate, set document.Document) UpdateSpec {
	return UpdateSpec{Ops: []Op{PositionalSet{Field: field, Match: match, Set: set}}}
}
