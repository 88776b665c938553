package query

import "github.com/hoopwithher/polystore/internal/document"

// Predicate represents a filter condition over documents.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in the evaluator and the backend translators.
//
// Predicate types:
//   - Field: one field compared to an operand with an Operator
//   - And: all children must match (empty And matches everything)
//   - Or: at least one child must match (empty Or matches nothing)
//
// A nil Predicate matches every document - the "list all" query.
//
// Two Field predicates naming the same field inside one And are a strict
// conjunction; callers that mean replacement must pre-merge same-field
// constraints before constructing the predicate.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Operator identifies the comparison a Field predicate applies.
type Operator string

const (
	// EQ matches when the field's value equals the operand. A missing
	// field never equals a non-null operand, but does equal Null.
	EQ Operator = "eq"

	// NE is the exact complement of EQ: a missing field is NE any
	// non-null operand.
	NE Operator = "ne"

	// GT matches when the field's value orders strictly after the
	// operand. Incomparable pairs (including missing fields) never match.
	GT Operator = "gt"

	// GTE matches when the field's value orders at or after the operand.
	GTE Operator = "gte"

	// RegexCI matches when the field is a string matching the operand
	// pattern, ignoring case. A missing or non-string field fails.
	RegexCI Operator = "regex_ci"

	// InSet treats the field as an array and matches when the operand is
	// an element of it. An absent or non-array field is an empty array,
	// so InSet never matches it.
	InSet Operator = "in_set"

	// NotInSet is the complement of InSet: an absent or non-array field
	// always matches.
	NotInSet Operator = "not_in_set"
)

// Field compares one document field against an operand.
//
// Example:
//
//	Field{Name: "verified", Op: EQ, Operand: document.Bool(true)}
type Field struct {
	Name    string         // Field name, case-sensitive
	Op      Operator       // Comparison to apply
	Operand document.Value // Literal operand
}

func (Field) predicateNode() {}

// And is a conjunction of predicates. An empty And is vacuously true.
type And struct {
	Children []Predicate
}

func (And) predicateNode() {}

// Or is a disjunction of predicates. An empty Or is vacuously false.
type Or struct {
	Children []Predicate
}

func (Or) predicateNode() {}

// Eq builds a Field equality predicate.
func Eq(name string, operand document.Value) Field {
	return Field{Name: name, Op: EQ, Operand: operand}
}

// Ne builds a Field inequality predicate.
func Ne(name string, operand document.Value) Field {
	return Field{Name: name, Op: NE, Operand: operand}
}

// Gt builds a strictly-greater Field predicate.
func Gt(name string, operand document.Value) Field {
	return Field{Name: name, Op: GT, Operand: operand}
}

// Gte builds a greater-or-equal Field predicate.
func Gte(name string, operand document.Value) Field {
	return Field{Name: name, Op: GTE, Operand: operand}
}

// Regex builds a case-insensitive pattern predicate.
func Regex(name, pattern string) Field {
	return Field{Name: name, Op: RegexCI, Operand: document.String(pattern)}
}

// Contains builds an array-membership predicate.
func Contains(name string, operand document.Value) Field {
	return Field{Name: name, Op: InSet, Operand: operand}
}

// NotContains builds a negated array-membership predicate.
func NotContains(name string, operand document.Value) Field {
	return Field{Name: name, Op: NotInSet, Operand: operand}
}

// AllOf builds a conjunction.
func AllOf(children ...Predicate) And {
	return And{Children: children}
}

// AnyOf builds a disjunction.
func AnyOf(children ...Predicate) Or {
	return Or{Children: children}
}

// ByID builds the canonical single-document predicate.
func ByID(id string) Field {
	return Eq("id", document.String(id))
}
