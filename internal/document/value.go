package document

import (
	"slices"
	"time"
)

// Value is a sealed interface representing the types a document field may hold.
// Only Null, Bool, Int, Float, String, Time, Array, and Document implement it.
//
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in the evaluator and the backend translators.
type Value interface {
	value() // Sealed - only types in this package implement it
}

// Null represents an explicit null field value.
// Using an explicit type ensures all Values satisfy the sealed interface;
// a nil Value is never stored in a Document.
type Null struct{}

func (Null) value() {}

// Bool represents a boolean field value.
type Bool bool

func (Bool) value() {}

// Int represents an integer field value. Always int64.
type Int int64

func (Int) value() {}

// Float represents a floating-point field value.
type Float float64

func (Float) value() {}

// String represents a string field value.
type String string

func (String) value() {}

// Time represents a timestamp field value.
//
// Timestamps are carried with their full precision in process and as
// RFC 3339 strings on JSON transports (the table service stores them as
// text columns, exactly as the upstream application does).
type Time time.Time

func (Time) value() {}

// Std returns the underlying time.Time.
func (t Time) Std() time.Time { return time.Time(t) }

// Array represents an ordered sequence of values.
type Array []Value

func (Array) value() {}

// Document represents a mapping from field name to value. Field names are
// case-sensitive and unique. A Document is itself a Value, so documents
// nest arbitrarily.
//
// Iteration order of the underlying map is not deterministic; use
// SortedKeys for any output that must be stable.
type Document map[string]Value

func (Document) value() {}

// SortedKeys returns the document's field names in lexicographic order.
// Used for deterministic marshaling and diagnostics.
func (d Document) SortedKeys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Clone returns a deep copy of the document. Backends hand out clones so
// callers can never mutate stored state through a returned document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue returns a deep copy of a value.
// Scalars are copied by value; arrays and documents are copied recursively.
func CloneValue(v Value) Value {
	switch val := v.(type) {
	case Array:
		out := make(Array, len(val))
		for i, elem := range val {
			out[i] = CloneValue(elem)
		}
		return out
	case Document:
		return val.Clone()
	default:
		return v
	}
}

// ID returns the document's "id" field as a string, if present.
// The store never generates identifiers; the application layer populates
// this field before insertion.
func (d Document) ID() (string, bool) {
	v, ok := d["id"]
	if !ok {
		return "", false
	}
	s, ok := v.(String)
	if !ok {
		return "", false
	}
	return string(s), true
}
