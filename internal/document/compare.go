package document

import "time"

// Equal reports deep equality of two values.
//
// Numeric values compare across Int and Float (Int(1) equals Float(1.0)),
// matching the loose numeric equality of the upstream data. All other
// cross-type comparisons are unequal. Timestamps compare by instant, not
// by wall-clock representation.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Int:
		switch bv := b.(type) {
		case Int:
			return av == bv
		case Float:
			return float64(av) == float64(bv)
		}
		return false
	case Float:
		switch bv := b.(type) {
		case Float:
			return av == bv
		case Int:
			return float64(av) == float64(bv)
		}
		return false
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Time:
		bv, ok := b.(Time)
		return ok && time.Time(av).Equal(time.Time(bv))
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Document:
		bv, ok := b.(Document)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, present := bv[k]
			if !present || !Equal(v, w) {
				return false
			}
		}
		return true
	}
	return false
}

// Compare orders two values, returning (-1|0|1, true) when the pair is
// comparable and (0, false) otherwise.
//
// Comparable pairs: numeric with numeric (Int and Float mix), string with
// string, time with time, bool with bool (false < true). Nulls, arrays,
// and documents have no ordering; ordered predicates (GT, GTE) and sorts
// simply fail to match or fall back to insertion order for them.
func Compare(a, b Value) (int, bool) {
	if an, ok := asFloat(a); ok {
		if bn, ok := asFloat(b); ok {
			return cmpOrdered(an, bn), true
		}
		return 0, false
	}
	switch av := a.(type) {
	case String:
		bv, ok := b.(String)
		if !ok {
			return 0, false
		}
		return cmpOrdered(av, bv), true
	case Time:
		bv, ok := b.(Time)
		if !ok {
			return 0, false
		}
		at, bt := time.Time(av), time.Time(bv)
		switch {
		case at.Before(bt):
			return -1, true
		case at.After(bt):
			return 1, true
		}
		return 0, true
	case Bool:
		bv, ok := b.(Bool)
		if !ok {
			return 0, false
		}
		return cmpOrdered(b2i(av), b2i(bv)), true
	}
	return 0, false
}

func asFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case Int:
		return float64(n), true
	case Float:
		return float64(n), true
	}
	return 0, false
}

func cmpOrdered[T interface{ ~float64 | ~string | ~int }](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func b2i(b Bool) int {
	if b {
		return 1
	}
	return 0
}
