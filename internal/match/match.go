// Package match implements the reference semantics of the store: a pure
// predicate evaluator and a pure update applier over the document model.
//
// The in-memory backend runs directly on this package; the table-service
// adapter re-applies it client-side to correct for filters its HTTP API
// cannot push down. The document-database adapter must stay observationally
// identical to it, which the translation tests enforce.
package match

import (
	"log/slog"
	"regexp"
	"sync"

	"github.com/hoopwithher/polystore/internal/document"
	"github.com/hoopwithher/polystore/internal/query"
)

// Matches reports whether doc satisfies pred. Total and side-effect-free.
//
// Edge cases, all deliberate:
//   - nil predicate matches every document
//   - EQ against Null matches a missing field; NE is EQ's exact complement
//   - GT/GTE never match incomparable pairs (missing fields included)
//   - RegexCI fails on missing or non-string fields
//   - InSet treats an absent or non-array field as an empty array (never
//     matches); NotInSet is its complement (always matches those)
//   - empty And is vacuously true, empty Or vacuously false
func Matches(doc document.Document, pred query.Predicate) bool {
	switch node := pred.(type) {
	case nil:
		return true
	case query.Field:
		return matchField(doc, node)
	case *query.Field:
		return matchField(doc, *node)
	case query.And:
		return matchAll(doc, node.Children)
	case *query.And:
		return matchAll(doc, node.Children)
	case query.Or:
		return matchAny(doc, node.Children)
	case *query.Or:
		return matchAny(doc, node.Children)
	}
	// Unreachable: Predicate is sealed.
	return false
}

func matchAll(doc document.Document, children []query.Predicate) bool {
	for _, child := range children {
		if !Matches(doc, child) {
			return false
		}
	}
	return true
}

func matchAny(doc document.Document, children []query.Predicate) bool {
	for _, child := range children {
		if Matches(doc, child) {
			return true
		}
	}
	return false
}

func matchField(doc document.Document, f query.Field) bool {
	val, present := doc[f.Name]

	switch f.Op {
	case query.EQ:
		return matchEq(val, present, f.Operand)

	case query.NE:
		return !matchEq(val, present, f.Operand)

	case query.GT:
		if !present {
			return false
		}
		c, ok := document.Compare(val, f.Operand)
		return ok && c > 0

	case query.GTE:
		if !present {
			return false
		}
		c, ok := document.Compare(val, f.Operand)
		return ok && c >= 0

	case query.RegexCI:
		if !present {
			return false
		}
		s, ok := val.(document.String)
		if !ok {
			return false
		}
		pattern, ok := f.Operand.(document.String)
		if !ok {
			return false
		}
		re, err := compileCI(string(pattern))
		if err != nil {
			return false
		}
		return re.MatchString(string(s))

	case query.InSet:
		arr, ok := val.(document.Array)
		if !present || !ok {
			return false
		}
		for _, elem := range arr {
			if document.Equal(elem, f.Operand) {
				return true
			}
		}
		return false

	case query.NotInSet:
		arr, ok := val.(document.Array)
		if !present || !ok {
			return true
		}
		for _, elem := range arr {
			if document.Equal(elem, f.Operand) {
				return false
			}
		}
		return true
	}

	return false
}

// matchEq implements EQ: a missing field equals Null and nothing else.
func matchEq(val document.Value, present bool, operand document.Value) bool {
	if !present {
		_, operandIsNull := operand.(document.Null)
		return operandIsNull
	}
	return document.Equal(val, operand)
}

var (
	regexCacheMu sync.Mutex
	regexCache   = map[string]compiledPattern{}
)

type compiledPattern struct {
	re  *regexp.Regexp
	err error
}

// compileCI compiles pattern with case folding, caching compiled patterns.
// Filter builders tend to reuse a handful of patterns per process (school
// and name searches upstream), so the cache stays small.
//
// An invalid pattern is cached too and logged once; every evaluation
// against it is a non-match rather than a panic or a per-document log
// line.
func compileCI(pattern string) (*regexp.Regexp, error) {
	regexCacheMu.Lock()
	defer regexCacheMu.Unlock()
	if c, ok := regexCache[pattern]; ok {
		return c.re, c.err
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		slog.Warn("invalid pattern in filter evaluates to no-match", "pattern", pattern, "error", err)
	}
	regexCache[pattern] = compiledPattern{re: re, err: err}
	return re, err
}
