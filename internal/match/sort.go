package match

import (
	"sort"

	"github.com/hoopwithher/polystore/internal/document"
)

// SortStable orders docs in place by the named field, ascending or
// descending. The sort is stable with respect to the incoming order, so
// ties - and incomparable pairs, which count as ties - keep insertion
// order. Documents missing the field sort before documents that have it
// (after it when descending).
func SortStable(docs []document.Document, field string, desc bool) {
	sort.SliceStable(docs, func(i, j int) bool {
		c := compareDocs(docs[i], docs[j], field)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareDocs(a, b document.Document, field string) int {
	av, aok := a[field]
	bv, bok := b[field]
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}
	c, ok := document.Compare(av, bv)
	if !ok {
		return 0
	}
	return c
}

// Page applies skip then limit to docs, returning a subslice.
// A negative or zero limit means no limit.
func Page(docs []document.Document, skip, limit int64) []document.Document {
	if skip > 0 {
		if skip >= int64(len(docs)) {
			return nil
		}
		docs = docs[skip:]
	}
	if limit > 0 && limit < int64(len(docs)) {
		docs = docs[:limit]
	}
	return docs
}
