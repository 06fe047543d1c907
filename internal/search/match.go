package search

import "strings"

// matcher resolves query occurrences in a document. Text and query are
// case-folded once per recompute when the search is case-insensitive.
type matcher struct {
	text  string
	query string
	wrap  bool
}

// newMatcher prepares a matcher for the given document and query.
func newMatcher(text, query string, caseSensitive, wrap bool) matcher {
	if !caseSensitive {
		text = strings.ToLower(text)
		query = strings.ToLower(query)
	}
	return matcher{text: text, query: query, wrap: wrap}
}

// next returns the first occurrence starting at or after from.
// The wrapped result reports that the match was found only by retrying
// from the start of the document.
func (m matcher) next(from int) (start int, wrapped, ok bool) {
	if m.query == "" {
		return 0, false, false
	}
	if from < 0 {
		from = 0
	}
	if from <= len(m.text) {
		if idx := strings.Index(m.text[from:], m.query); idx >= 0 {
			return from + idx, false, true
		}
	}
	if m.wrap {
		if idx := strings.Index(m.text, m.query); idx >= 0 {
			return idx, true, true
		}
	}
	return 0, false, false
}

// prev returns the last occurrence ending at or before from, retrying
// from the end of the document when wrap-around is enabled.
func (m matcher) prev(from int) (start int, wrapped, ok bool) {
	if m.query == "" {
		return 0, false, false
	}
	if from > len(m.text) {
		from = len(m.text)
	}
	if from >= 0 {
		if idx := strings.LastIndex(m.text[:from], m.query); idx >= 0 {
			return idx, false, true
		}
	}
	if m.wrap {
		if idx := strings.LastIndex(m.text, m.query); idx >= 0 {
			return idx, true, true
		}
	}
	return 0, false, false
}

// find resolves in the session direction.
func (m matcher) find(from int, backwards bool) (start int, wrapped, ok bool) {
	if backwards {
		return m.prev(from)
	}
	return m.next(from)
}

// len returns the query length in bytes. Case folding preserves length
// for the ASCII queries keyboards produce.
func (m matcher) len() int {
	return len(m.query)
}
