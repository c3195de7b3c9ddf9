// Package detset provides a small deterministic string set: the
// map[string]struct{} + sort.Strings idiom used throughout shiftcore
// wherever "covered so far" or "seen before" must be tracked as a set
// but still walked or serialized in a stable order -- the same pattern
// column.Column.Key() and restrictedmip's covered/remaining tracking
// each reimplemented independently before this package existed.
package detset

import (
	"sort"
	"strings"
)

// Set is a deduplicated collection of strings with deterministic
// iteration via Sorted.
type Set struct {
	m map[string]struct{}
}

// New returns a Set seeded with items (may be empty).
func New(items ...string) *Set {
	s := &Set{m: make(map[string]struct{}, len(items))}
	for _, it := range items {
		s.m[it] = struct{}{}
	}
	return s
}

// Add inserts item, a no-op if already present.
func (s *Set) Add(item string) { s.m[item] = struct{}{} }

// Remove deletes item, a no-op if absent.
func (s *Set) Remove(item string) { delete(s.m, item) }

// Has reports whether item is in the set.
func (s *Set) Has(item string) bool {
	_, ok := s.m[item]
	return ok
}

// Len returns the set's size.
func (s *Set) Len() int { return len(s.m) }

// Sorted returns the set's members in ascending lexicographic order.
func (s *Set) Sorted() []string {
	out := make([]string, 0, len(s.m))
	for k := range s.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Key joins the set's sorted members with "|", the composite-key scheme
// column.Column.Key() and column.deriveRosterID both use to turn a set
// of IDs into a single stable, comparable string.
func (s *Set) Key() string {
	return strings.Join(s.Sorted(), "|")
}
