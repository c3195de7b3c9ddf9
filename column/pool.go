package column

import "sort"

// Pool is a de-duplicated collection of Columns keyed by
// (sorted block-ids), bounded in size with an eviction policy (spec.md
// §3, §5: "oldest least-used columns are evicted (LRU by last
// participation in LP basis)").
type Pool struct {
	byKey map[string]*entry
	maxSize int
}

type entry struct {
	col        Column
	lastActiveIter int // last CG iteration this column was in the LP basis
	insertedAt     int
}

// NewPool returns an empty Pool bounded at maxSize columns. maxSize <= 0
// means unbounded.
func NewPool(maxSize int) *Pool {
	return &Pool{byKey: make(map[string]*entry), maxSize: maxSize}
}

// Len returns the current column count.
func (p *Pool) Len() int { return len(p.byKey) }

// Add inserts col if its key is new, returning true if it was actually
// added (false if it was already present -- the pool grows monotonically
// during CG modulo the pruning below, spec.md §3). iter is the current
// CG iteration, recorded for LRU eviction purposes.
func (p *Pool) Add(col Column, iter int) bool {
	key := col.Key()
	if _, exists := p.byKey[key]; exists {
		return false
	}

	p.byKey[key] = &entry{col: col, lastActiveIter: iter, insertedAt: iter}
	if p.maxSize > 0 && len(p.byKey) > p.maxSize {
		p.evictLRU()
	}

	return true
}

// MarkActive records that col participated in the current LP basis at
// iteration iter, refreshing its LRU recency.
func (p *Pool) MarkActive(colID string, iter int) {
	for _, e := range p.byKey {
		if e.col.ID == colID {
			e.lastActiveIter = iter
			return
		}
	}
}

// evictLRU drops the single least-recently-active column, breaking ties
// by the lexicographically smallest roster ID for determinism.
func (p *Pool) evictLRU() {
	var victimKey string
	var victim *entry
	for k, e := range p.byKey {
		if victim == nil ||
			e.lastActiveIter < victim.lastActiveIter ||
			(e.lastActiveIter == victim.lastActiveIter && e.col.ID < victim.col.ID) {
			victim = e
			victimKey = k
		}
	}
	if victimKey != "" {
		delete(p.byKey, victimKey)
	}
}

// All returns every column currently in the pool, sorted by roster ID
// for deterministic downstream iteration.
func (p *Pool) All() []Column {
	out := make([]Column, 0, len(p.byKey))
	for _, e := range p.byKey {
		out = append(out, e.col)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ColumnsCoveringTour returns every pool column that covers tourID,
// sorted by roster ID.
func (p *Pool) ColumnsCoveringTour(tourID string) []Column {
	var out []Column
	for _, e := range p.byKey {
		if e.col.CoversTour(tourID) {
			out = append(out, e.col)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Support returns, for each tour ID, the number of pool columns covering
// it -- used by the CG loop's pool-repair trigger (spec.md §4.7).
func (p *Pool) Support(tourIDs []string) map[string]int {
	support := make(map[string]int, len(tourIDs))
	for _, id := range tourIDs {
		support[id] = 0
	}
	for _, e := range p.byKey {
		for tid := range e.col.TourIDs {
			if _, tracked := support[tid]; tracked {
				support[tid]++
			}
		}
	}
	return support
}
