package pricer

import (
	"sort"

	"github.com/rosterforge/shiftcore/block"
	"github.com/rosterforge/shiftcore/column"
	"github.com/rosterforge/shiftcore/tour"
)

// label is one partial (or complete) roster candidate explored by the
// SPPRC pricer, generalizing the teacher's dijkstra.nodeItem from a
// scalar distance to a full resource vector (spec.md §4.6).
type label struct {
	// blocksByDay holds the chosen block ID for each worked weekday;
	// days off are simply absent.
	blocksByDay map[tour.Weekday]string
	covered     map[string]struct{} // tour IDs covered so far

	cumWorkMinutes int
	daysWorked     int
	lastDayIdx     int  // -1 until a first block is taken
	lastEnd        int  // week-axis minute the last taken block ends
	lastWasTriple  bool

	firstDayIdx    int  // -1 until a first block is taken
	firstStart     int  // week-axis minute the first taken block starts
	firstWasTriple bool

	// accumulatedCost is the SPPRC resource literally defined by spec.md
	// §4.6: "(day-count so far) - sum(pi_t) over tours covered". It is
	// used only to order and dominate labels during expansion; the
	// true column reduced cost (1 - sum(pi_t), matching the master LP's
	// c_r=1 headcount objective) is recomputed once at emission time by
	// the caller -- see pricer.go's finalize.
	accumulatedCost float64
}

func newInitialLabel() *label {
	return &label{
		blocksByDay: make(map[tour.Weekday]string),
		covered:     make(map[string]struct{}),
		lastDayIdx:  -1,
		firstDayIdx: -1,
	}
}

// clone returns a deep-enough copy for extension (maps copied, since
// sibling labels at the same frontier must not alias each other's state).
func (l *label) clone() *label {
	nl := &label{
		blocksByDay:     make(map[tour.Weekday]string, len(l.blocksByDay)+1),
		covered:         make(map[string]struct{}, len(l.covered)),
		cumWorkMinutes:  l.cumWorkMinutes,
		daysWorked:      l.daysWorked,
		lastDayIdx:      l.lastDayIdx,
		lastEnd:         l.lastEnd,
		lastWasTriple:   l.lastWasTriple,
		firstDayIdx:     l.firstDayIdx,
		firstStart:      l.firstStart,
		firstWasTriple:  l.firstWasTriple,
		accumulatedCost: l.accumulatedCost,
	}
	for d, id := range l.blocksByDay {
		nl.blocksByDay[d] = id
	}
	for t := range l.covered {
		nl.covered[t] = struct{}{}
	}
	return nl
}

// extend returns a new label representing this label plus b worked on
// day d, with its reduced-cost resource updated by spec.md §4.6's
// formula (day-count increments by 1, duals for b's tours subtracted).
func (l *label) extend(d tour.Weekday, b block.Block, duals map[string]float64) *label {
	nl := l.clone()
	if nl.daysWorked == 0 {
		nl.firstDayIdx = int(d)
		nl.firstStart = b.FirstStart
		nl.firstWasTriple = b.Size() == 3
	}
	nl.blocksByDay[d] = b.ID
	nl.cumWorkMinutes += b.WorkMinutes
	nl.daysWorked++
	nl.lastDayIdx = int(d)
	nl.lastEnd = b.LastEnd
	nl.lastWasTriple = b.Size() == 3
	nl.accumulatedCost += 1.0
	for _, tid := range b.TourIDs() {
		nl.covered[tid] = struct{}{}
		nl.accumulatedCost -= duals[tid]
	}
	return nl
}

// dominates reports whether l weakly dominates other on cost and every
// resource, strictly on at least one, and covers a superset of tours --
// the exact rule of spec.md §4.6.
func (l *label) dominates(other *label) bool {
	if l.accumulatedCost > other.accumulatedCost+1e-9 {
		return false
	}
	if l.cumWorkMinutes > other.cumWorkMinutes {
		return false
	}
	if l.daysWorked > other.daysWorked {
		return false
	}
	if l.lastDayIdx > other.lastDayIdx || l.lastEnd > other.lastEnd {
		return false
	}
	if l.lastWasTriple && !other.lastWasTriple {
		return false
	}
	for t := range other.covered {
		if _, ok := l.covered[t]; !ok {
			return false
		}
	}

	strictlyBetter := l.accumulatedCost < other.accumulatedCost-1e-9 ||
		l.cumWorkMinutes < other.cumWorkMinutes ||
		l.daysWorked < other.daysWorked ||
		l.lastDayIdx < other.lastDayIdx ||
		l.lastEnd < other.lastEnd ||
		(!l.lastWasTriple && other.lastWasTriple) ||
		len(l.covered) > len(other.covered)

	return strictlyBetter
}

// toColumn materializes a complete label into a column.Column. The
// caller (finalize) only invokes this on labels that passed the weekly
// work-minute band check, so no further validation happens here --
// construction from admissible per-day blocks is all column.New needs.
func (l *label) toColumn(idx blockLookup) column.Column {
	blocks := make(map[tour.Weekday]block.Block, len(l.blocksByDay))
	for d, bid := range l.blocksByDay {
		if b, ok := idx.Block(bid); ok {
			blocks[d] = b
		}
	}
	return column.New(blocks)
}

// blockLookup is the minimal interface label.toColumn needs from
// blockindex.Index, kept narrow to avoid a label -> blockindex import
// for anything beyond this one lookup.
type blockLookup interface {
	Block(id string) (block.Block, bool)
}

// pruneDominated removes dominated labels from a frontier, keeping the
// result sorted by accumulatedCost; labels of equal cost have no
// secondary sort key.
func pruneDominated(labels []*label) []*label {
	sort.Slice(labels, func(i, j int) bool {
		return labels[i].accumulatedCost < labels[j].accumulatedCost
	})

	kept := make([]*label, 0, len(labels))
	for _, cand := range labels {
		dominated := false
		for _, k := range kept {
			if k.dominates(cand) {
				dominated = true
				break
			}
		}
		if !dominated {
			kept = append(kept, cand)
		}
	}
	return kept
}
