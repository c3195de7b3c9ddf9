package cg

import (
	"sort"

	"github.com/rosterforge/shiftcore/block"
	"github.com/rosterforge/shiftcore/blockindex"
	"github.com/rosterforge/shiftcore/column"
	"github.com/rosterforge/shiftcore/tour"
)

var weekdays = []tour.Weekday{tour.MON, tour.TUE, tour.WED, tour.THU, tour.FRI, tour.SAT, tour.SUN}

// SeedSingletons returns one singleton column per tour with a retained
// singleton block, guaranteeing master-LP feasibility without
// artificials (spec.md §4.7's seed (a)).
func SeedSingletons(idx *blockindex.Index) []column.Column {
	var cols []column.Column
	for _, tourID := range idx.AllTourIDs() {
		for _, bid := range idx.BlocksForTour(tourID) {
			b, ok := idx.Block(bid)
			if ok && b.Size() == 1 {
				cols = append(cols, column.New(map[tour.Weekday]block.Block{b.Day: b}))
				break
			}
		}
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].ID < cols[j].ID })
	return cols
}

// chain is a partially built greedy roster.
type chain struct {
	blocks        map[tour.Weekday]block.Block
	lastDay       int
	lastEnd       int
	lastWasTriple bool
	daysWorked    int

	firstDay       int
	firstStart     int
	firstWasTriple bool
}

// SeedGreedy produces spec.md §4.7's seed (b): a nearest-neighbor
// chaining heuristic over the retained block pool. Blocks are visited
// day by day in (first-start, id) order -- the same deterministic
// ordering blockindex.Index already guarantees -- and each is appended
// to the first open chain it is admissible for, or starts a new chain,
// generalizing the teacher's tsp/matching.go greedy nearest-partner
// matching from pairing vertices to chaining blocks across days.
func SeedGreedy(idx *blockindex.Index, maxWorkDays, minRestMinutes int, weekendWrapCountsGapDay bool) []column.Column {
	var chains []*chain

	for _, d := range weekdays {
		for _, bid := range idx.BlocksForDay(d) {
			b, ok := idx.Block(bid)
			if !ok {
				continue
			}
			placed := false
			for _, ch := range chains {
				if _, already := ch.blocks[d]; already {
					continue
				}
				if maxWorkDays > 0 && ch.daysWorked >= maxWorkDays {
					continue
				}
				if ch.lastDay >= 0 && b.FirstStart-ch.lastEnd < minRestMinutes {
					continue
				}
				if ch.lastWasTriple && b.Size() == 3 && int(d) == ch.lastDay+1 {
					continue
				}
				ch.blocks[d] = b
				ch.lastDay = int(d)
				ch.lastEnd = b.LastEnd
				ch.lastWasTriple = b.Size() == 3
				ch.daysWorked++
				placed = true
				break
			}
			if !placed {
				chains = append(chains, &chain{
					blocks:        map[tour.Weekday]block.Block{d: b},
					lastDay:       int(d),
					lastEnd:       b.LastEnd,
					lastWasTriple: b.Size() == 3,
					daysWorked:    1,
					firstDay:      int(d),
					firstStart:    b.FirstStart,
					firstWasTriple: b.Size() == 3,
				})
			}
		}
	}

	cols := make([]column.Column, 0, len(chains))
	for _, ch := range chains {
		repairWeekendWrap(ch, minRestMinutes, weekendWrapCountsGapDay)
		cols = append(cols, column.New(ch.blocks))
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].ID < cols[j].ID })
	return cols
}

// repairWeekendWrap demotes blocks off the end of a greedily built chain
// until its cross-weekend wrap (spec.md §4.4, last worked day back to
// first worked day) satisfies rest and fatigue, or fewer than two days
// remain. The forward single-pass greedy above can only ever check
// same-week adjacency as it grows a chain day by day; the wrap pair is
// only known once the chain is complete, so it is checked here instead
// of mid-placement. Demoted blocks are simply dropped from this chain --
// SeedSingletons already guarantees every tour a fallback column, so
// losing a consolidation opportunity here costs nothing but column
// quality, never coverage.
func repairWeekendWrap(ch *chain, minRestMinutes int, weekendWrapCountsGapDay bool) {
	for len(ch.blocks) >= 2 {
		days := make([]tour.Weekday, 0, len(ch.blocks))
		for d := range ch.blocks {
			days = append(days, d)
		}
		sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

		first, last := ch.blocks[days[0]], ch.blocks[days[len(days)-1]]
		rest := tour.WrapRestMinutes(
			last.Day, last.LastEnd%tour.MinutesPerDay,
			first.Day, first.FirstStart%tour.MinutesPerDay,
			weekendWrapCountsGapDay,
		)
		fatigued := last.Size() == 3 && first.Size() == 3 && tour.IsWeekendWrapFatiguePair(last.Day, first.Day)
		if rest >= minRestMinutes && !fatigued {
			return
		}
		delete(ch.blocks, days[len(days)-1])
	}
}
