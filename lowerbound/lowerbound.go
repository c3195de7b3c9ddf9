// Package lowerbound computes three independent, deterministic lower
// bounds on the required driver count (spec.md §4.3): a fleet-peak
// sweep, an hours bound, and a chain bound approximated by maximum
// matching on the day-to-day admissibility graph. None of the bounds
// are used to prune feasibility -- they gauge solution quality only.
package lowerbound

import (
	"math"
	"sort"

	"github.com/rosterforge/shiftcore/block"
	"github.com/rosterforge/shiftcore/tour"
)

// Result holds the three component bounds and their maximum, as spec.md
// §4.3's `final_lb = max(fleet_lb, hours_lb, chain_lb)` requires.
type Result struct {
	FleetLB int
	HoursLB int
	ChainLB int
	Final   int
}

// Config carries the few knobs the lower-bound calculator needs,
// independent from the rest of config.SolverConfig so this package has
// no import-graph dependency on config.
type Config struct {
	MaxWeeklyMinutes int
	MinRestMinutes   int
}

// Compute runs all three bounds over tours and the already-built block
// pool (the chain bound needs admissible blocks, not raw tours).
func Compute(tours []tour.Tour, pool block.Pool, cfg Config) Result {
	fleet := fleetLB(tours)
	hours := hoursLB(tours, cfg.MaxWeeklyMinutes)
	chain := chainLB(pool, cfg.MinRestMinutes)

	return Result{
		FleetLB: fleet,
		HoursLB: hours,
		ChainLB: chain,
		Final:   max3(fleet, hours, chain),
	}
}

func max3(a, b, c int) int {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

// event is a sweep-line point: +1 at a tour start, -1 at its end.
type event struct {
	minute int
	delta  int
}

// fleetLB performs a classic sweep over (+1 start, -1 end) events,
// sorted by time with end-before-start at ties (so a tour ending the
// instant another starts does not count as an overlap), and returns the
// peak concurrent tour count across the week.
func fleetLB(tours []tour.Tour) int {
	if len(tours) == 0 {
		return 0
	}

	events := make([]event, 0, 2*len(tours))
	for _, t := range tours {
		events = append(events, event{t.StartMinute, +1}, event{t.EndMinute, -1})
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].minute != events[j].minute {
			return events[i].minute < events[j].minute
		}
		// end (-1) sorts before start (+1) at the same instant.
		return events[i].delta < events[j].delta
	})

	peak, cur := 0, 0
	for _, e := range events {
		cur += e.delta
		if cur > peak {
			peak = cur
		}
	}

	return peak
}

// hoursLB returns ceil(total_work_minutes / MAX_WEEKLY_MINUTES).
func hoursLB(tours []tour.Tour, maxWeeklyMinutes int) int {
	if maxWeeklyMinutes <= 0 {
		return 0
	}
	total := 0
	for _, t := range tours {
		total += t.Duration()
	}

	return int(math.Ceil(float64(total) / float64(maxWeeklyMinutes)))
}

// chainLB approximates minimum path cover on the day-partitioned block
// DAG (node = block, edge = admissible next-day chain) by maximum
// bipartite matching between consecutive days, following the same
// deterministic-greedy discipline as the teacher's
// tsp/matching.go:greedyMatch (tie-break: by rest slack, then by
// smaller block ID). Minimum path cover on a DAG equals
// |nodes| - |maximum matching|; we compute a greedy lower bound on that
// matching, which gives a valid (possibly loose) lower bound on the true
// path cover, consistent with spec.md §4.3's "Approximated by maximum
// matching on the day-to-day bipartite graph".
func chainLB(pool block.Pool, minRest int) int {
	totalBlocks := 0
	for _, blocks := range pool.ByDay {
		totalBlocks += len(blocks)
	}
	if totalBlocks == 0 {
		return 0
	}

	matched := 0
	days := []tour.Weekday{tour.MON, tour.TUE, tour.WED, tour.THU, tour.FRI, tour.SAT, tour.SUN}

	usedNext := map[string]bool{}
	for i := 0; i < len(days)-1; i++ {
		cur := sortedByFirstStart(pool.ByDay[days[i]])
		next := sortedByFirstStart(pool.ByDay[days[i+1]])

		for _, a := range cur {
			for _, b := range next {
				if usedNext[b.ID] {
					continue
				}
				rest := b.FirstStart - a.LastEnd
				if rest >= minRest {
					usedNext[b.ID] = true
					matched++
					break
				}
			}
		}
	}

	return totalBlocks - matched
}

func sortedByFirstStart(blocks []block.Block) []block.Block {
	out := append([]block.Block(nil), blocks...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstStart != out[j].FirstStart {
			return out[i].FirstStart < out[j].FirstStart
		}
		return out[i].ID < out[j].ID
	})
	return out
}
