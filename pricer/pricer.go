// Package pricer implements the column generator's resource-constrained
// shortest-path subproblem (SPPRC, spec.md §4.6): given the master LP's
// dual vector, find weekly block chains with negative reduced cost to
// feed back into the column pool.
//
// The day-by-day label expansion generalizes the teacher's
// dijkstra package (runner struct, lazy relaxation, functional-options
// Config) from a scalar shortest-path distance to a multi-resource
// label, and its per-day fan-out is parallelized the way flow/dinic.go
// parallelizes BFS layering: a bounded worker pool guarded by a
// semaphore, wired up with golang.org/x/sync/errgroup so the first
// worker error (or context cancellation) stops every sibling.
package pricer

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/rosterforge/shiftcore/block"
	"github.com/rosterforge/shiftcore/blockindex"
	"github.com/rosterforge/shiftcore/column"
	"github.com/rosterforge/shiftcore/masterlp"
	"github.com/rosterforge/shiftcore/tour"
)

// Config carries the narrow subset of config.SolverConfig the pricer
// needs, independent of the config package to avoid an import cycle
// (solver is the only package that converts between the two).
type Config struct {
	MinRestMinutes   int
	MaxWorkDays      int
	WeeklyMinMinutes int
	WeeklyMaxMinutes int

	// WeekendWrapCountsGapDay resolves spec.md §9's SAT->MON rest open
	// question (see tour.WrapRestMinutes): whether the cross-weekend
	// wrap rest check (spec.md §4.4, enforced in finalize via
	// wrapAdmissible) counts every intervening off day toward the gap,
	// or credits only the literal SAT->MON two-day span.
	WeekendWrapCountsGapDay bool

	// MaxLabelsPerDay bounds the frontier kept after each day's
	// expansion (spec.md §4.6's pricing budget K, PricingBudgetK in
	// config.SolverConfig). <= 0 means unbounded.
	MaxLabelsPerDay int

	// TopK is the number of best (most negative reduced cost) columns
	// the pricer returns per call.
	TopK int

	// WorkerCount bounds per-day parallel label expansion; <= 0 means
	// runtime.GOMAXPROCS(0).
	WorkerCount int

	// EpsilonReducedCost is the strictness threshold: a column is only
	// emitted if its true reduced cost < -EpsilonReducedCost.
	EpsilonReducedCost float64
}

var weekdays = []tour.Weekday{tour.MON, tour.TUE, tour.WED, tour.THU, tour.FRI, tour.SAT, tour.SUN}

// Price runs the day-by-day SPPRC expansion against idx's retained
// blocks and duals, returning up to cfg.TopK candidate columns with
// negative reduced cost, sorted by reduced cost ascending (most
// attractive first) and then by roster ID for determinism.
func Price(ctx context.Context, idx *blockindex.Index, duals masterlp.DualVector, cfg Config) ([]column.Column, error) {
	frontier := []*label{newInitialLabel()}

	for _, d := range weekdays {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		blockIDs := idx.BlocksForDay(d)
		expanded, err := expandDay(ctx, frontier, d, blockIDs, idx, duals, cfg)
		if err != nil {
			return nil, err
		}

		frontier = pruneDominated(expanded)
		if cfg.MaxLabelsPerDay > 0 && len(frontier) > cfg.MaxLabelsPerDay {
			frontier = frontier[:cfg.MaxLabelsPerDay]
		}
	}

	return finalize(frontier, idx, duals, cfg), nil
}

// expandDay fans a day's candidate blocks out across frontier's labels
// concurrently (bounded by cfg.WorkerCount), merging results back in
// frontier-index order so the output does not depend on goroutine
// completion order.
func expandDay(ctx context.Context, frontier []*label, d tour.Weekday, blockIDs []string, idx *blockindex.Index, duals masterlp.DualVector, cfg Config) ([]*label, error) {
	results := make([][]*label, len(frontier))

	workers := cfg.WorkerCount
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	sem := semaphore.NewWeighted(int64(workers))
	g, gctx := errgroup.WithContext(ctx)

	for i, lb := range frontier {
		i, lb := i, lb
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			results[i] = expandLabel(lb, d, blockIDs, idx, duals, cfg)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]*label, 0, 2*len(frontier))
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged, nil
}

// expandLabel returns lb carried forward unchanged (the "day off"
// option) plus one extension per admissible block on day d.
func expandLabel(lb *label, d tour.Weekday, blockIDs []string, idx *blockindex.Index, duals masterlp.DualVector, cfg Config) []*label {
	out := make([]*label, 0, len(blockIDs)+1)
	out = append(out, lb)

	if cfg.MaxWorkDays > 0 && lb.daysWorked >= cfg.MaxWorkDays {
		return out
	}

	for _, bid := range blockIDs {
		b, ok := idx.Block(bid)
		if !ok {
			continue
		}
		if !restAdmissible(lb, b, cfg) {
			continue
		}
		if fatigueViolation(lb, b, d) {
			continue
		}
		out = append(out, lb.extend(d, b, duals))
	}

	return out
}

// restAdmissible checks spec.md §4.4's inter-day rest rule: no prior
// block means no constraint; otherwise the gap between the prior
// block's end and b's start (both on the shared week-minute axis) must
// meet MinRestMinutes. Gap (skipped) days are transparent to this
// check since lb.lastEnd only ever reflects the last *worked* day.
func restAdmissible(lb *label, b block.Block, cfg Config) bool {
	if lb.lastDayIdx < 0 {
		return true
	}
	rest := b.FirstStart - lb.lastEnd
	return rest >= cfg.MinRestMinutes
}

// fatigueViolation enforces spec.md §4.4's fatigue rule: two 3-tour
// blocks may not land on consecutive worked days. "Consecutive" means
// the immediately preceding calendar day, not merely the immediately
// preceding worked day -- a day off between them clears the rule.
func fatigueViolation(lb *label, b block.Block, d tour.Weekday) bool {
	if !lb.lastWasTriple || b.Size() != 3 {
		return false
	}
	return lb.lastDayIdx >= 0 && int(d) == lb.lastDayIdx+1
}

// wrapAdmissible checks spec.md §4.4's cross-weekend wrap rest and
// fatigue rule between a complete label's last worked day and its first
// worked day (the following cycle's occurrence). A label with fewer
// than two worked days has no wrap pair to check.
func wrapAdmissible(lb *label, cfg Config) bool {
	if lb.daysWorked < 2 {
		return true
	}

	lastDay := tour.Weekday(lb.lastDayIdx)
	firstDay := tour.Weekday(lb.firstDayIdx)

	rest := tour.WrapRestMinutes(
		lastDay, lb.lastEnd%tour.MinutesPerDay,
		firstDay, lb.firstStart%tour.MinutesPerDay,
		cfg.WeekendWrapCountsGapDay,
	)
	if rest < cfg.MinRestMinutes {
		return false
	}

	if lb.lastWasTriple && lb.firstWasTriple && tour.IsWeekendWrapFatiguePair(lastDay, firstDay) {
		return false
	}

	return true
}

// finalize filters complete labels by the weekly work-minute band and
// emits the cfg.TopK most attractive columns, ranked by each column's
// true reduced cost (1 - sum of duals over its covered tours, matching
// the master LP's c_r=1 headcount objective -- see label.go's doc
// comment on accumulatedCost for why this differs from the SPPRC
// resource used during expansion).
func finalize(frontier []*label, idx *blockindex.Index, duals masterlp.DualVector, cfg Config) []column.Column {
	type candidate struct {
		col         column.Column
		reducedCost float64
	}

	var candidates []candidate
	for _, lb := range frontier {
		if lb.daysWorked == 0 {
			continue
		}
		if cfg.WeeklyMinMinutes > 0 && lb.cumWorkMinutes < cfg.WeeklyMinMinutes {
			continue
		}
		if cfg.WeeklyMaxMinutes > 0 && lb.cumWorkMinutes > cfg.WeeklyMaxMinutes {
			continue
		}
		if !wrapAdmissible(lb, cfg) {
			continue
		}

		rc := 1.0
		for t := range lb.covered {
			rc -= duals[t]
		}
		if rc >= -cfg.EpsilonReducedCost {
			continue
		}

		candidates = append(candidates, candidate{col: lb.toColumn(idx), reducedCost: rc})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].reducedCost != candidates[j].reducedCost {
			return candidates[i].reducedCost < candidates[j].reducedCost
		}
		return candidates[i].col.ID < candidates[j].col.ID
	})

	k := cfg.TopK
	if k <= 0 || k > len(candidates) {
		k = len(candidates)
	}

	out := make([]column.Column, k)
	for i := 0; i < k; i++ {
		out[i] = candidates[i].col
	}
	return out
}
