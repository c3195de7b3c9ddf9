// Package cg orchestrates the column-generation loop of spec.md §4.7:
// alternate master LP solves and SPPRC pricer calls, merge new columns
// into the pool, periodically attempt an integer incumbent, and stop on
// the first of several deterministic conditions.
//
// The loop shape -- iterate until no further improving move, bounded by
// both an iteration cap and a convergence window -- mirrors the
// teacher's flow/dinic.go main loop (repeat BFS-layer + blocking-flow
// until no augmenting path remains, or a cap is hit).
package cg

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rosterforge/shiftcore/blockindex"
	"github.com/rosterforge/shiftcore/column"
	"github.com/rosterforge/shiftcore/masterlp"
	"github.com/rosterforge/shiftcore/pricer"
)

// Config carries the column-generation loop's own tuning knobs, narrowed
// from config.SolverConfig by the caller (solver package).
type Config struct {
	MaxIterations              int
	NewColumnsCapPerIter       int
	RestrictedMIPEveryNIter    int
	StoppingWindow             int
	StoppingTauFraction        float64
	PoolRepairSupportThreshold int
	PoolMaxSize                int
	RegularizationWeight       float64
	ArtificialCost             float64

	Pricer pricer.Config
}

// IncumbentResult is the periodic restricted-MIP callback's outcome:
// the selected column IDs and whether they cover every tour.
type IncumbentResult struct {
	SelectedColumnIDs []string
	Covered           bool
}

// IncumbentFunc is invoked every Config.RestrictedMIPEveryNIter
// iterations with the current pool snapshot and the tour universe.
// Kept as a caller-supplied function (rather than cg importing
// restrictedmip directly) so the dependency graph stays one-directional:
// solver wires restrictedmip.Solve in as this callback.
type IncumbentFunc func(pool *column.Pool, tourIDs []string) (IncumbentResult, bool)

// Result is what one Run call produces: the grown pool, the final
// master LP solve, iteration count, stop reason, the most recent
// incumbent (if any onIncumbent call found one), and the telemetry history
// spec.md §6 asks the caller to surface (cg_iterations, pool_size_history,
// lp_obj_history).
type Result struct {
	Pool            *column.Pool
	LastMaster      masterlp.Result
	Iterations      int
	StopReason      string
	Incumbent       *IncumbentResult
	PoolSizeHistory []int
	LPObjHistory    []float64
}

// Stop reason constants, surfaced in evidence bundles and logs.
const (
	StopNoImprovingColumns = "no_negative_reduced_cost"
	StopConverged          = "lp_objective_converged"
	StopIterationCap       = "iteration_cap"
	StopContextDone        = "context_done"
)

// Run executes the CG loop against idx's block pool over tourIDs,
// calling onIncumbent (if non-nil) every Config.RestrictedMIPEveryNIter
// iterations.
func Run(ctx context.Context, idx *blockindex.Index, tourIDs []string, cfg Config, onIncumbent IncumbentFunc) (Result, error) {
	pool := column.NewPool(cfg.PoolMaxSize)

	for _, c := range SeedSingletons(idx) {
		pool.Add(c, 0)
	}
	for _, c := range SeedGreedy(idx, cfg.Pricer.MaxWorkDays, cfg.Pricer.MinRestMinutes, cfg.Pricer.WeekendWrapCountsGapDay) {
		pool.Add(c, 0)
	}

	sortedTourIDs := append([]string(nil), tourIDs...)
	sort.Strings(sortedTourIDs)

	var history []float64
	var poolSizeHistory []int
	var last masterlp.Result
	var incumbent *IncumbentResult
	reason := StopIterationCap

	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = 1
	}

	iter := 0
	for iter = 1; iter <= maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			reason = StopContextDone
			break
		}

		res, err := masterlp.Solve(pool.All(), sortedTourIDs, cfg.RegularizationWeight, cfg.ArtificialCost)
		if err != nil {
			return Result{}, fmt.Errorf("cg: master lp iteration %d: %w", iter, err)
		}
		last = res
		history = append(history, res.Objective)

		for colID := range res.Primal {
			pool.MarkActive(colID, iter)
		}

		newCols, err := pricer.Price(ctx, idx, res.Duals, cfg.Pricer)
		if err != nil {
			if ctx.Err() != nil {
				reason = StopContextDone
				break
			}
			return Result{}, fmt.Errorf("cg: pricer iteration %d: %w", iter, err)
		}

		colCap := cfg.NewColumnsCapPerIter
		if colCap > 0 && len(newCols) > colCap {
			newCols = newCols[:colCap]
		}

		added := 0
		for _, c := range newCols {
			if pool.Add(c, iter) {
				added++
			}
		}
		poolSizeHistory = append(poolSizeHistory, pool.Len())

		if cfg.RestrictedMIPEveryNIter > 0 && iter%cfg.RestrictedMIPEveryNIter == 0 && onIncumbent != nil {
			if inc, ok := onIncumbent(pool, sortedTourIDs); ok {
				incumbent = &inc
			}
		}

		if added == 0 {
			reason = StopNoImprovingColumns
			break
		}
		if converged(history, cfg.StoppingWindow, cfg.StoppingTauFraction) {
			reason = StopConverged
			break
		}
	}

	if iter > maxIter {
		iter = maxIter
	}

	return Result{
		Pool:            pool,
		LastMaster:      last,
		Iterations:      iter,
		StopReason:      reason,
		Incumbent:       incumbent,
		PoolSizeHistory: poolSizeHistory,
		LPObjHistory:    history,
	}, nil
}

// converged implements spec.md §4.7's "(b) LP obj changed by < tau over
// window W" stopping condition.
func converged(history []float64, window int, tauFraction float64) bool {
	if window <= 0 || len(history) <= window {
		return false
	}
	old := history[len(history)-1-window]
	cur := history[len(history)-1]

	denom := math.Abs(old)
	if denom < 1 {
		denom = 1
	}
	return math.Abs(cur-old)/denom < tauFraction
}
