// Package lns refines an integral incumbent roster set via Large
// Neighborhood Search (spec.md §4.9): four destroy/repair operators,
// cycled in a fixed deterministic order, each accepted only if it does
// not regress the lexicographic acceptance tuple of metrics.go.
//
// The operator-registry-plus-fixed-order-cycle shape mirrors the
// teacher's tsp package, which keeps 2-opt, 3-opt and Or-opt as
// independent local-search passes behind a common Options-driven
// dispatch rather than one monolithic search function.
package lns

import (
	"context"
	"math/rand"

	"github.com/rosterforge/shiftcore/column"
	"github.com/rosterforge/shiftcore/restrictedmip"
)

// Config carries the LNS refiner's tuning knobs, narrowed from
// config.SolverConfig by the caller.
type Config struct {
	Rounds           int
	DestroyByDriverK int
	Seed             uint64

	Metrics       MetricsConfig
	RestrictedMIP restrictedmip.Config
}

// Result is the refiner's outcome: the (possibly improved) roster set,
// its final metrics, and the sequence of operator names that were
// actually accepted, in application order.
type Result struct {
	Selected   []column.Column
	Metrics    Metrics
	AppliedLog []string
	RoundsRun  int
}

// Run cycles the four operators over incumbent for cfg.Rounds rounds,
// pulling replacement material from pool, and returns the best
// (lexicographically smallest-or-equal metrics) roster set found.
// Run never regresses: a candidate replaces the state only when its
// metrics are lexicographically no worse (ties are accepted), and if no
// candidate is accepted the result equals the input.
func Run(ctx context.Context, incumbent []column.Column, pool *column.Pool, tourIDs []string, cfg Config) (Result, error) {
	state := append([]column.Column(nil), incumbent...)
	metrics := Compute(state, cfg.Metrics)

	rng := rand.New(rand.NewSource(int64(cfg.Seed)))
	ops := operators()

	var appliedLog []string
	rounds := cfg.Rounds
	if rounds <= 0 {
		rounds = 1
	}

	round := 0
	for round = 0; round < rounds; round++ {
		if err := ctx.Err(); err != nil {
			break
		}

		improvedThisRound := false
		for _, op := range ops {
			if err := ctx.Err(); err != nil {
				break
			}

			candidate, ok, err := op.run(ctx, state, pool, tourIDs, cfg, rng)
			if err != nil {
				return Result{}, err
			}
			if !ok {
				continue
			}

			candMetrics := Compute(candidate, cfg.Metrics)
			if candMetrics.LessOrEqual(metrics) {
				state = candidate
				metrics = candMetrics
				appliedLog = append(appliedLog, op.name)
				improvedThisRound = true
			}
		}

		if !improvedThisRound {
			break
		}
	}

	return Result{
		Selected:   state,
		Metrics:    metrics,
		AppliedLog: appliedLog,
		RoundsRun:  round,
	}, nil
}
