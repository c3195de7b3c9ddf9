// Package restrictedmip restores integrality over the column pool
// (spec.md §4.8): given the pool (or a cap-bounded subset), select a
// binary set of columns that covers every tour exactly once.
//
// There is no off-the-shelf MIP solver in the dependency stack, so this
// package follows the spec's own warm-start recipe instead of a from-
// scratch branch-and-bound: solve the LP relaxation (reusing masterlp),
// round by ceiling-highest-fractional-first, repair any gap by
// swap-and-cover, and -- if a repair attempt still leaves tours
// uncovered -- retry with a reshuffled tie-break order a bounded number
// of times via avast/retry-go, in the spirit of the teacher's
// tsp/bb.go soft-time-limited search: a deterministic, budget-aware
// search for a good-enough integral solution rather than a proof of
// optimality.
package restrictedmip

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"

	retry "github.com/avast/retry-go"

	"github.com/rosterforge/shiftcore/column"
	"github.com/rosterforge/shiftcore/internal/detset"
	"github.com/rosterforge/shiftcore/masterlp"
)

// ErrInfeasibleUnderCap is returned when no selection of the capped
// column subset covers every tour, after exhausting every warm-restart
// attempt (spec.md §4.8's INFEASIBLE_UNDER_CAP outcome).
var ErrInfeasibleUnderCap = errors.New("restrictedmip: infeasible under column cap")

// Config carries the restricted-MIP pass's own tuning knobs, narrowed
// from config.SolverConfig by the caller.
type Config struct {
	VarCap               int
	Seed                 uint64
	MaxWarmRestarts      uint
	RegularizationWeight float64
	ArtificialCost       float64
}

// Result is the restricted-MIP pass's outcome.
type Result struct {
	SelectedColumnIDs []string
	Covered           bool
	UncoveredTourIDs  []string
}

// Solve selects a binary covering subset of cols over tourIDs. cols may
// exceed cfg.VarCap; Solve deterministically caps it first.
func Solve(ctx context.Context, cols []column.Column, tourIDs []string, cfg Config) (Result, error) {
	subset := selectSubset(cols, cfg.VarCap)
	sortedTours := append([]string(nil), tourIDs...)
	sort.Strings(sortedTours)

	if len(sortedTours) == 0 {
		return Result{Covered: true}, nil
	}

	relax, err := masterlp.Solve(subset, sortedTours, cfg.RegularizationWeight, cfg.ArtificialCost)
	if err != nil {
		return Result{}, fmt.Errorf("restrictedmip: lp relaxation: %w", err)
	}

	byID := make(map[string]column.Column, len(subset))
	for _, c := range subset {
		byID[c.ID] = c
	}

	var result Result
	rng := rand.New(rand.NewSource(int64(cfg.Seed)))

	attempts := cfg.MaxWarmRestarts
	if attempts == 0 {
		attempts = 1
	}

	attemptErr := retry.Do(
		func() error {
			if err := ctx.Err(); err != nil {
				return retry.Unrecoverable(err)
			}

			order := roundingOrder(subset, relax.Primal, rng)
			selected, uncovered := greedyCover(order, sortedTours)
			selected, uncovered = repairSwapAndCover(selected, uncovered, byID, sortedTours)

			if len(uncovered) > 0 {
				result = Result{Covered: false, UncoveredTourIDs: uncovered}
				return fmt.Errorf("%w: %d tours uncovered", ErrInfeasibleUnderCap, len(uncovered))
			}

			result = Result{SelectedColumnIDs: sortedIDs(selected), Covered: true}
			return nil
		},
		retry.Attempts(attempts),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(0),
	)

	if attemptErr != nil && !result.Covered {
		return result, fmt.Errorf("%w", ErrInfeasibleUnderCap)
	}

	return result, nil
}

// selectSubset caps cols to at most varCap entries. Preference order is
// documented, not optimal: columns covering more tours first (a crude
// diversity proxy -- fewer large columns means fewer variables are
// needed to reach full coverage), then lexicographically by ID for
// determinism. <= 0 means unbounded.
func selectSubset(cols []column.Column, varCap int) []column.Column {
	out := append([]column.Column(nil), cols...)
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].TourIDs) != len(out[j].TourIDs) {
			return len(out[i].TourIDs) > len(out[j].TourIDs)
		}
		return out[i].ID < out[j].ID
	})
	if varCap > 0 && len(out) > varCap {
		out = out[:varCap]
	}
	return out
}

// roundingOrder implements "ceiling on highest-fractional first": sort
// subset by descending LP primal value (columns the relaxation already
// favors most get selected first), with any columns absent from the
// relaxation's basis (primal 0) shuffled in a low-priority, seeded-
// deterministic tail so repeated warm restarts explore different
// completions without losing overall determinism per seed.
func roundingOrder(subset []column.Column, primal map[string]float64, rng *rand.Rand) []column.Column {
	out := append([]column.Column(nil), subset...)
	sort.Slice(out, func(i, j int) bool {
		pi, pj := primal[out[i].ID], primal[out[j].ID]
		if pi != pj {
			return pi > pj
		}
		return out[i].ID < out[j].ID
	})

	// Within the zero-primal tail, apply a seeded shuffle so consecutive
	// warm-restart attempts try different completions deterministically.
	tailStart := 0
	for tailStart < len(out) && primal[out[tailStart].ID] > 1e-9 {
		tailStart++
	}
	tail := out[tailStart:]
	rng.Shuffle(len(tail), func(i, j int) { tail[i], tail[j] = tail[j], tail[i] })

	return out
}

// greedyCover walks order once, taking every column that covers at
// least one not-yet-covered tour and does not re-cover any tour a prior
// selection already claimed, and returns the selected columns plus
// whatever tours remain uncovered at the end. Rejecting overlap (not
// just requiring new coverage) is what keeps the result a genuine set
// partition rather than a set cover -- spec.md §8's "every tour covered
// by exactly one selected column" invariant.
func greedyCover(order []column.Column, tourIDs []string) ([]column.Column, []string) {
	remaining := detset.New(tourIDs...)
	covered := detset.New()

	var selected []column.Column
	for _, c := range order {
		if remaining.Len() == 0 {
			break
		}

		overlapsCovered := false
		addsCoverage := false
		for t := range c.TourIDs {
			if covered.Has(t) {
				overlapsCovered = true
				break
			}
			if remaining.Has(t) {
				addsCoverage = true
			}
		}
		if overlapsCovered || !addsCoverage {
			continue
		}

		selected = append(selected, c)
		for t := range c.TourIDs {
			covered.Add(t)
			remaining.Remove(t)
		}
	}

	return selected, remaining.Sorted()
}

// repairSwapAndCover implements the "repair by swap-and-cover" half of
// spec.md §4.8's warm start: for each still-uncovered tour, add the
// subset column (not already selected, and not overlapping any tour a
// prior selection already covers) that covers it and the most other
// uncovered tours, breaking ties by ID. A candidate that would re-cover
// an already-claimed tour is rejected outright rather than merely scored
// lower, preserving the exactly-once coverage invariant the same way
// greedyCover does.
func repairSwapAndCover(selected []column.Column, uncovered []string, byID map[string]column.Column, allTours []string) ([]column.Column, []string) {
	if len(uncovered) == 0 {
		return selected, uncovered
	}

	selectedIDs := detset.New()
	coveredTours := detset.New()
	for _, c := range selected {
		selectedIDs.Add(c.ID)
		for t := range c.TourIDs {
			coveredTours.Add(t)
		}
	}

	remaining := detset.New(uncovered...)

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	changed := true
	for changed && remaining.Len() > 0 {
		changed = false
		var bestID string
		bestGain := 0

		for _, id := range ids {
			if selectedIDs.Has(id) {
				continue
			}
			c := byID[id]

			overlapsCovered := false
			gain := 0
			for t := range c.TourIDs {
				if coveredTours.Has(t) {
					overlapsCovered = true
					break
				}
				if remaining.Has(t) {
					gain++
				}
			}
			if overlapsCovered {
				continue
			}
			if gain > bestGain || (gain == bestGain && gain > 0 && bestID != "" && id < bestID) {
				bestGain = gain
				bestID = id
			}
		}

		if bestGain > 0 {
			c := byID[bestID]
			selected = append(selected, c)
			selectedIDs.Add(bestID)
			for t := range c.TourIDs {
				coveredTours.Add(t)
				remaining.Remove(t)
			}
			changed = true
		}
	}

	return selected, remaining.Sorted()
}

func sortedIDs(cols []column.Column) []string {
	ids := make([]string, len(cols))
	for i, c := range cols {
		ids[i] = c.ID
	}
	sort.Strings(ids)
	return ids
}
