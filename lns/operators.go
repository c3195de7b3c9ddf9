package lns

import (
	"context"
	"math/rand"
	"sort"

	"github.com/rosterforge/shiftcore/column"
	"github.com/rosterforge/shiftcore/restrictedmip"
	"github.com/rosterforge/shiftcore/tour"
)

// operator is one LNS neighborhood move: given the current incumbent and
// access to the broader column pool, try to produce an improved
// candidate. ok is false when the operator found nothing to do (not an
// error -- an operator that never applies on some instances is normal).
type operator struct {
	name string
	run  func(ctx context.Context, state []column.Column, pool *column.Pool, tourIDs []string, cfg Config, rng *rand.Rand) (candidate []column.Column, ok bool, err error)
}

var weekdays = []tour.Weekday{tour.MON, tour.TUE, tour.WED, tour.THU, tour.FRI, tour.SAT, tour.SUN}

func operators() []operator {
	return []operator{
		{"destroy_by_day", destroyByDay},
		{"destroy_by_driver", destroyByDriver},
		{"singleton_squash", singletonSquash},
		{"split_aware_swap", splitAwareSwap},
	}
}

// destroyByDay implements spec.md §4.9 operator 1: remove every column
// working the worst day (highest 1-tour block share among that day's
// worked blocks), then re-cover every tour from the remaining columns
// plus the wider pool.
func destroyByDay(ctx context.Context, state []column.Column, pool *column.Pool, tourIDs []string, cfg Config, _ *rand.Rand) ([]column.Column, bool, error) {
	worst, ok := worstDay(state)
	if !ok {
		return nil, false, nil
	}

	var kept []column.Column
	for _, c := range state {
		if _, works := c.Blocks[worst]; !works {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(state) {
		return nil, false, nil
	}

	return repair(ctx, kept, pool, tourIDs, cfg)
}

// worstDay returns the weekday with the highest 1-tour-block share
// among state's worked blocks, or ok=false if no day has any blocks.
func worstDay(state []column.Column) (tour.Weekday, bool) {
	total := make(map[tour.Weekday]int)
	singles := make(map[tour.Weekday]int)
	for _, c := range state {
		for d, b := range c.Blocks {
			total[d]++
			if b.Size() == 1 {
				singles[d]++
			}
		}
	}

	best := tour.MON
	bestShare := -1.0
	found := false
	for _, d := range weekdays {
		if total[d] == 0 {
			continue
		}
		share := float64(singles[d]) / float64(total[d])
		if share > bestShare {
			bestShare = share
			best = d
			found = true
		}
	}
	return best, found
}

// destroyByDriver implements operator 2: drop the cfg.DestroyByDriverK
// lowest-utilization rosters (fewest total work minutes), then re-cover.
func destroyByDriver(ctx context.Context, state []column.Column, pool *column.Pool, tourIDs []string, cfg Config, _ *rand.Rand) ([]column.Column, bool, error) {
	k := cfg.DestroyByDriverK
	if k <= 0 {
		k = 1
	}
	if k >= len(state) {
		return nil, false, nil
	}

	sorted := append([]column.Column(nil), state...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].TotalWorkMinutes != sorted[j].TotalWorkMinutes {
			return sorted[i].TotalWorkMinutes < sorted[j].TotalWorkMinutes
		}
		return sorted[i].ID < sorted[j].ID
	})

	kept := append([]column.Column(nil), sorted[k:]...)
	return repair(ctx, kept, pool, tourIDs, cfg)
}

// singletonSquash implements operator 3: drop every roster built
// entirely from singleton (1-tour) blocks -- tours only covered via a
// singleton fallback -- and re-cover, giving the pool's 2/3-tour
// alternatives a chance to consolidate them.
func singletonSquash(ctx context.Context, state []column.Column, pool *column.Pool, tourIDs []string, cfg Config, _ *rand.Rand) ([]column.Column, bool, error) {
	var kept []column.Column
	removedAny := false
	for _, c := range state {
		if isAllSingleton(c) {
			removedAny = true
			continue
		}
		kept = append(kept, c)
	}
	if !removedAny {
		return nil, false, nil
	}

	return repair(ctx, kept, pool, tourIDs, cfg)
}

func isAllSingleton(c column.Column) bool {
	if len(c.Blocks) == 0 {
		return false
	}
	for _, b := range c.Blocks {
		if b.Size() != 1 {
			return false
		}
	}
	return true
}

// splitAwareSwap implements operator 4: for a roster containing a split
// block, look for a pool roster covering the exact same tour set with
// no split blocks at all, and substitute it -- a same-coverage,
// reduced-fatigue exchange that needs no further re-covering pass.
func splitAwareSwap(_ context.Context, state []column.Column, pool *column.Pool, _ []string, _ Config, _ *rand.Rand) ([]column.Column, bool, error) {
	for i, c := range state {
		if !hasSplitBlock(c) {
			continue
		}
		for _, candidate := range poolColumnsWithSameCoverage(pool, c) {
			if candidate.ID == c.ID || hasSplitBlock(candidate) {
				continue
			}
			out := append([]column.Column(nil), state...)
			out[i] = candidate
			return out, true, nil
		}
	}
	return nil, false, nil
}

func hasSplitBlock(c column.Column) bool {
	for _, b := range c.Blocks {
		if b.HasSplit {
			return true
		}
	}
	return false
}

// poolColumnsWithSameCoverage returns every pool column whose TourIDs
// set exactly matches c's, sorted by ID for determinism.
func poolColumnsWithSameCoverage(pool *column.Pool, c column.Column) []column.Column {
	var out []column.Column
	for _, tourID := range sortedKeys(c.TourIDs) {
		for _, cand := range pool.ColumnsCoveringTour(tourID) {
			if len(cand.TourIDs) != len(c.TourIDs) {
				continue
			}
			same := true
			for t := range c.TourIDs {
				if !cand.CoversTour(t) {
					same = false
					break
				}
			}
			if same {
				out = append(out, cand)
			}
		}
		break // any one covered tour is enough to enumerate all candidate columns
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// repair re-covers tourIDs from kept plus every pool column not already
// in kept, via restrictedmip's ceiling-rounding + swap-and-cover warm
// start. A failed or infeasible repair is reported as ok=false (a
// no-op), not an error -- an operator that cannot currently improve the
// incumbent is expected, not exceptional.
func repair(ctx context.Context, kept []column.Column, pool *column.Pool, tourIDs []string, cfg Config) ([]column.Column, bool, error) {
	seen := make(map[string]struct{}, len(kept))
	candidates := append([]column.Column(nil), kept...)
	for _, c := range kept {
		seen[c.ID] = struct{}{}
	}
	for _, c := range pool.All() {
		if _, already := seen[c.ID]; !already {
			candidates = append(candidates, c)
		}
	}

	res, err := restrictedmip.Solve(ctx, candidates, tourIDs, cfg.RestrictedMIP)
	if err != nil || !res.Covered {
		return nil, false, nil
	}

	byID := make(map[string]column.Column, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}
	out := make([]column.Column, 0, len(res.SelectedColumnIDs))
	for _, id := range res.SelectedColumnIDs {
		out = append(out, byID[id])
	}

	return out, true, nil
}
