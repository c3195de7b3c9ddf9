package cg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterforge/shiftcore/block"
	"github.com/rosterforge/shiftcore/blockindex"
	"github.com/rosterforge/shiftcore/column"
	"github.com/rosterforge/shiftcore/pricer"
	"github.com/rosterforge/shiftcore/tour"
)

func buildConfig() block.BuildConfig {
	return block.BuildConfig{
		PauseMinReg: 30, PauseMaxReg: 60, SplitMin: 360, SplitMax: 360,
		MaxSpanReg: 600, MaxSpanSplit: 900, MaxTriplesSplitGaps: 1,
		InclusiveUpper: true, InclusiveLower: true,
		Alpha: 1, Beta: 0.1, Gamma: 50, Delta: 80, Epsilon: 20,
		GlobalTopN: 100, CapQuota2er: 0.3,
	}
}

func mkTour(t *testing.T, id string, day tour.Weekday, s, e int) tour.Tour {
	t.Helper()
	tr, err := tour.New(id, day, s, e, 0)
	require.NoError(t, err)
	return tr
}

func defaultConfig() Config {
	return Config{
		MaxIterations:              20,
		NewColumnsCapPerIter:       50,
		RestrictedMIPEveryNIter:    0,
		StoppingWindow:             3,
		StoppingTauFraction:        1e-4,
		PoolRepairSupportThreshold: 1,
		PoolMaxSize:                0,
		RegularizationWeight:       1e-4,
		ArtificialCost:             1e6,
		Pricer: pricer.Config{
			MinRestMinutes:     660,
			MaxWorkDays:        6,
			WeeklyMaxMinutes:   53 * 60,
			MaxLabelsPerDay:    200,
			TopK:               20,
			WorkerCount:        2,
			EpsilonReducedCost: 1e-6,
		},
	}
}

func TestSeedSingletons_CoversEveryTour(t *testing.T) {
	tours := []tour.Tour{
		mkTour(t, "M", tour.MON, 8*60, 12*60),
		mkTour(t, "T", tour.TUE, 8*60, 12*60),
	}
	pool := block.NewBuilder(buildConfig()).Build(tours)
	idx := blockindex.Build(pool)

	cols := SeedSingletons(idx)
	covered := map[string]bool{}
	for _, c := range cols {
		if c.CoversTour("M") {
			covered["M"] = true
		}
		if c.CoversTour("T") {
			covered["T"] = true
		}
	}
	assert.True(t, covered["M"])
	assert.True(t, covered["T"])
}

func TestSeedGreedy_ChainsAcrossRestGap(t *testing.T) {
	tours := []tour.Tour{
		mkTour(t, "M", tour.MON, 8*60, 12*60),
		mkTour(t, "W", tour.WED, 8*60, 12*60),
	}
	pool := block.NewBuilder(buildConfig()).Build(tours)
	idx := blockindex.Build(pool)

	cols := SeedGreedy(idx, 6, 660, true)
	found := false
	for _, c := range cols {
		if c.CoversTour("M") && c.CoversTour("W") {
			found = true
		}
	}
	assert.True(t, found, "MON+WED tours have ample rest and should chain into one greedy roster")
}

func TestRun_ConvergesAndCoversAllTours(t *testing.T) {
	tours := []tour.Tour{
		mkTour(t, "A", tour.MON, 8*60, 12*60),
		mkTour(t, "B", tour.TUE, 8*60, 12*60),
		mkTour(t, "C", tour.WED, 8*60, 12*60),
	}
	pool := block.NewBuilder(buildConfig()).Build(tours)
	idx := blockindex.Build(pool)

	res, err := Run(context.Background(), idx, []string{"A", "B", "C"}, defaultConfig(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Pool.All())
	assert.NotEmpty(t, res.StopReason)

	support := res.Pool.Support([]string{"A", "B", "C"})
	for tourID, n := range support {
		assert.Greater(t, n, 0, "tour %s must have at least one supporting column after CG", tourID)
	}
}

func TestRun_InvokesIncumbentCallback(t *testing.T) {
	tours := []tour.Tour{
		mkTour(t, "A", tour.MON, 8*60, 12*60),
	}
	pool := block.NewBuilder(buildConfig()).Build(tours)
	idx := blockindex.Build(pool)

	cfg := defaultConfig()
	cfg.RestrictedMIPEveryNIter = 1

	calls := 0
	onIncumbent := func(p *column.Pool, tourIDs []string) (IncumbentResult, bool) {
		calls++
		return IncumbentResult{}, false
	}

	_, err := Run(context.Background(), idx, []string{"A"}, cfg, onIncumbent)
	require.NoError(t, err)
	assert.Greater(t, calls, 0)
}
