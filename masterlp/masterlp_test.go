package masterlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterforge/shiftcore/block"
	"github.com/rosterforge/shiftcore/column"
	"github.com/rosterforge/shiftcore/tour"
)

func singleton(t *testing.T, id string, day tour.Weekday) column.Column {
	t.Helper()
	tr, err := tour.New(id, day, 8*60, 12*60, 0)
	require.NoError(t, err)
	cfg := block.BuildConfig{
		PauseMinReg: 30, PauseMaxReg: 60, SplitMin: 360, SplitMax: 360,
		MaxSpanReg: 600, MaxSpanSplit: 900, MaxTriplesSplitGaps: 1,
		InclusiveUpper: true, InclusiveLower: true,
		Alpha: 1, Beta: 0.1, Gamma: 50, Delta: 80, Epsilon: 20,
		GlobalTopN: 10, CapQuota2er: 0.3,
	}
	pool := block.NewBuilder(cfg).Build([]tour.Tour{tr})
	b := pool.ByDay[day][0]
	return column.New(map[tour.Weekday]block.Block{day: b})
}

func TestSolve_TwoSingletonDrivers(t *testing.T) {
	cols := []column.Column{
		singleton(t, "A", tour.MON),
		singleton(t, "B", tour.TUE),
	}

	res, err := Solve(cols, []string{"A", "B"}, 1e-4, 1e6)
	require.NoError(t, err)
	// Two headcount units plus mu*span = 1e-4*240 per column.
	assert.InDelta(t, 2.048, res.Objective, 1e-4)
	assert.Len(t, res.Primal, 2)
	assert.Empty(t, res.ArtificialUse)
}

func TestSolve_EmptyTours(t *testing.T) {
	res, err := Solve(nil, nil, 1e-4, 1e6)
	require.NoError(t, err)
	assert.Empty(t, res.Primal)
}
