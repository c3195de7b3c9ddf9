package lowerbound

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterforge/shiftcore/block"
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

func TestFleetLB_S2(t *testing.T) {
	var tours []tour.Tour
	for _, id := range []string{"A", "B", "C"} {
		tr, err := tour.New(id, tour.MON, 8*60, 12*60, 0)
		require.NoError(t, err)
		tours = append(tours, tr)
	}

	res := Compute(tours, block.Pool{}, Config{MaxWeeklyMinutes: 53 * 60, MinRestMinutes: 660})
	assert.Equal(t, 3, res.FleetLB)
}

func TestHoursLB_S1(t *testing.T) {
	var tours []tour.Tour
	for i, id := range []string{"A", "B", "C", "D", "E"} {
		tr, err := tour.New(id, tour.Weekday(i), 8*60, 12*60, 0)
		require.NoError(t, err)
		tours = append(tours, tr)
	}

	res := Compute(tours, block.Pool{}, Config{MaxWeeklyMinutes: 53 * 60, MinRestMinutes: 660})
	assert.Equal(t, 1, res.HoursLB)
	assert.Equal(t, 1, res.Final)
}

func TestChainLB_Fatigue(t *testing.T) {
	mk := func(id string, day tour.Weekday, s, e int) tour.Tour {
		tr, err := tour.New(id, day, s, e, 0)
		require.NoError(t, err)
		return tr
	}
	tours := []tour.Tour{
		mk("M1", tour.MON, 6*60, 9*60), mk("M2", tour.MON, 10*60, 13*60), mk("M3", tour.MON, 14*60, 17*60),
		mk("T1", tour.TUE, 6*60, 9*60), mk("T2", tour.TUE, 10*60, 13*60), mk("T3", tour.TUE, 14*60, 17*60),
	}
	pool := block.NewBuilder(buildConfig()).Build(tours)
	res := Compute(tours, pool, Config{MaxWeeklyMinutes: 53 * 60, MinRestMinutes: 660})
	assert.GreaterOrEqual(t, res.Final, 1)
}
