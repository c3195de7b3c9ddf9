package blockindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterforge/shiftcore/block"
	"github.com/rosterforge/shiftcore/tour"
)

func TestBuild_BasicLookups(t *testing.T) {
	a, err := tour.New("A", tour.MON, 8*60, 12*60, 0)
	require.NoError(t, err)
	b, err := tour.New("B", tour.MON, 13*60, 17*60, 0)
	require.NoError(t, err)

	cfg := block.BuildConfig{
		PauseMinReg: 30, PauseMaxReg: 60, SplitMin: 360, SplitMax: 360,
		MaxSpanReg: 600, MaxSpanSplit: 900, MaxTriplesSplitGaps: 1,
		InclusiveUpper: true, InclusiveLower: true,
		Alpha: 1, Beta: 0.1, Gamma: 50, Delta: 80, Epsilon: 20,
		GlobalTopN: 100, CapQuota2er: 0.3,
	}
	pool := block.NewBuilder(cfg).Build([]tour.Tour{a, b})
	idx := Build(pool)

	assert.NotEmpty(t, idx.BlocksForTour("A"))
	assert.NotEmpty(t, idx.BlocksForDay(tour.MON))
	assert.Empty(t, idx.BlocksForDay(tour.TUE))

	for _, id := range idx.BlocksForTour("A") {
		blk, ok := idx.Block(id)
		require.True(t, ok)
		if blk.Size() > 1 {
			assert.NotEmpty(t, idx.Overlapping(id))
		}
	}
}
