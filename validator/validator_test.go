package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterforge/shiftcore/assignment"
	"github.com/rosterforge/shiftcore/block"
	"github.com/rosterforge/shiftcore/column"
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

func defaultValidatorConfig() Config {
	return Config{
		PauseMinReg: 30, PauseMaxReg: 60,
		SplitMin: 360, SplitMax: 360,
		MaxSpanReg: 600, MaxSpanSplit: 900,
		MaxTriplesSplitGaps: 1,
		InclusiveUpper:      true,
		InclusiveLower:      true,
		MinRestMinutes:      660,
		MaxWorkDays:         6,
		WeeklyMinFTE:        42 * 60,
		WeeklyMax:           53 * 60,
		FTEThreshold:        35 * 60,
		PTMin:               10 * 60,
	}
}

func mkTour(t *testing.T, id string, day tour.Weekday, s, e int) tour.Tour {
	t.Helper()
	tr, err := tour.New(id, day, s, e, 0)
	require.NoError(t, err)
	return tr
}

func singletonCol(t *testing.T, id string, day tour.Weekday, s, e int) column.Column {
	t.Helper()
	tr := mkTour(t, id, day, s, e)
	pool := block.NewBuilder(buildConfig()).Build([]tour.Tour{tr})
	return column.New(map[tour.Weekday]block.Block{day: pool.ByDay[day][0]})
}

func TestValidate_CleanRosterHasNoViolations(t *testing.T) {
	c := singletonCol(t, "A", tour.MON, 8*60, 8*60+4*60)
	assigns := assignment.Classify([]column.Column{c}, assignment.Config{FTEThreshold: 35 * 60})

	violations, err := Validate(assigns, []string{"A"}, defaultValidatorConfig())
	assert.NoError(t, err)
	assert.Empty(t, violations)
}

func TestValidate_RestViolationBetweenConsecutiveDays(t *testing.T) {
	monTour := mkTour(t, "M", tour.MON, 20*60, 23*60)
	tueTour := mkTour(t, "T", tour.TUE, 0, 2*60)

	builder := block.NewBuilder(buildConfig())
	monPool := builder.Build([]tour.Tour{monTour})
	tuePool := builder.Build([]tour.Tour{tueTour})

	c := column.New(map[tour.Weekday]block.Block{
		tour.MON: monPool.ByDay[tour.MON][0],
		tour.TUE: tuePool.ByDay[tour.TUE][0],
	})
	assigns := assignment.Classify([]column.Column{c}, assignment.Config{FTEThreshold: 35 * 60})

	violations, err := Validate(assigns, []string{"M", "T"}, defaultValidatorConfig())
	require.Error(t, err)

	var found bool
	for _, v := range violations {
		if v.Code == CodeRestViolation {
			found = true
		}
	}
	assert.True(t, found, "expected a %s violation, got %+v", CodeRestViolation, violations)
}

func TestValidate_CoverageMissingAndDuplicate(t *testing.T) {
	c := singletonCol(t, "A", tour.MON, 8*60, 12*60)
	assigns := assignment.Classify([]column.Column{c, c}, assignment.Config{FTEThreshold: 35 * 60})

	violations, err := Validate(assigns, []string{"A", "Z"}, defaultValidatorConfig())
	require.Error(t, err)

	codes := map[string]int{}
	for _, v := range violations {
		codes[v.Code]++
	}
	assert.Equal(t, 1, codes[CodeCoverageMissing])
	assert.Equal(t, 1, codes[CodeCoverageDuplicate])
}

func TestValidate_WeeklyBoundsViolationForUndershoot(t *testing.T) {
	c := singletonCol(t, "A", tour.MON, 8*60, 8*60+2*60)
	assigns := assignment.Classify([]column.Column{c}, assignment.Config{FTEThreshold: 35 * 60})

	cfg := defaultValidatorConfig()
	cfg.PTMin = 10 * 60
	violations, err := Validate(assigns, []string{"A"}, cfg)
	require.Error(t, err)

	var found bool
	for _, v := range violations {
		if v.Code == CodeWeeklyBounds {
			found = true
		}
	}
	assert.True(t, found)
}

// rosterWithGap builds a two-day roster with a MON block ending at
// monEnd and a TUE block whose first tour starts at localTueStart, so
// the caller can dial the inter-day rest to an exact boundary value.
func rosterWithGap(t *testing.T, monEnd, localTueStart int) []assignment.Assignment {
	t.Helper()
	monTour := mkTour(t, "M", tour.MON, monEnd-4*60, monEnd)
	tueTour := mkTour(t, "T", tour.TUE, localTueStart, localTueStart+4*60)

	builder := block.NewBuilder(buildConfig())
	monPool := builder.Build([]tour.Tour{monTour})
	tuePool := builder.Build([]tour.Tour{tueTour})

	c := column.New(map[tour.Weekday]block.Block{
		tour.MON: monPool.ByDay[tour.MON][0],
		tour.TUE: tuePool.ByDay[tour.TUE][0],
	})
	return assignment.Classify([]column.Column{c}, assignment.Config{FTEThreshold: 35 * 60})
}

func hasCode(violations []Violation, code string) bool {
	for _, v := range violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

func TestValidate_RestBoundary_ExactMinRestAccepted(t *testing.T) {
	// MON 19:00-23:00, TUE rest exactly MIN_REST=660 later: next day
	// start at local minute (23*60+660)-24*60 = 23.
	cfg := defaultValidatorConfig()
	assigns := rosterWithGap(t, 23*60, (23*60+cfg.MinRestMinutes)-tour.MinutesPerDay)

	violations, _ := Validate(assigns, []string{"M", "T"}, cfg)
	assert.False(t, hasCode(violations, CodeRestViolation), "exact MIN_REST must be accepted, got %+v", violations)
}

func TestValidate_RestBoundary_OneMinuteShortRejected(t *testing.T) {
	cfg := defaultValidatorConfig()
	assigns := rosterWithGap(t, 23*60, (23*60+cfg.MinRestMinutes-1)-tour.MinutesPerDay)

	violations, err := Validate(assigns, []string{"M", "T"}, cfg)
	require.Error(t, err)
	assert.True(t, hasCode(violations, CodeRestViolation), "MIN_REST-1 must be rejected, got %+v", violations)
}

// rosterWithSingleGap builds a one-day, two-tour block with an exact gap
// between the tours, to dial PAUSE_MAX_REG boundaries precisely. It
// constructs the Block directly rather than through Builder.Build,
// because Builder silently drops inadmissible combinations -- exactly
// the case this test needs to feed to the validator's independent check.
func rosterWithSingleGap(t *testing.T, gap int) []assignment.Assignment {
	t.Helper()
	first := mkTour(t, "A", tour.MON, 6*60, 8*60)
	second := mkTour(t, "B", tour.MON, 8*60+gap, 8*60+gap+2*60)

	b := block.Block{
		ID:          "B-TEST",
		Day:         tour.MON,
		Tours:       []tour.Tour{first, second},
		FirstStart:  first.StartMinute,
		LastEnd:     second.EndMinute,
		Span:        second.EndMinute - first.StartMinute,
		WorkMinutes: first.Duration() + second.Duration(),
	}
	c := column.New(map[tour.Weekday]block.Block{tour.MON: b})
	return assignment.Classify([]column.Column{c}, assignment.Config{FTEThreshold: 35 * 60})
}

func TestValidate_GapBoundary_PauseMaxRegAccepted(t *testing.T) {
	cfg := defaultValidatorConfig()
	assigns := rosterWithSingleGap(t, cfg.PauseMaxReg)

	violations, _ := Validate(assigns, []string{"A", "B"}, cfg)
	assert.False(t, hasCode(violations, CodeGapNotAdmissible), "gap==PAUSE_MAX_REG must be accepted, got %+v", violations)
}

func TestValidate_GapBoundary_PauseMaxRegPlusOneRejected(t *testing.T) {
	cfg := defaultValidatorConfig()
	// PAUSE_MAX_REG+1 must fall strictly outside both zones; SplitMin is
	// 360 here so +1 over 60 is nowhere near SPLIT.
	assigns := rosterWithSingleGap(t, cfg.PauseMaxReg+1)

	violations, err := Validate(assigns, []string{"A", "B"}, cfg)
	require.Error(t, err)
	assert.True(t, hasCode(violations, CodeGapNotAdmissible), "gap==PAUSE_MAX_REG+1 must be rejected, got %+v", violations)
}

// rosterWithWeekendWrap builds a two-day SAT/MON roster (SAT ending at
// satEnd, MON's single tour starting at localMonStart), exercising the
// one adjacency the forward-only day loop never reaches.
func rosterWithWeekendWrap(t *testing.T, satEnd, localMonStart int) []assignment.Assignment {
	t.Helper()
	satTour := mkTour(t, "S", tour.SAT, satEnd-4*60, satEnd)
	monTour := mkTour(t, "M", tour.MON, localMonStart, localMonStart+4*60)

	builder := block.NewBuilder(buildConfig())
	satPool := builder.Build([]tour.Tour{satTour})
	monPool := builder.Build([]tour.Tour{monTour})

	c := column.New(map[tour.Weekday]block.Block{
		tour.SAT: satPool.ByDay[tour.SAT][0],
		tour.MON: monPool.ByDay[tour.MON][0],
	})
	return assignment.Classify([]column.Column{c}, assignment.Config{FTEThreshold: 35 * 60})
}

func TestValidate_WeekendWrap_AmpleRestAcceptedBothConventions(t *testing.T) {
	// SAT ends 18:00, MON starts 08:00: comfortably over MIN_REST under
	// either wrap convention.
	for _, countGapDay := range []bool{true, false} {
		cfg := defaultValidatorConfig()
		cfg.WeekendWrapCountsGapDay = countGapDay
		assigns := rosterWithWeekendWrap(t, 18*60, 8*60)

		violations, _ := Validate(assigns, []string{"S", "M"}, cfg)
		assert.False(t, hasCode(violations, CodeRestViolation),
			"ample SAT->MON rest must be accepted (countGapDay=%v), got %+v", countGapDay, violations)
	}
}

// TestValidate_WeekendWrap_MandatoryEvenForSATMON confirms the wrap rest
// check actually runs for the literal SAT->MON pair -- both conventions
// agree on the gap width here (Sunday always sits exactly between SAT
// and MON, whether or not it is "counted"), so an inflated MinRestMinutes
// is the only way to force a violation and prove the check fires at all.
func TestValidate_WeekendWrap_MandatoryEvenForSATMON(t *testing.T) {
	// SAT ends 23:00, MON starts 00:30: wrap rest = 2*1440-1380+30 = 1530.
	assigns := rosterWithWeekendWrap(t, 23*60, 30)

	for _, countGapDay := range []bool{true, false} {
		cfg := defaultValidatorConfig()
		cfg.WeekendWrapCountsGapDay = countGapDay
		cfg.MinRestMinutes = 2000

		violations, err := Validate(assigns, []string{"S", "M"}, cfg)
		require.Error(t, err)
		assert.True(t, hasCode(violations, CodeRestViolation),
			"wrap rest below an inflated MIN_REST must be rejected (countGapDay=%v), got %+v", countGapDay, violations)
	}
}

// TestValidate_WeekendWrap_ConventionDiverges exercises a wrap pair other
// than the literal SAT->MON one (FRI last worked, TUE first worked, SAT
// MON SUN all off), where the two conventions of spec.md §9's open
// question genuinely disagree: the dynamic convention credits all three
// intervening off days, the strict one credits none beyond a bare
// single-day transition.
func TestValidate_WeekendWrap_ConventionDiverges(t *testing.T) {
	friTour := mkTour(t, "F", tour.FRI, 19*60, 23*60)
	tueTour := mkTour(t, "T", tour.TUE, 6*60, 10*60)

	builder := block.NewBuilder(buildConfig())
	friPool := builder.Build([]tour.Tour{friTour})
	tuePool := builder.Build([]tour.Tour{tueTour})

	c := column.New(map[tour.Weekday]block.Block{
		tour.FRI: friPool.ByDay[tour.FRI][0],
		tour.TUE: tuePool.ByDay[tour.TUE][0],
	})
	assigns := assignment.Classify([]column.Column{c}, assignment.Config{FTEThreshold: 35 * 60})

	cfg := defaultValidatorConfig()
	cfg.MinRestMinutes = 500

	cfg.WeekendWrapCountsGapDay = false
	strictViolations, err := Validate(assigns, []string{"F", "T"}, cfg)
	require.Error(t, err)
	assert.True(t, hasCode(strictViolations, CodeRestViolation), "strict convention must reject the bare-adjacency FRI->TUE wrap, got %+v", strictViolations)

	cfg.WeekendWrapCountsGapDay = true
	lenientViolations, _ := Validate(assigns, []string{"F", "T"}, cfg)
	assert.False(t, hasCode(lenientViolations, CodeRestViolation), "gap-day convention must credit SAT/SUN/MON and accept, got %+v", lenientViolations)
}

// tripleBlock returns the 3-tour block from pool's day slice, failing
// the test if none was retained.
func tripleBlock(t *testing.T, pool block.Pool, day tour.Weekday) block.Block {
	t.Helper()
	for _, b := range pool.ByDay[day] {
		if b.Size() == 3 {
			return b
		}
	}
	t.Fatalf("no 3-tour block retained for %s", day)
	return block.Block{}
}

func TestValidate_WeekendWrap_FatigueAppliesRegardlessOfFlag(t *testing.T) {
	satTours := []tour.Tour{
		mkTour(t, "S1", tour.SAT, 6*60, 9*60),
		mkTour(t, "S2", tour.SAT, 9*60+30, 12*60+30),
		mkTour(t, "S3", tour.SAT, 13*60, 16*60),
	}
	monTours := []tour.Tour{
		mkTour(t, "M1", tour.MON, 6*60, 9*60),
		mkTour(t, "M2", tour.MON, 9*60+30, 12*60+30),
		mkTour(t, "M3", tour.MON, 13*60, 16*60),
	}

	builder := block.NewBuilder(buildConfig())
	satPool := builder.Build(satTours)
	monPool := builder.Build(monTours)

	c := column.New(map[tour.Weekday]block.Block{
		tour.SAT: tripleBlock(t, satPool, tour.SAT),
		tour.MON: tripleBlock(t, monPool, tour.MON),
	})
	assigns := assignment.Classify([]column.Column{c}, assignment.Config{FTEThreshold: 35 * 60})

	tourIDs := []string{"S1", "S2", "S3", "M1", "M2", "M3"}
	for _, countGapDay := range []bool{true, false} {
		cfg := defaultValidatorConfig()
		cfg.WeekendWrapCountsGapDay = countGapDay
		violations, err := Validate(assigns, tourIDs, cfg)
		require.Error(t, err)
		assert.True(t, hasCode(violations, CodeFatigueViolation),
			"two 3-tour blocks wrapped SAT->MON must violate fatigue regardless of countGapDay=%v, got %+v", countGapDay, violations)
	}
}

func TestValidate_WeeklyMaxBoundary_ExactlyAcceptedOnePastRejected(t *testing.T) {
	cfg := defaultValidatorConfig()

	fullWeek := func(minutesPerDay int) []assignment.Assignment {
		days := []tour.Weekday{tour.MON, tour.TUE, tour.WED, tour.THU, tour.FRI, tour.SAT}
		blocks := make(map[tour.Weekday]block.Block, len(days))
		builder := block.NewBuilder(buildConfig())
		for _, d := range days {
			tr := mkTour(t, "X"+d.String(), d, 6*60, 6*60+minutesPerDay)
			pool := builder.Build([]tour.Tour{tr})
			blocks[d] = pool.ByDay[d][0]
		}
		c := column.New(blocks)
		return assignment.Classify([]column.Column{c}, assignment.Config{FTEThreshold: 35 * 60})
	}

	perDay := int(cfg.WeeklyMax) / 6
	exact := fullWeek(perDay)
	violations, _ := Validate(exact, []string{"XMON", "XTUE", "XWED", "XTHU", "XFRI", "XSAT"}, cfg)
	assert.False(t, hasCode(violations, CodeWeeklyBounds), "total at WEEKLY_MAX must be accepted, got %+v", violations)

	over := fullWeek(perDay + 1)
	violationsOver, err := Validate(over, []string{"XMON", "XTUE", "XWED", "XTHU", "XFRI", "XSAT"}, cfg)
	require.Error(t, err)
	assert.True(t, hasCode(violationsOver, CodeWeeklyBounds), "total over WEEKLY_MAX must be rejected, got %+v", violationsOver)
}
