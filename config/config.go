// Package config defines the single typed SolverConfig record that
// drives every phase of the shiftcore pipeline, replacing the ad-hoc
// keyword configs of the source system with one explicit, validated
// struct (see SPEC_FULL.md §9).
//
// Options are functional (type Option func(*SolverConfig)), following
// the builder package's convention. Option constructors only assign
// fields and never panic; meaningless values are reported by Validate.
package config

import (
	"fmt"
	"time"
)

// OutputProfile selects the lexicographic objective the restricted MIP
// and LNS acceptance rule optimize for.
type OutputProfile int

const (
	// MinHeadcount minimizes driver count above all else.
	MinHeadcount OutputProfile = iota
	// BestBalanced trades a small amount of headcount for hour balance.
	BestBalanced
	// MinHeadcount3er additionally prefers fewer 3-tour (most fatiguing) blocks.
	MinHeadcount3er
)

// String renders the OutputProfile for logs and evidence bundles.
func (p OutputProfile) String() string {
	switch p {
	case MinHeadcount:
		return "MIN_HEADCOUNT"
	case BestBalanced:
		return "BEST_BALANCED"
	case MinHeadcount3er:
		return "MIN_HEADCOUNT_3ER"
	default:
		return fmt.Sprintf("OutputProfile(%d)", int(p))
	}
}

// SolverConfig is the complete, explicit set of solver tuning knobs
// described in spec.md §6. Every field has a documented default applied
// by Default(); zero-value SolverConfig is not safe to use directly.
type SolverConfig struct {
	// Seed drives every pseudo-random choice in the pipeline (LNS RNG,
	// tie-break jitter). Fixed seed + fixed worker count => bit-identical output.
	Seed uint64

	// TimeBudget is the overall wall-clock budget for one Solve call.
	TimeBudget time.Duration

	// Phase1Fraction and Phase2Fraction are checked by Validate (each
	// >= 0, sum <= 1). Solve does not split TimeBudget by them: every
	// phase runs under the one TimeBudget deadline.
	Phase1Fraction float64
	Phase2Fraction float64

	// PricingTimeLimit is loaded from YAML but not read by Solve; pricer
	// calls are bounded only by the overall TimeBudget deadline.
	PricingTimeLimit time.Duration

	// MaxCGIterations caps the column-generation loop (spec.md §4.7).
	MaxCGIterations uint32

	// RestrictedMIPVarCap bounds how many pool columns enter one
	// restricted-MIP solve (spec.md §4.8).
	RestrictedMIPVarCap uint32

	// FinalSubsetCap bounds the pool subset handed to the final
	// integer-restoration pass.
	FinalSubsetCap uint32

	// CapQuota2er is the soft target fraction of the non-singleton
	// per-day block budget reserved for 2-tour blocks (spec.md §4.1, §9).
	CapQuota2er float64

	// MaxGapMinutesInterDay (default 1440) is not read by Solve; inter-day
	// rest is only checked against MinRestMinutes, with no upper cap.
	MaxGapMinutesInterDay uint32

	// Solve uses the product TopMStartTours*MaxSuccPerTour both as the
	// pricer's TopK (columns returned per call) and as the block
	// builder's GlobalTopN. No per-tour successor cap is applied, and
	// MaxTriplesPerTour is not read by Solve.
	TopMStartTours    uint32
	MaxSuccPerTour    uint32
	MaxTriplesPerTour uint32

	// WeeklyMinFTE, WeeklyMax, FTEThreshold, PTMin are all in minutes.
	WeeklyMinFTE uint32
	WeeklyMax    uint32
	FTEThreshold uint32
	PTMin        uint32

	// OutputProfile selects the lexicographic objective (spec.md §6).
	OutputProfile OutputProfile

	// --- Block/roster admissibility constants (spec.md §3, §4.1, §4.4) ---

	// MaxTourDuration is not read by Solve or the CLI: tours arrive
	// already built, and their length is not checked against it.
	MaxTourDuration int

	// PauseMinReg, PauseMaxReg bound the REGULAR pause zone (minutes).
	PauseMinReg int
	PauseMaxReg int

	// SplitMin, SplitMax bound the SPLIT pause zone (minutes).
	SplitMin int
	SplitMax int

	// MaxSpanReg, MaxSpanSplit cap block span depending on pause zone mix.
	MaxSpanReg   int
	MaxSpanSplit int

	// MaxTriplesSplitGaps caps the number of SPLIT gaps allowed within one
	// 3-tour block (policy default: 1).
	MaxTriplesSplitGaps int

	// MinRestMinutes is the minimum inter-day rest (spec.md §4.4).
	MinRestMinutes int

	// MaxWorkDays caps days worked per roster per week.
	MaxWorkDays int

	// WeekendWrapCountsGapDay resolves the SAT->MON rest open question
	// (spec.md §9): whether an off day between the last worked day and
	// the next cycle's first worked day counts toward the wrap gap
	// (dynamic) or the wrap defaults to a bare single-day transition
	// except for the literal SAT->MON pair, which is always a fixed
	// two-day gap (spec.md §4.4). Enforced by tour.WrapRestMinutes, used
	// in pricer.finalize, validator.validateColumn, and cg.SeedGreedy.
	WeekendWrapCountsGapDay bool

	// PauseBoundaryInclusiveUpper / PauseBoundaryInclusiveLower resolve
	// the inclusivity open question (spec.md §9): PAUSE_MAX_REG is
	// inclusive on its upper bound, SPLIT_MIN is inclusive on its lower
	// bound, by default.
	PauseBoundaryInclusiveUpper bool
	PauseBoundaryInclusiveLower bool

	// PricingBudgetK bounds the pricer's label frontier kept after each
	// day's expansion (pricer.Config.MaxLabelsPerDay; e.g. 200-2000).
	PricingBudgetK int

	// PoolMaxSize bounds the column pool; beyond this, least-recently-used
	// (by LP-basis participation) columns are evicted.
	PoolMaxSize int

	// WorkerCount bounds pricer parallelism; 0 means runtime.GOMAXPROCS.
	WorkerCount int

	// RegularizationWeight (mu in spec.md §4.5) is the tiny per-column
	// span-penalty coefficient added to the objective for tie-breaking.
	// Must stay small enough that headcount always dominates.
	RegularizationWeight float64

	// ArtificialCost (W_UNDER in spec.md §4.5) penalizes uncovered tours
	// in the relaxed-feasibility phase of the master LP.
	ArtificialCost float64

	// --- Column generation loop tuning (spec.md §4.7) ---

	// NewColumnsCapPerIter bounds how many new columns the pricer may
	// feed into the pool in a single CG iteration.
	NewColumnsCapPerIter int

	// RestrictedMIPEveryNIter runs a restricted-MIP incumbent attempt
	// every N CG iterations; <=0 disables the periodic attempt (the
	// final pass after CG still always runs).
	RestrictedMIPEveryNIter int

	// StoppingWindow and StoppingTauFraction implement spec.md §4.7's
	// "(b) LP obj changed by < tau over window W" stopping condition:
	// CG stops once the LP objective has moved by less than
	// StoppingTauFraction (relative) over the last StoppingWindow
	// iterations.
	StoppingWindow      int
	StoppingTauFraction float64

	// PoolRepairSupportThreshold is passed to cg.Config, but cg.Run does
	// not act on it: no anchored pricer call is made for tours whose pool
	// support (column count covering it) falls below this value.
	PoolRepairSupportThreshold int
}

// Default returns a SolverConfig populated with the deployment defaults
// named throughout spec.md (PAUSE 30-60, SPLIT exactly 360, MIN_REST 660,
// MAX_WORK_DAYS 6, etc.).
func Default() SolverConfig {
	return SolverConfig{
		Seed:                        42,
		TimeBudget:                  30 * time.Second,
		Phase1Fraction:              0.6,
		Phase2Fraction:              0.3,
		PricingTimeLimit:            2 * time.Second,
		MaxCGIterations:             200,
		RestrictedMIPVarCap:         20000,
		FinalSubsetCap:              20000,
		CapQuota2er:                 0.30,
		MaxGapMinutesInterDay:       1440,
		TopMStartTours:              8,
		MaxSuccPerTour:              6,
		MaxTriplesPerTour:           3,
		WeeklyMinFTE:                42 * 60,
		WeeklyMax:                   53 * 60,
		FTEThreshold:                35 * 60,
		PTMin:                       10 * 60,
		OutputProfile:               MinHeadcount,
		MaxTourDuration:             12 * 60,
		PauseMinReg:                 30,
		PauseMaxReg:                 60,
		SplitMin:                    360,
		SplitMax:                    360,
		MaxSpanReg:                  10 * 60,
		MaxSpanSplit:                15 * 60,
		MaxTriplesSplitGaps:         1,
		MinRestMinutes:              660,
		MaxWorkDays:                 6,
		WeekendWrapCountsGapDay:     true,
		PauseBoundaryInclusiveUpper: true,
		PauseBoundaryInclusiveLower: true,
		PricingBudgetK:              500,
		PoolMaxSize:                 200000,
		WorkerCount:                 0,
		RegularizationWeight:        1e-4,
		ArtificialCost:              1e6,
		NewColumnsCapPerIter:        200,
		RestrictedMIPEveryNIter:     10,
		StoppingWindow:              5,
		StoppingTauFraction:         1e-3,
		PoolRepairSupportThreshold:  1,
	}
}

// Option mutates a SolverConfig being built via New.
type Option func(*SolverConfig)

// New builds a SolverConfig starting from Default() and applying opts in
// order. Invalid combinations (fractions summing past 1, empty pause
// zones, etc.) are rejected by Validate, which callers should invoke
// once the config is fully assembled.
func New(opts ...Option) SolverConfig {
	cfg := Default()
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// WithSeed fixes the deterministic RNG seed.
func WithSeed(seed uint64) Option {
	return func(c *SolverConfig) { c.Seed = seed }
}

// WithTimeBudget sets the overall wall-clock budget.
func WithTimeBudget(d time.Duration) Option {
	return func(c *SolverConfig) { c.TimeBudget = d }
}

// WithPhaseFractions sets the CG/MIP time-share split; the remainder is LNS.
func WithPhaseFractions(phase1, phase2 float64) Option {
	return func(c *SolverConfig) { c.Phase1Fraction, c.Phase2Fraction = phase1, phase2 }
}

// WithOutputProfile selects the lexicographic objective.
func WithOutputProfile(p OutputProfile) Option {
	return func(c *SolverConfig) { c.OutputProfile = p }
}

// WithWeeklyBounds sets the minute-denominated weekly hour thresholds.
func WithWeeklyBounds(minFTE, max, fteThreshold, ptMin uint32) Option {
	return func(c *SolverConfig) {
		c.WeeklyMinFTE, c.WeeklyMax, c.FTEThreshold, c.PTMin = minFTE, max, fteThreshold, ptMin
	}
}

// WithWorkerCount bounds pricer parallelism.
func WithWorkerCount(n int) Option {
	return func(c *SolverConfig) { c.WorkerCount = n }
}

// Validate checks cross-field invariants that individual Option
// constructors cannot (they only see one field at a time). Returns the
// first violation found; callers treat any error here as INVALID_INPUT.
func (c SolverConfig) Validate() error {
	if c.Phase1Fraction < 0 || c.Phase2Fraction < 0 || c.Phase1Fraction+c.Phase2Fraction > 1 {
		return fmt.Errorf("config: phase1+phase2 fractions must be in [0,1], got %v+%v", c.Phase1Fraction, c.Phase2Fraction)
	}
	if c.CapQuota2er < 0 || c.CapQuota2er > 1 {
		return fmt.Errorf("config: cap_quota_2er must be in [0,1], got %v", c.CapQuota2er)
	}
	if c.PauseMinReg > c.PauseMaxReg {
		return fmt.Errorf("config: pause_min_reg (%d) > pause_max_reg (%d)", c.PauseMinReg, c.PauseMaxReg)
	}
	if c.SplitMin > c.SplitMax {
		return fmt.Errorf("config: split_min (%d) > split_max (%d)", c.SplitMin, c.SplitMax)
	}
	if c.WeeklyMinFTE > c.WeeklyMax {
		return fmt.Errorf("config: weekly_min_fte (%d) > weekly_max (%d)", c.WeeklyMinFTE, c.WeeklyMax)
	}
	if c.MaxWorkDays <= 0 || c.MaxWorkDays > 7 {
		return fmt.Errorf("config: max_work_days out of range: %d", c.MaxWorkDays)
	}
	if c.MinRestMinutes <= 0 {
		return fmt.Errorf("config: min_rest_minutes must be positive, got %d", c.MinRestMinutes)
	}

	return nil
}
