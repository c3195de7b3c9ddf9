// Package solver wires every phase of the shiftcore pipeline into the
// single entrypoint external callers use: block building, indexing,
// lower bounds, column generation, restricted-MIP integer restoration,
// optional LNS refinement, classification into driver assignments,
// independent validation, and evidence hashing.
//
// The top-level function shape -- validate input, build derived state,
// iterate phases under a time budget, return a structured result or one
// of a small closed set of error kinds -- mirrors the teacher's
// flow/dinic.go: a single exported function that owns its whole
// pipeline rather than a multi-method object graph.
package solver

import (
	"context"
	"fmt"

	retry "github.com/avast/retry-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rosterforge/shiftcore/assignment"
	"github.com/rosterforge/shiftcore/block"
	"github.com/rosterforge/shiftcore/blockindex"
	"github.com/rosterforge/shiftcore/cg"
	"github.com/rosterforge/shiftcore/column"
	"github.com/rosterforge/shiftcore/config"
	"github.com/rosterforge/shiftcore/evidence"
	"github.com/rosterforge/shiftcore/internal/clock"
	"github.com/rosterforge/shiftcore/lns"
	"github.com/rosterforge/shiftcore/lowerbound"
	"github.com/rosterforge/shiftcore/pricer"
	"github.com/rosterforge/shiftcore/restrictedmip"
	"github.com/rosterforge/shiftcore/tour"
	"github.com/rosterforge/shiftcore/validator"
)

// Status is the top-level outcome of a Solve call (spec.md §6).
type Status int

const (
	// StatusOptimal: CG converged and an integral, fully-covering incumbent was found.
	StatusOptimal Status = iota
	// StatusFeasible: an integral, fully-covering incumbent was found, but CG did not converge.
	StatusFeasible
	// StatusInfeasible: no covering incumbent was found.
	StatusInfeasible
	// StatusZeroSupport: a tour has no admissible block at all.
	StatusZeroSupport
	// StatusCancelled: the context was cancelled before completion.
	StatusCancelled
	// StatusTimeout: the time budget ran out before an integral solution appeared.
	StatusTimeout
)

// String renders Status for evidence bundles and logs.
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusZeroSupport:
		return "ZERO_SUPPORT"
	case StatusCancelled:
		return "CANCELLED"
	case StatusTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// Solution is the full result of a Solve call (spec.md §6).
type Solution struct {
	RunID        string
	Status       Status
	Assignments  []assignment.Assignment
	Uncovered    []assignment.UncoveredTour
	KPIs         evidence.KPIs
	Telemetry    evidence.Telemetry
	LB           lowerbound.Result
	EvidenceHash string
}

// Solve runs the complete pipeline over tours under cfg, returning a
// Solution on success or a *SolveError carrying one of the six kinds of
// spec.md §7 on failure.
func Solve(ctx context.Context, tours []tour.Tour, cfg config.SolverConfig) (Solution, error) {
	runID := uuid.NewString()
	logger := newLogger()
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("run_id", runID))

	if err := cfg.Validate(); err != nil {
		return Solution{}, &SolveError{Kind: KindInvalidInput, Cause: err}
	}
	if len(tours) == 0 {
		return Solution{}, &SolveError{Kind: KindInvalidInput, Cause: errEmptyTourSet}
	}
	if err := tour.ValidateSet(tours); err != nil {
		return Solution{}, &SolveError{Kind: KindInvalidInput, Cause: err}
	}

	budget := clock.NewBudget(cfg.TimeBudget, 4096)
	solveCtx, cancel := context.WithDeadline(ctx, budget.Deadline())
	defer cancel()

	tourIDs := make([]string, len(tours))
	for i, t := range tours {
		tourIDs[i] = t.ID
	}

	pool := block.NewBuilder(blockBuildConfig(cfg)).Build(tours)
	idx := blockindex.Build(pool)

	lb := lowerbound.Compute(tours, pool, lowerbound.Config{
		MaxWeeklyMinutes: int(cfg.WeeklyMax),
		MinRestMinutes:   cfg.MinRestMinutes,
	})

	cgCfg := cg.Config{
		MaxIterations:              int(cfg.MaxCGIterations),
		NewColumnsCapPerIter:       cfg.NewColumnsCapPerIter,
		RestrictedMIPEveryNIter:    cfg.RestrictedMIPEveryNIter,
		StoppingWindow:             cfg.StoppingWindow,
		StoppingTauFraction:        cfg.StoppingTauFraction,
		PoolRepairSupportThreshold: cfg.PoolRepairSupportThreshold,
		PoolMaxSize:                cfg.PoolMaxSize,
		RegularizationWeight:       cfg.RegularizationWeight,
		ArtificialCost:             cfg.ArtificialCost,
		Pricer: pricer.Config{
			MinRestMinutes:          cfg.MinRestMinutes,
			MaxWorkDays:             cfg.MaxWorkDays,
			WeeklyMinMinutes:        int(cfg.WeeklyMinFTE),
			WeeklyMaxMinutes:        int(cfg.WeeklyMax),
			WeekendWrapCountsGapDay: cfg.WeekendWrapCountsGapDay,
			MaxLabelsPerDay:         cfg.PricingBudgetK,
			TopK:                    int(cfg.MaxSuccPerTour) * int(cfg.TopMStartTours),
			WorkerCount:             cfg.WorkerCount,
			EpsilonReducedCost:      1e-6,
		},
	}

	mipCfg := restrictedmip.Config{
		VarCap:               int(cfg.RestrictedMIPVarCap),
		Seed:                 cfg.Seed,
		MaxWarmRestarts:      3,
		RegularizationWeight: cfg.RegularizationWeight,
		ArtificialCost:       cfg.ArtificialCost,
	}

	onIncumbent := func(p *column.Pool, tids []string) (cg.IncumbentResult, bool) {
		res, err := restrictedmip.Solve(solveCtx, p.All(), tids, mipCfg)
		if err != nil {
			return cg.IncumbentResult{}, false
		}
		return cg.IncumbentResult{SelectedColumnIDs: res.SelectedColumnIDs, Covered: res.Covered}, true
	}

	cgResult, err := cg.Run(solveCtx, idx, tourIDs, cgCfg, onIncumbent)
	if err != nil {
		return Solution{}, &SolveError{Kind: KindInfeasible, Cause: err}
	}

	finalMIPCfg := restrictedmip.Config{
		VarCap:               int(cfg.FinalSubsetCap),
		Seed:                 cfg.Seed,
		MaxWarmRestarts:      5,
		RegularizationWeight: cfg.RegularizationWeight,
		ArtificialCost:       cfg.ArtificialCost,
	}
	finalRes, mipErr := restrictedmip.Solve(solveCtx, cgResult.Pool.All(), tourIDs, finalMIPCfg)

	if zeroSupport := zeroSupportTours(cgResult.Pool, finalRes.UncoveredTourIDs); len(zeroSupport) > 0 {
		logger.Warn("zero-support tours detected, retrying once with uncapped singletons",
			zap.Strings("tours", zeroSupport))

		retryErr := retry.Do(
			func() error {
				want := make(map[string]struct{}, len(zeroSupport))
				for _, id := range zeroSupport {
					want[id] = struct{}{}
				}
				for _, c := range cg.SeedSingletons(idx) {
					for tid := range c.TourIDs {
						if _, ok := want[tid]; ok {
							cgResult.Pool.Add(c, cgResult.Iterations)
							break
						}
					}
				}
				res, err := restrictedmip.Solve(solveCtx, cgResult.Pool.All(), tourIDs, finalMIPCfg)
				if err != nil {
					return err
				}
				finalRes = res
				mipErr = nil
				if !res.Covered {
					return restrictedmip.ErrInfeasibleUnderCap
				}
				return nil
			},
			retry.Attempts(1), retry.Context(solveCtx), retry.LastErrorOnly(true),
		)
		if retryErr != nil && !finalRes.Covered {
			return Solution{}, &SolveError{Kind: KindZeroSupport, UncoveredTours: zeroSupport}
		}
	}

	status := StatusOptimal
	if cgResult.StopReason != cg.StopNoImprovingColumns && cgResult.StopReason != cg.StopConverged {
		status = StatusFeasible
	}
	if ctxErr := solveCtx.Err(); ctxErr != nil {
		if ctx.Err() != nil {
			status = StatusCancelled
		} else {
			status = StatusTimeout
		}
	}

	if mipErr != nil || !finalRes.Covered {
		if status == StatusCancelled {
			return Solution{}, &SolveError{Kind: KindCancelled}
		}
		if status == StatusTimeout {
			return Solution{}, &SolveError{Kind: KindTimeout, UncoveredTours: finalRes.UncoveredTourIDs}
		}
		return Solution{}, &SolveError{Kind: KindInfeasible, UncoveredTours: finalRes.UncoveredTourIDs}
	}

	selected := selectedColumns(cgResult.Pool, finalRes.SelectedColumnIDs)

	lnsCfg := lns.Config{
		Rounds:           8,
		DestroyByDriverK: 2,
		Seed:             cfg.Seed,
		Metrics: lns.MetricsConfig{
			WeeklyMinFTE: cfg.WeeklyMinFTE,
			WeeklyMax:    cfg.WeeklyMax,
			FTEThreshold: cfg.FTEThreshold,
			PTMin:        cfg.PTMin,
		},
		RestrictedMIP: mipCfg,
	}
	lnsResult, err := lns.Run(solveCtx, selected, cgResult.Pool, tourIDs, lnsCfg)
	if err != nil {
		logger.Warn("lns refinement failed, falling back to pre-lns incumbent", zap.Error(err))
	} else {
		selected = lnsResult.Selected
	}

	assignCfg := assignment.Config{FTEThreshold: cfg.FTEThreshold}
	assignments := assignment.Classify(selected, assignCfg)
	uncovered := assignment.Uncovered(assignments, tourIDs, assignment.ReasonNone)

	valCfg := validator.Config{
		PauseMinReg: cfg.PauseMinReg, PauseMaxReg: cfg.PauseMaxReg,
		SplitMin: cfg.SplitMin, SplitMax: cfg.SplitMax,
		MaxSpanReg: cfg.MaxSpanReg, MaxSpanSplit: cfg.MaxSpanSplit,
		MaxTriplesSplitGaps: cfg.MaxTriplesSplitGaps,
		InclusiveUpper:      cfg.PauseBoundaryInclusiveUpper,
		InclusiveLower:      cfg.PauseBoundaryInclusiveLower,
		MinRestMinutes:          cfg.MinRestMinutes,
		MaxWorkDays:             cfg.MaxWorkDays,
		WeeklyMinFTE:            cfg.WeeklyMinFTE,
		WeeklyMax:               cfg.WeeklyMax,
		FTEThreshold:            cfg.FTEThreshold,
		PTMin:                   cfg.PTMin,
		WeekendWrapCountsGapDay: cfg.WeekendWrapCountsGapDay,
	}
	violations, valErr := validator.Validate(assignments, tourIDs, valCfg)
	if valErr != nil {
		logger.Error("validation failed", zap.Int("violation_count", len(violations)))
		return Solution{}, &SolveError{Kind: KindValidationFailed, Cause: valErr}
	}

	kpis := computeKPIs(assignments, lb)
	telemetry := evidence.Telemetry{
		CGIterations:    cgResult.Iterations,
		PoolSizeHistory: cgResult.PoolSizeHistory,
		LPObjHistory:    cgResult.LPObjHistory,
	}

	hash := evidence.Hash(evidence.EchoTours(tours), configEcho(cfg), finalRes.SelectedColumnIDs)

	logger.Info("solve complete", zap.String("status", status.String()), zap.Int("drivers", len(assignments)))

	return Solution{
		RunID:        runID,
		Status:       status,
		Assignments:  assignments,
		Uncovered:    uncovered,
		KPIs:         kpis,
		Telemetry:    telemetry,
		LB:           lb,
		EvidenceHash: hash,
	}, nil
}

func newLogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func blockBuildConfig(cfg config.SolverConfig) block.BuildConfig {
	return block.BuildConfig{
		PauseMinReg: cfg.PauseMinReg, PauseMaxReg: cfg.PauseMaxReg,
		SplitMin: cfg.SplitMin, SplitMax: cfg.SplitMax,
		MaxSpanReg: cfg.MaxSpanReg, MaxSpanSplit: cfg.MaxSpanSplit,
		MaxTriplesSplitGaps: cfg.MaxTriplesSplitGaps,
		InclusiveUpper:      cfg.PauseBoundaryInclusiveUpper,
		InclusiveLower:      cfg.PauseBoundaryInclusiveLower,
		Alpha:               1, Beta: 0.1, Gamma: 50, Delta: 80, Epsilon: 20,
		GlobalTopN:  int(cfg.TopMStartTours) * int(cfg.MaxSuccPerTour),
		CapQuota2er: cfg.CapQuota2er,
	}
}

// zeroSupportTours narrows uncoveredIDs to the subset with zero pool
// support at all (no column, not even a singleton, currently covers
// them) -- spec.md §7's ZERO_SUPPORT condition, distinct from tours that
// simply lost out to the restricted-MIP's var cap.
func zeroSupportTours(pool *column.Pool, uncoveredIDs []string) []string {
	if len(uncoveredIDs) == 0 {
		return nil
	}
	support := pool.Support(uncoveredIDs)
	var out []string
	for _, id := range uncoveredIDs {
		if support[id] == 0 {
			out = append(out, id)
		}
	}
	return out
}

func selectedColumns(pool *column.Pool, ids []string) []column.Column {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []column.Column
	for _, c := range pool.All() {
		if _, ok := want[c.ID]; ok {
			out = append(out, c)
		}
	}
	return out
}

func computeKPIs(assignments []assignment.Assignment, lb lowerbound.Result) evidence.KPIs {
	blockCounts := map[string]int{"1er": 0, "2er": 0, "3er": 0}
	var ftes, pts int
	var totalMinutes int

	for _, a := range assignments {
		if a.Type == assignment.FTE {
			ftes++
		} else {
			pts++
		}
		totalMinutes += a.Column.TotalWorkMinutes
		for _, b := range a.Column.Blocks {
			switch b.Size() {
			case 1:
				blockCounts["1er"]++
			case 2:
				blockCounts["2er"]++
			case 3:
				blockCounts["3er"]++
			}
		}
	}

	total := len(assignments)
	avgHours := 0.0
	ptShare := 0.0
	if total > 0 {
		avgHours = float64(totalMinutes) / float64(total) / 60.0
		ptShare = float64(pts) / float64(total)
	}

	return evidence.KPIs{
		DriversTotal: total,
		DriversFTE:   ftes,
		DriversPT:    pts,
		Coverage:     1.0,
		BlockCounts:  blockCounts,
		PTShare:      ptShare,
		AvgHours:     avgHours,
		LBFinal:      lb.Final,
		LBFleet:      lb.FleetLB,
		LBHours:      lb.HoursLB,
		LBGraph:      lb.ChainLB,
	}
}

func configEcho(cfg config.SolverConfig) map[string]string {
	return map[string]string{
		"seed":                   fmt.Sprintf("%d", cfg.Seed),
		"time_budget_seconds":    fmt.Sprintf("%v", cfg.TimeBudget.Seconds()),
		"max_cg_iterations":      fmt.Sprintf("%d", cfg.MaxCGIterations),
		"restricted_mip_var_cap": fmt.Sprintf("%d", cfg.RestrictedMIPVarCap),
		"final_subset_cap":       fmt.Sprintf("%d", cfg.FinalSubsetCap),
		"cap_quota_2er":          fmt.Sprintf("%v", cfg.CapQuota2er),
		"weekly_min_fte":         fmt.Sprintf("%d", cfg.WeeklyMinFTE),
		"weekly_max":             fmt.Sprintf("%d", cfg.WeeklyMax),
		"fte_threshold":          fmt.Sprintf("%d", cfg.FTEThreshold),
		"pt_min":                 fmt.Sprintf("%d", cfg.PTMin),
		"output_profile":         cfg.OutputProfile.String(),
		"min_rest_minutes":       fmt.Sprintf("%d", cfg.MinRestMinutes),
		"max_work_days":          fmt.Sprintf("%d", cfg.MaxWorkDays),
	}
}
