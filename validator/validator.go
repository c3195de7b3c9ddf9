// Package validator independently re-verifies a finished solution
// against every hard rule in spec.md §4.1/§4.4/§4.10 (spec.md §4.11:
// "Independent final check (not reusing solver logic)"). Gaps, pause
// zones and spans are recomputed directly from each block's Tours rather
// than read from the Block's Zone/Span/HasSplit fields. Rest checks use
// the Block's FirstStart/LastEnd, the weekly bounds use the Column's
// TotalWorkMinutes, and coverage uses the Column's TourIDs.
//
// Violations are collected, never short-circuited on the first failure,
// following the teacher's discipline that algorithms return structured
// errors rather than panicking (builder/errors.go); go.uber.org/multierr
// aggregates the full violation list into one returned error.
package validator

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"

	"github.com/rosterforge/shiftcore/assignment"
	"github.com/rosterforge/shiftcore/block"
	"github.com/rosterforge/shiftcore/tour"
)

// Violation is one structured finding.
type Violation struct {
	DriverID string
	Code     string
	Detail   string
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s: %s", v.DriverID, v.Code, v.Detail)
}

// Violation codes.
const (
	CodeGapNotAdmissible  = "GAP_NOT_ADMISSIBLE"
	CodeSpanTooLong       = "SPAN_TOO_LONG"
	CodeTooManySplitGaps  = "TOO_MANY_SPLIT_GAPS"
	CodeOverlap           = "TOUR_OVERLAP"
	CodeRestViolation     = "REST_VIOLATION"
	CodeFatigueViolation  = "FATIGUE_VIOLATION"
	CodeWeeklyBounds      = "WEEKLY_BOUNDS_VIOLATION"
	CodeMaxWorkDays       = "MAX_WORK_DAYS_VIOLATION"
	CodeCoverageMissing   = "COVERAGE_MISSING"
	CodeCoverageDuplicate = "COVERAGE_DUPLICATE"
)

// Config carries every admissibility constant the validator needs,
// independent of the config package so this stays a standalone,
// trivially unit-testable re-derivation.
type Config struct {
	PauseMinReg, PauseMaxReg       int
	SplitMin, SplitMax             int
	MaxSpanReg, MaxSpanSplit       int
	MaxTriplesSplitGaps            int
	InclusiveUpper, InclusiveLower bool

	MinRestMinutes int
	MaxWorkDays    int

	// WeekendWrapCountsGapDay resolves spec.md §9's SAT->MON rest open
	// question the same way pricer.Config does -- see tour.WrapRestMinutes.
	WeekendWrapCountsGapDay bool

	WeeklyMinFTE uint32
	WeeklyMax    uint32
	FTEThreshold uint32
	PTMin        uint32
}

// Validate checks every assignment against cfg and the full tour
// universe, returning a multierr-aggregated error (nil if clean) and
// the structured violation list for evidence bundles.
func Validate(assignments []assignment.Assignment, tourIDs []string, cfg Config) ([]Violation, error) {
	var violations []Violation

	for _, a := range assignments {
		violations = append(violations, validateColumn(a, cfg)...)
	}
	violations = append(violations, validateCoverage(assignments, tourIDs)...)

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].DriverID != violations[j].DriverID {
			return violations[i].DriverID < violations[j].DriverID
		}
		return violations[i].Code < violations[j].Code
	})

	var err error
	for _, v := range violations {
		err = multierr.Append(err, v)
	}

	return violations, err
}

func validateColumn(a assignment.Assignment, cfg Config) []Violation {
	var out []Violation

	days := make([]tour.Weekday, 0, len(a.Column.Blocks))
	for d := range a.Column.Blocks {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	if cfg.MaxWorkDays > 0 && len(days) > cfg.MaxWorkDays {
		out = append(out, Violation{a.DriverID, CodeMaxWorkDays, fmt.Sprintf("days_worked=%d max=%d", len(days), cfg.MaxWorkDays)})
	}

	var prevEnd int
	var prevDay tour.Weekday
	var prevWasTriple bool
	havePrev := false

	for _, d := range days {
		b := a.Column.Blocks[d]

		out = append(out, validateBlockAdmissibility(a.DriverID, b, cfg)...)

		if havePrev {
			rest := b.FirstStart - prevEnd
			if rest < cfg.MinRestMinutes {
				out = append(out, Violation{a.DriverID, CodeRestViolation,
					fmt.Sprintf("rest=%d min between %s and %s, required>=%d", rest, prevDay, d, cfg.MinRestMinutes)})
			}
			if prevWasTriple && b.Size() == 3 && int(d) == int(prevDay)+1 {
				out = append(out, Violation{a.DriverID, CodeFatigueViolation,
					fmt.Sprintf("3-tour blocks on consecutive days %s and %s", prevDay, d)})
			}
		}

		prevEnd = b.LastEnd
		prevDay = d
		prevWasTriple = b.Size() == 3
		havePrev = true
	}

	if len(days) >= 2 {
		out = append(out, validateWeekendWrap(a.DriverID, a.Column.Blocks[days[0]], a.Column.Blocks[days[len(days)-1]], cfg)...)
	}

	target := cfg.PTMin
	if uint32(a.Column.TotalWorkMinutes) >= cfg.FTEThreshold {
		target = cfg.WeeklyMinFTE
	}
	if uint32(a.Column.TotalWorkMinutes) < target || uint32(a.Column.TotalWorkMinutes) > cfg.WeeklyMax {
		out = append(out, Violation{a.DriverID, CodeWeeklyBounds,
			fmt.Sprintf("total_work_minutes=%d not in [%d,%d]", a.Column.TotalWorkMinutes, target, cfg.WeeklyMax)})
	}

	return out
}

// validateWeekendWrap independently re-derives spec.md §4.4's cross-weekend
// wrap rest and fatigue rule between a column's last worked day and its
// first worked day (the following cycle's occurrence) -- the one
// adjacency validateColumn's forward walk over sorted days can never
// reach, since it only ever compares consecutive entries within the
// same week.
func validateWeekendWrap(driverID string, first, last block.Block, cfg Config) []Violation {
	var out []Violation

	rest := tour.WrapRestMinutes(
		last.Day, last.LastEnd%tour.MinutesPerDay,
		first.Day, first.FirstStart%tour.MinutesPerDay,
		cfg.WeekendWrapCountsGapDay,
	)
	if rest < cfg.MinRestMinutes {
		out = append(out, Violation{driverID, CodeRestViolation,
			fmt.Sprintf("wrap rest=%d min between %s and %s, required>=%d", rest, last.Day, first.Day, cfg.MinRestMinutes)})
	}

	if last.Size() == 3 && first.Size() == 3 && tour.IsWeekendWrapFatiguePair(last.Day, first.Day) {
		out = append(out, Violation{driverID, CodeFatigueViolation,
			fmt.Sprintf("3-tour blocks on wrapped consecutive days %s and %s", last.Day, first.Day)})
	}

	return out
}

// validateBlockAdmissibility re-derives every intra-block gap and the
// aggregate span directly from the block's Tours, independent of the
// Block's own precomputed Zone/Span/HasSplit fields.
func validateBlockAdmissibility(driverID string, b block.Block, cfg Config) []Violation {
	var out []Violation

	sorted := append([]tour.Tour(nil), b.Tours...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartMinute < sorted[j].StartMinute })

	splitGaps := 0
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.StartMinute < prev.EndMinute {
			out = append(out, Violation{driverID, CodeOverlap, fmt.Sprintf("%s overlaps %s", prev.ID, cur.ID)})
			continue
		}

		gap := cur.StartMinute - prev.EndMinute
		regOK := gap >= cfg.PauseMinReg && (gap < cfg.PauseMaxReg || (cfg.InclusiveUpper && gap == cfg.PauseMaxReg))
		splitOK := (gap > cfg.SplitMin || (cfg.InclusiveLower && gap == cfg.SplitMin)) && gap <= cfg.SplitMax

		switch {
		case regOK:
		case splitOK:
			splitGaps++
		default:
			out = append(out, Violation{driverID, CodeGapNotAdmissible, fmt.Sprintf("gap=%d between %s and %s", gap, prev.ID, cur.ID)})
		}
	}

	if cfg.MaxTriplesSplitGaps > 0 && splitGaps > cfg.MaxTriplesSplitGaps {
		out = append(out, Violation{driverID, CodeTooManySplitGaps, fmt.Sprintf("split_gaps=%d max=%d", splitGaps, cfg.MaxTriplesSplitGaps)})
	}

	if len(sorted) > 0 {
		span := sorted[len(sorted)-1].EndMinute - sorted[0].StartMinute
		spanCap := cfg.MaxSpanReg
		if splitGaps > 0 {
			spanCap = cfg.MaxSpanSplit
		}
		if span > spanCap {
			out = append(out, Violation{driverID, CodeSpanTooLong, fmt.Sprintf("span=%d cap=%d", span, spanCap)})
		}
	}

	return out
}

func validateCoverage(assignments []assignment.Assignment, tourIDs []string) []Violation {
	var out []Violation

	count := make(map[string]int, len(tourIDs))
	for _, id := range tourIDs {
		count[id] = 0
	}
	for _, a := range assignments {
		for t := range a.Column.TourIDs {
			count[t]++
		}
	}

	sorted := append([]string(nil), tourIDs...)
	sort.Strings(sorted)
	for _, t := range sorted {
		switch n := count[t]; {
		case n == 0:
			out = append(out, Violation{"-", CodeCoverageMissing, fmt.Sprintf("tour %s has no covering roster", t)})
		case n > 1:
			out = append(out, Violation{"-", CodeCoverageDuplicate, fmt.Sprintf("tour %s covered by %d rosters", t, n)})
		}
	}

	return out
}
