// Package assignment turns a selected set of Roster Columns into the
// final output: classify each as FTE or PT (spec.md §4.10), assign
// stable driver IDs in lexicographic roster-id order, and emit the
// per-day driver x weekday matrix.
package assignment

import (
	"fmt"
	"sort"

	"github.com/rosterforge/shiftcore/column"
	"github.com/rosterforge/shiftcore/tour"
)

// DriverType is the FTE/PT classification of spec.md §4.10.
type DriverType int

const (
	// FTE is a full-time-equivalent driver (total work minutes >= FTEThreshold).
	FTE DriverType = iota
	// PT is a part-time driver.
	PT
)

// String renders the DriverType for logs and evidence.
func (t DriverType) String() string {
	if t == FTE {
		return "FTE"
	}
	return "PT"
}

// ReasonCode explains why a tour went unassigned, carried through from
// original_source/backend_py/src/domain/models.py's ReasonCode /
// UnassignedTour for the INFEASIBLE error payload (spec.md §7).
type ReasonCode int

const (
	// ReasonNone marks a tour that was successfully assigned.
	ReasonNone ReasonCode = iota
	// ReasonZeroSupport means no pool column ever covered the tour.
	ReasonZeroSupport
	// ReasonTimeout means the solver ran out of time before covering the tour.
	ReasonTimeout
	// ReasonInfeasible means the restricted MIP could not cover the tour under its cap.
	ReasonInfeasible
)

// String renders the ReasonCode for evidence bundles.
func (r ReasonCode) String() string {
	switch r {
	case ReasonZeroSupport:
		return "UNCOVERED_ZERO_SUPPORT"
	case ReasonTimeout:
		return "UNCOVERED_TIMEOUT"
	case ReasonInfeasible:
		return "UNCOVERED_INFEASIBLE"
	default:
		return "NONE"
	}
}

// Assignment is one driver's final roster: a stable driver ID, its
// classification, and the underlying Column.
type Assignment struct {
	DriverID string
	Type     DriverType
	Column   column.Column
}

// DayCell is one entry in the per-day matrix: the block worked (if any)
// and a human-readable summary.
type DayCell struct {
	Worked  bool
	BlockID string
	Summary string
}

// Config carries the classification thresholds, narrowed from
// config.SolverConfig.
type Config struct {
	FTEThreshold uint32
}

// Classify builds one Assignment per selected column, with driver IDs
// "D-0001", "D-0002", ... assigned in lexicographic roster-ID order so
// the mapping is stable and reproducible across identical runs (spec.md
// §4.10: "assign stable driver-ids in lexicographic order of roster-id").
func Classify(cols []column.Column, cfg Config) []Assignment {
	sorted := append([]column.Column(nil), cols...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	out := make([]Assignment, len(sorted))
	for i, c := range sorted {
		dtype := PT
		if uint32(c.TotalWorkMinutes) >= cfg.FTEThreshold {
			dtype = FTE
		}
		out[i] = Assignment{
			DriverID: fmt.Sprintf("D-%04d", i+1),
			Type:     dtype,
			Column:   c,
		}
	}
	return out
}

// Matrix builds the driver x weekday summary of spec.md §4.10: for each
// assignment, one DayCell per weekday.
func Matrix(assignments []Assignment) map[string]map[tour.Weekday]DayCell {
	out := make(map[string]map[tour.Weekday]DayCell, len(assignments))
	days := []tour.Weekday{tour.MON, tour.TUE, tour.WED, tour.THU, tour.FRI, tour.SAT, tour.SUN}

	for _, a := range assignments {
		row := make(map[tour.Weekday]DayCell, 7)
		for _, d := range days {
			b, worked := a.Column.Blocks[d]
			if !worked {
				row[d] = DayCell{Worked: false}
				continue
			}
			row[d] = DayCell{
				Worked:  true,
				BlockID: b.ID,
				Summary: fmt.Sprintf("%d tour(s), %d-%d, %dmin work", b.Size(), b.FirstStart%tour.MinutesPerDay, b.LastEnd%tour.MinutesPerDay, b.WorkMinutes),
			}
		}
		out[a.DriverID] = row
	}
	return out
}

// UncoveredTour pairs a tour ID with the reason it was not assigned.
type UncoveredTour struct {
	TourID string
	Reason ReasonCode
}

// Uncovered computes the set of tourIDs not covered by any assignment,
// tagging each with reason (the same ReasonCode applies to the whole
// batch -- the solver package distinguishes timeout vs. zero-support vs.
// infeasible-under-cap at the call site).
func Uncovered(assignments []Assignment, tourIDs []string, reason ReasonCode) []UncoveredTour {
	covered := make(map[string]struct{})
	for _, a := range assignments {
		for t := range a.Column.TourIDs {
			covered[t] = struct{}{}
		}
	}

	var out []UncoveredTour
	sorted := append([]string(nil), tourIDs...)
	sort.Strings(sorted)
	for _, t := range sorted {
		if _, ok := covered[t]; !ok {
			out = append(out, UncoveredTour{TourID: t, Reason: reason})
		}
	}
	return out
}
