package lns

import "github.com/rosterforge/shiftcore/column"

// MetricsConfig carries the weekly-hour thresholds Metrics needs to
// compute unmet-hours and over-max-excess, narrowed from
// config.SolverConfig by the caller.
type MetricsConfig struct {
	WeeklyMinFTE uint32
	WeeklyMax    uint32
	FTEThreshold uint32
	PTMin        uint32
}

// Metrics is the lexicographic acceptance tuple of spec.md §4.9:
// (headcount, unmet hours, over-max excess, 1-tour share, split count).
// Every field is "lower is better"; acceptance compares tuples in this
// field order, each earlier field taking strict priority over every
// field that follows.
type Metrics struct {
	Headcount            int
	UnmetHoursMinutes    int
	OverMaxExcessMinutes int
	OneTourBlockCount    int
	SplitBlockCount      int
}

// Compute derives a Metrics snapshot for a candidate roster set.
func Compute(cols []column.Column, cfg MetricsConfig) Metrics {
	m := Metrics{Headcount: len(cols)}

	for _, c := range cols {
		target := cfg.PTMin
		if uint32(c.TotalWorkMinutes) >= cfg.FTEThreshold {
			target = cfg.WeeklyMinFTE
		}
		if shortfall := int(target) - c.TotalWorkMinutes; shortfall > 0 {
			m.UnmetHoursMinutes += shortfall
		}
		if excess := c.TotalWorkMinutes - int(cfg.WeeklyMax); excess > 0 {
			m.OverMaxExcessMinutes += excess
		}

		for _, b := range c.Blocks {
			if b.Size() == 1 {
				m.OneTourBlockCount++
			}
			if b.HasSplit {
				m.SplitBlockCount++
			}
		}
	}

	return m
}

// LessOrEqual reports whether m is no worse than other under
// lexicographic comparison -- spec.md §4.9's "monotone: incumbent never
// regresses" rule permits accepting a tying candidate, not only a
// strictly improving one.
func (m Metrics) LessOrEqual(other Metrics) bool {
	if m.Headcount != other.Headcount {
		return m.Headcount < other.Headcount
	}
	if m.UnmetHoursMinutes != other.UnmetHoursMinutes {
		return m.UnmetHoursMinutes < other.UnmetHoursMinutes
	}
	if m.OverMaxExcessMinutes != other.OverMaxExcessMinutes {
		return m.OverMaxExcessMinutes < other.OverMaxExcessMinutes
	}
	if m.OneTourBlockCount != other.OneTourBlockCount {
		return m.OneTourBlockCount < other.OneTourBlockCount
	}
	if m.SplitBlockCount != other.SplitBlockCount {
		return m.SplitBlockCount < other.SplitBlockCount
	}
	return true
}
