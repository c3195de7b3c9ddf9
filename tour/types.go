// Package tour defines the canonical Tour record and the week-anchored
// time axis that every other package in shiftcore builds on.
//
// A week is a single linear minute axis anchored at Monday 00:00. A Tour
// on TUE at 09:00 has StartMinute = 1*1440 + 9*60. Cross-midnight tours
// (e.g. SAT 23:00 -> SUN 01:00) expand naturally on this axis: they are
// simply tours whose EndMinute lands past the weekday boundary of their
// nominal Day, never a special case in the arithmetic.
package tour

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for tour construction and validation.
var (
	// ErrEmptyID indicates a Tour was built with an empty identifier.
	ErrEmptyID = errors.New("tour: id is empty")

	// ErrDuplicateID indicates two tours in the same input share an ID.
	ErrDuplicateID = errors.New("tour: duplicate id")

	// ErrZeroDuration indicates a tour whose start equals its end (or end before start).
	ErrZeroDuration = errors.New("tour: non-positive duration")

	// ErrTooLong indicates a tour duration exceeds the configured MaxTourDuration.
	ErrTooLong = errors.New("tour: duration exceeds maximum")
)

// Weekday enumerates the seven days of the planning week, ordered MON..SUN
// so that int(Weekday) is also the day's 0-based offset on the week axis.
type Weekday int

const (
	MON Weekday = iota
	TUE
	WED
	THU
	FRI
	SAT
	SUN
)

// MinutesPerDay is the length in minutes of one weekday on the week axis.
const MinutesPerDay = 24 * 60

// MinutesPerWeek is the length in minutes of the full week axis.
const MinutesPerWeek = 7 * MinutesPerDay

// String renders the Weekday using its canonical three-letter abbreviation.
func (d Weekday) String() string {
	names := [...]string{"MON", "TUE", "WED", "THU", "FRI", "SAT", "SUN"}
	if d < MON || d > SUN {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}

	return names[d]
}

// WrapRestMinutes computes inter-day rest across the week boundary, from
// the last worked day's block end to the first worked day's block start
// of the following cycle (spec.md §4.4: "Cross-weekend wrap (SAT->MON)
// also requires rest >= MIN_REST, treat as two-day gap"). lastEnd and
// firstStart are LOCAL minutes within their respective days (0..
// MinutesPerDay), not week-axis minutes.
//
// This resolves the open question at spec.md §9 (24h x 2 vs counting
// Sunday as a gap day): when countGapDay is true, every off day between
// lastDay and the next occurrence of firstDay contributes a full day to
// the gap, mirroring the in-week rule that gap days always satisfy
// rest. When false, the wrap credits no intervening off day except the
// literal SAT->MON case spec.md §4.4 names, which always uses the fixed
// two-day span regardless of whether Sunday itself was free.
func WrapRestMinutes(lastDay Weekday, lastEnd int, firstDay Weekday, firstStart int, countGapDay bool) int {
	wrapDays := 1
	switch {
	case countGapDay:
		wrapDays = int(SUN-lastDay) + 1 + int(firstDay)
	case lastDay == SAT && firstDay == MON:
		wrapDays = 2
	}
	return wrapDays*MinutesPerDay - lastEnd + firstStart
}

// IsWeekendWrapFatiguePair reports whether lastDay/firstDay are the SAT->MON
// pair spec.md §4.4 names for the fatigue rule ("SAT->MON counts if both
// worked"). Unlike rest, the wrap fatigue rule is unconditional -- it does
// not branch on WeekendWrapCountsGapDay.
func IsWeekendWrapFatiguePair(lastDay, firstDay Weekday) bool {
	return lastDay == SAT && firstDay == MON
}

// ParseWeekday reverses String, accepting a canonical three-letter
// abbreviation (case-insensitive). Used by JSON ingest, where days
// travel as strings.
func ParseWeekday(s string) (Weekday, error) {
	switch strings.ToUpper(s) {
	case "MON":
		return MON, nil
	case "TUE":
		return TUE, nil
	case "WED":
		return WED, nil
	case "THU":
		return THU, nil
	case "FRI":
		return FRI, nil
	case "SAT":
		return SAT, nil
	case "SUN":
		return SUN, nil
	default:
		return 0, fmt.Errorf("tour: unrecognized weekday %q", s)
	}
}

// Tour is an immutable atomic work interval on one weekday.
//
// StartMinute and EndMinute are measured from the week anchor (MON 00:00),
// so StartMinute == int(Day)*MinutesPerDay + minutesOfDayAtStart. Duration
// is derived, never stored redundantly.
type Tour struct {
	ID          string
	Day         Weekday
	StartMinute int
	EndMinute   int
}

// Duration returns the tour's length in minutes.
func (t Tour) Duration() int { return t.EndMinute - t.StartMinute }

// New builds a Tour from a weekday and clock-local start/end minutes
// (minutes since that weekday's own midnight). end may exceed
// MinutesPerDay to express a cross-midnight tour. New places no upper
// bound on end itself; only maxDuration limits a tour's length.
//
// Validation:
//  1. id must be non-empty (ErrEmptyID).
//  2. localEnd must be > localStart (ErrZeroDuration).
//  3. resulting duration must be <= maxDuration, when maxDuration > 0
//     (ErrTooLong); pass maxDuration <= 0 to skip this check.
func New(id string, day Weekday, localStart, localEnd, maxDuration int) (Tour, error) {
	if id == "" {
		return Tour{}, ErrEmptyID
	}
	if localEnd <= localStart {
		return Tour{}, fmt.Errorf("%w: id=%s start=%d end=%d", ErrZeroDuration, id, localStart, localEnd)
	}

	anchor := int(day) * MinutesPerDay
	t := Tour{
		ID:          id,
		Day:         day,
		StartMinute: anchor + localStart,
		EndMinute:   anchor + localEnd,
	}

	if maxDuration > 0 && t.Duration() > maxDuration {
		return Tour{}, fmt.Errorf("%w: id=%s duration=%d max=%d", ErrTooLong, id, t.Duration(), maxDuration)
	}

	return t, nil
}

// ValidateSet checks ingest-level invariants across a batch of tours:
// non-empty, unique IDs, and (via New's own checks, already applied)
// positive duration. Callers normally construct Tours with New and then
// call ValidateSet once on the full week's batch to catch duplicates.
func ValidateSet(tours []Tour) error {
	seen := make(map[string]struct{}, len(tours))
	for _, t := range tours {
		if t.ID == "" {
			return ErrEmptyID
		}
		if t.Duration() <= 0 {
			return fmt.Errorf("%w: id=%s", ErrZeroDuration, t.ID)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: id=%s", ErrDuplicateID, t.ID)
		}
		seen[t.ID] = struct{}{}
	}

	return nil
}
