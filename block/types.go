// Package block builds, scores, and caps the per-weekday pool of
// admissible Blocks (1-3 tours bundled into one shift) that the rest of
// the pipeline chains into weekly rosters.
//
// Following the teacher's builder package convention, construction is
// expressed as a set of small, pure impl functions behind one exported
// entrypoint (Builder.Build), with a plain BuildConfig struct passed once
// to NewBuilder and sentinel errors for anything a caller can branch on.
package block

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rosterforge/shiftcore/tour"
)

// Sentinel errors. Block construction never fails on degenerate input
// (spec.md §4.1 "Never fails") -- these are returned only by the
// unexported buildFromTours helper that Builder runs on every candidate
// combination.
var (
	// ErrDifferentDay indicates tours from more than one weekday were combined.
	ErrDifferentDay = errors.New("block: tours span more than one day")
	// ErrOverlap indicates two tours in the same block overlap in time.
	ErrOverlap = errors.New("block: tours overlap")
	// ErrGapNotAdmissible indicates an inter-tour gap falls in neither pause zone.
	ErrGapNotAdmissible = errors.New("block: gap not in REGULAR or SPLIT zone")
	// ErrSpanTooLong indicates the block's span exceeds its zone's cap.
	ErrSpanTooLong = errors.New("block: span exceeds cap for zone")
	// ErrTooManySplitGaps indicates more SPLIT gaps than policy allows in one block.
	ErrTooManySplitGaps = errors.New("block: too many split gaps")
	// ErrEmpty indicates an attempt to build a block from zero tours.
	ErrEmpty = errors.New("block: no tours given")
)

// PauseZone classifies the gap between two consecutive tours in a Block.
type PauseZone int

const (
	// ZoneNone marks a block with no internal gap (singleton) or, as a
	// rank value, "not applicable" -- ranked last for deterministic sorts.
	ZoneNone PauseZone = iota
	// ZoneRegular is a short in-shift pause (spec.md: 30-60 min by default).
	ZoneRegular
	// ZoneSplit is a long split-shift pause (spec.md: exactly 360 min by default).
	ZoneSplit
)

// Rank orders zones REGULAR(1) < SPLIT(2) < NONE(99); buildFromTours uses
// it to pick the highest-ranked gap zone as a multi-tour block's Zone,
// mirroring original_source/backend_py/src/domain/pause_zone.py's canonical rank table.
func (z PauseZone) Rank() int {
	switch z {
	case ZoneRegular:
		return 1
	case ZoneSplit:
		return 2
	default:
		return 99
	}
}

// String renders the zone name for logs and evidence.
func (z PauseZone) String() string {
	switch z {
	case ZoneRegular:
		return "REGULAR"
	case ZoneSplit:
		return "SPLIT"
	default:
		return "NONE"
	}
}

// Block is an immutable bundle of 1-3 tours on the same weekday, ordered
// by start time. All derived attributes are computed once at
// construction time and never recomputed.
type Block struct {
	ID   string
	Day  tour.Weekday
	Tours []tour.Tour // ordered by StartMinute

	FirstStart  int
	LastEnd     int
	Span        int
	WorkMinutes int
	Zone        PauseZone // NONE for singletons, else the "worst" (highest-rank) gap in the block
	HasSplit    bool
	Score       float64
}

// Size returns the number of tours bundled in the block (1, 2, or 3).
func (b Block) Size() int { return len(b.Tours) }

// TourIDs returns the block's tour IDs in block order (by start time).
func (b Block) TourIDs() []string {
	ids := make([]string, len(b.Tours))
	for i, t := range b.Tours {
		ids[i] = t.ID
	}
	return ids
}

// deriveID computes a stable block ID from the sorted tour-id tuple, so
// that two blocks covering the same tours always compare equal by ID
// regardless of enumeration order (spec.md §3: "stable block-id derived
// from sorted tour-ids").
func deriveID(tourIDs []string) string {
	sorted := append([]string(nil), tourIDs...)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, "|")))
	return "B-" + hex.EncodeToString(sum[:])[:12]
}

// classifyGap reports the PauseZone for a gap of the given length, using
// the configured boundaries and inclusivity rules (spec.md §9 Open
// Questions, resolved in config.SolverConfig).
func classifyGap(gapMinutes, pauseMinReg, pauseMaxReg, splitMin, splitMax int, inclusiveUpper, inclusiveLower bool) PauseZone {
	regOK := gapMinutes >= pauseMinReg && (gapMinutes < pauseMaxReg || (inclusiveUpper && gapMinutes == pauseMaxReg))
	splitOK := (gapMinutes > splitMin || (inclusiveLower && gapMinutes == splitMin)) && gapMinutes <= splitMax

	if regOK {
		return ZoneRegular
	}
	if splitOK {
		return ZoneSplit
	}
	return ZoneNone
}

// buildFromTours constructs a Block from tours already known to be on
// the same day and already sorted by start time, validating every
// inter-tour gap and the aggregate span. This is the single choke point
// every Builder path (singleton/pair/triple) funnels through.
func buildFromTours(sorted []tour.Tour, cfg gapConfig) (Block, error) {
	if len(sorted) == 0 {
		return Block{}, ErrEmpty
	}

	day := sorted[0].Day
	var worstZone PauseZone
	splitGaps := 0
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.Day != day {
			return Block{}, ErrDifferentDay
		}
		if cur.StartMinute < prev.EndMinute {
			return Block{}, fmt.Errorf("%w: %s overlaps %s", ErrOverlap, prev.ID, cur.ID)
		}

		gap := cur.StartMinute - prev.EndMinute
		zone := classifyGap(gap, cfg.PauseMinReg, cfg.PauseMaxReg, cfg.SplitMin, cfg.SplitMax, cfg.InclusiveUpper, cfg.InclusiveLower)
		if zone == ZoneNone {
			return Block{}, fmt.Errorf("%w: gap=%d between %s and %s", ErrGapNotAdmissible, gap, prev.ID, cur.ID)
		}
		if zone == ZoneSplit {
			splitGaps++
		}
		if worstZone == ZoneNone || zone.Rank() > worstZone.Rank() {
			worstZone = zone
		}
	}

	if cfg.MaxTriplesSplitGaps > 0 && splitGaps > cfg.MaxTriplesSplitGaps {
		return Block{}, ErrTooManySplitGaps
	}

	first := sorted[0].StartMinute
	last := sorted[len(sorted)-1].EndMinute
	span := last - first

	spanCap := cfg.MaxSpanReg
	if splitGaps > 0 {
		spanCap = cfg.MaxSpanSplit
	}
	if span > spanCap {
		return Block{}, fmt.Errorf("%w: span=%d cap=%d", ErrSpanTooLong, span, spanCap)
	}

	work := 0
	for _, t := range sorted {
		work += t.Duration()
	}

	ids := make([]string, len(sorted))
	for i, t := range sorted {
		ids[i] = t.ID
	}

	b := Block{
		ID:          deriveID(ids),
		Day:         day,
		Tours:       sorted,
		FirstStart:  first,
		LastEnd:     last,
		Span:        span,
		WorkMinutes: work,
		Zone:        worstZone,
		HasSplit:    splitGaps > 0,
	}
	b.Score = score(b, cfg)

	return b, nil
}

// gapConfig is the subset of config.SolverConfig that block construction
// needs; kept narrow so this package does not import config and create a
// dependency cycle risk as the module grows.
type gapConfig struct {
	PauseMinReg, PauseMaxReg   int
	SplitMin, SplitMax         int
	MaxSpanReg, MaxSpanSplit   int
	MaxTriplesSplitGaps        int
	InclusiveUpper, InclusiveLower bool

	// Scoring constants (spec.md §4.1's alpha/beta/gamma/delta/epsilon).
	Alpha, Beta, Gamma, Delta, Epsilon float64
}

// score computes the block's sort-key score: higher is better. Never a
// constraint, purely a capping/ordering signal (spec.md §4.1).
func score(b Block, cfg gapConfig) float64 {
	s := cfg.Alpha*float64(b.WorkMinutes) - cfg.Beta*float64(b.Span)
	if b.Size() >= 2 {
		s += cfg.Gamma
	}
	if b.Size() == 3 {
		s += cfg.Delta
	}
	if b.HasSplit {
		s -= cfg.Epsilon
	}
	return s
}
