// Package column defines the Roster Column (a weekly plan for one
// hypothetical driver) and the de-duplicated, capacity-bounded Pool of
// columns that the master LP and pricer operate over.
package column

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/rosterforge/shiftcore/block"
	"github.com/rosterforge/shiftcore/internal/detset"
	"github.com/rosterforge/shiftcore/tour"
)

// Column is a weekly plan for one hypothetical driver: at most one
// Block per weekday. All attributes are derived once and the Column is
// treated as immutable thereafter, matching the teacher's
// clone-then-mutate discipline for shared structures.
type Column struct {
	ID string

	// Blocks maps weekday -> the Block worked that day; absent days are
	// days off. Callers should prefer DaysWorked() for sorted iteration.
	Blocks map[tour.Weekday]block.Block

	TourIDs         map[string]struct{}
	BlockIDs        map[string]struct{}
	TotalWorkMinutes int
	DaysWorkedCount  int
	MaxDaySpan       int
}

// DaysWorked returns the weekdays this column works, sorted MON..SUN.
func (c Column) DaysWorked() []tour.Weekday {
	out := make([]tour.Weekday, 0, len(c.Blocks))
	for d := range c.Blocks {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CoversTour reports whether this column's blocks include tourID.
func (c Column) CoversTour(tourID string) bool {
	_, ok := c.TourIDs[tourID]
	return ok
}

// New builds a Column from a set of per-day blocks (one per worked day).
// It does not validate admissibility -- that is the pricer's and the
// validator's job; New only computes the derived attributes and the
// stable, content-derived roster ID.
func New(blocks map[tour.Weekday]block.Block) Column {
	tourIDs := make(map[string]struct{})
	blockIDs := make(map[string]struct{})
	total := 0
	maxSpan := 0

	sortedIDs := make([]string, 0, len(blocks))
	for _, b := range blocks {
		blockIDs[b.ID] = struct{}{}
		sortedIDs = append(sortedIDs, b.ID)
		total += b.WorkMinutes
		if b.Span > maxSpan {
			maxSpan = b.Span
		}
		for _, tid := range b.TourIDs() {
			tourIDs[tid] = struct{}{}
		}
	}
	sort.Strings(sortedIDs)

	return Column{
		ID:               deriveRosterID(sortedIDs),
		Blocks:           blocks,
		TourIDs:          tourIDs,
		BlockIDs:         blockIDs,
		TotalWorkMinutes: total,
		DaysWorkedCount:  len(blocks),
		MaxDaySpan:       maxSpan,
	}
}

// deriveRosterID computes a stable roster ID from the sorted block-id
// tuple (spec.md §3: "stable roster-id"), so the Pool can dedup by
// identity instead of deep comparison.
func deriveRosterID(sortedBlockIDs []string) string {
	sum := sha256.Sum256([]byte(strings.Join(sortedBlockIDs, "|")))
	return "R-" + hex.EncodeToString(sum[:])[:12]
}

// Key returns the Pool de-duplication key for this column: the sorted
// tuple of its block IDs joined with a separator that cannot appear in a
// block ID (block IDs are hex).
func (c Column) Key() string {
	ids := make([]string, 0, len(c.BlockIDs))
	for id := range c.BlockIDs {
		ids = append(ids, id)
	}
	return detset.New(ids...).Key()
}
