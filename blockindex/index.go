// Package blockindex provides fast, read-mostly lookups over a built
// Block pool: tour -> blocks, day -> blocks (sorted for determinism),
// and a per-day overlap graph, following the teacher's
// core/adjacency_list.go map-of-map adjacency discipline.
package blockindex

import (
	"sort"

	"github.com/rosterforge/shiftcore/block"
	"github.com/rosterforge/shiftcore/tour"
)

// Index is a snapshot-immutable view over a Block pool. It is built once
// per Solve call and read concurrently thereafter (spec.md §5: "the
// block index ... [is] read-only during pricing").
type Index struct {
	byID      map[string]block.Block
	byTour    map[string][]string          // tour ID -> block IDs containing it
	byDay     map[tour.Weekday][]string    // weekday -> block IDs, sorted by (first-start, id)
	overlap   map[string]map[string]struct{} // block ID -> set of block IDs sharing >=1 tour
}

// Build constructs an Index from every block in pool.
func Build(pool block.Pool) *Index {
	idx := &Index{
		byID:    make(map[string]block.Block),
		byTour:  make(map[string][]string),
		byDay:   make(map[tour.Weekday][]string),
		overlap: make(map[string]map[string]struct{}),
	}

	for day, blocks := range pool.ByDay {
		ids := make([]string, 0, len(blocks))
		for _, b := range blocks {
			idx.byID[b.ID] = b
			ids = append(ids, b.ID)
			for _, tid := range b.TourIDs() {
				idx.byTour[tid] = append(idx.byTour[tid], b.ID)
			}
		}
		sort.Slice(ids, func(i, j int) bool {
			bi, bj := idx.byID[ids[i]], idx.byID[ids[j]]
			if bi.FirstStart != bj.FirstStart {
				return bi.FirstStart < bj.FirstStart
			}
			return bi.ID < bj.ID
		})
		idx.byDay[day] = ids
	}

	idx.buildOverlap()

	return idx
}

// buildOverlap derives, for every block, the set of other blocks on the
// same day sharing at least one tour (used by the LNS refiner and the
// validator's cross-checks).
func (idx *Index) buildOverlap() {
	for _, ids := range idx.byDay {
		for _, tid := range ids {
			idx.overlap[tid] = make(map[string]struct{})
		}
		for _, b := range idx.blocksFor(ids) {
			for _, tourID := range b.TourIDs() {
				for _, otherID := range idx.byTour[tourID] {
					if otherID == b.ID {
						continue
					}
					if idx.byID[otherID].Day != b.Day {
						continue
					}
					idx.overlap[b.ID][otherID] = struct{}{}
				}
			}
		}
	}
}

func (idx *Index) blocksFor(ids []string) []block.Block {
	out := make([]block.Block, 0, len(ids))
	for _, id := range ids {
		out = append(out, idx.byID[id])
	}
	return out
}

// Block returns the block with the given ID and whether it exists.
func (idx *Index) Block(id string) (block.Block, bool) {
	b, ok := idx.byID[id]
	return b, ok
}

// BlocksForTour returns the IDs of every retained block containing tour id.
func (idx *Index) BlocksForTour(tourID string) []string {
	return idx.byTour[tourID]
}

// BlocksForDay returns block IDs for weekday d, sorted by (first-start, id).
func (idx *Index) BlocksForDay(d tour.Weekday) []string {
	return idx.byDay[d]
}

// Overlapping returns the IDs of blocks sharing at least one tour with blockID.
func (idx *Index) Overlapping(blockID string) []string {
	set := idx.overlap[blockID]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// AllTourIDs returns every tour ID with at least one retained block,
// sorted for deterministic iteration by callers (e.g. pool-repair anchoring).
func (idx *Index) AllTourIDs() []string {
	out := make([]string, 0, len(idx.byTour))
	for id := range idx.byTour {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
