package block

import (
	"sort"

	"github.com/samber/lo"

	"github.com/rosterforge/shiftcore/tour"
)

// BuildConfig is the block builder's resolved configuration, narrowed
// from config.SolverConfig by the caller (solver package) so this
// package stays free of a dependency on config and can be unit-tested
// with hand-built literals, exactly as the teacher's algorithms package
// takes plain Options rather than a whole-program config.
type BuildConfig struct {
	PauseMinReg, PauseMaxReg       int
	SplitMin, SplitMax             int
	MaxSpanReg, MaxSpanSplit       int
	MaxTriplesSplitGaps            int
	InclusiveUpper, InclusiveLower bool

	Alpha, Beta, Gamma, Delta, Epsilon float64

	// GlobalTopN is the total retained-block budget across all active days.
	GlobalTopN int
	// CapQuota2er is the soft target fraction of the non-singleton budget
	// reserved for 2-tour blocks (spec.md §4.1, §9: soft, not a hard floor).
	CapQuota2er float64
}

func (c BuildConfig) gapConfig() gapConfig {
	return gapConfig{
		PauseMinReg: c.PauseMinReg, PauseMaxReg: c.PauseMaxReg,
		SplitMin: c.SplitMin, SplitMax: c.SplitMax,
		MaxSpanReg: c.MaxSpanReg, MaxSpanSplit: c.MaxSpanSplit,
		MaxTriplesSplitGaps: c.MaxTriplesSplitGaps,
		InclusiveUpper:      c.InclusiveUpper, InclusiveLower: c.InclusiveLower,
		Alpha: c.Alpha, Beta: c.Beta, Gamma: c.Gamma, Delta: c.Delta, Epsilon: c.Epsilon,
	}
}

// Builder enumerates, scores, and caps the per-weekday Block pool.
type Builder struct {
	cfg BuildConfig
}

// NewBuilder returns a Builder configured with cfg.
func NewBuilder(cfg BuildConfig) *Builder {
	return &Builder{cfg: cfg}
}

// Pool is the per-weekday scored Block pool produced by Build.
type Pool struct {
	ByDay map[tour.Weekday][]Block
}

// All returns every retained block across all days, in no particular order.
func (p Pool) All() []Block {
	var out []Block
	for _, blocks := range p.ByDay {
		out = append(out, blocks...)
	}
	return out
}

// Build runs the four-step algorithm of spec.md §4.1 per weekday:
// singletons, admissible pairs, admissible triples, then score + cap.
// Build never fails; degenerate input yields a singleton-only pool.
func (b *Builder) Build(tours []tour.Tour) Pool {
	byDay := lo.GroupBy(tours, func(t tour.Tour) tour.Weekday { return t.Day })

	activeDays := len(byDay)

	pool := Pool{ByDay: make(map[tour.Weekday][]Block, len(byDay))}
	for day, dayTours := range byDay {
		pool.ByDay[day] = b.buildDay(dayTours, activeDays)
	}

	return pool
}

// buildDay enumerates all admissible blocks for one weekday's tours and
// applies the capping policy. activeDays is the number of distinct
// weekdays with at least one tour this week, used to spread
// GlobalTopN across the days that actually need a budget.
func (b *Builder) buildDay(dayTours []tour.Tour, activeDays int) []Block {
	sorted := append([]tour.Tour(nil), dayTours...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].StartMinute != sorted[j].StartMinute {
			return sorted[i].StartMinute < sorted[j].StartMinute
		}
		return sorted[i].ID < sorted[j].ID
	})

	gc := b.cfg.gapConfig()

	var singles, pairs, triples []Block

	for _, t := range sorted {
		blk, err := buildFromTours([]tour.Tour{t}, gc)
		if err == nil {
			singles = append(singles, blk)
		}
	}

	n := len(sorted)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if sorted[i].EndMinute > sorted[j].StartMinute {
				continue
			}
			blk, err := buildFromTours([]tour.Tour{sorted[i], sorted[j]}, gc)
			if err == nil {
				pairs = append(pairs, blk)
			}
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if sorted[i].EndMinute > sorted[j].StartMinute {
				continue
			}
			for k := j + 1; k < n; k++ {
				if sorted[j].EndMinute > sorted[k].StartMinute {
					continue
				}
				blk, err := buildFromTours([]tour.Tour{sorted[i], sorted[j], sorted[k]}, gc)
				if err == nil {
					triples = append(triples, blk)
				}
			}
		}
	}

	return b.cap(sorted, singles, pairs, triples, activeDays)
}

// cap applies the capping policy of spec.md §4.1: retain the top-N
// blocks by score for this day (global_top_n spread across active days),
// guaranteeing every tour keeps at least its singleton fallback and that
// 2-tour blocks receive at least their soft quota of the non-singleton
// budget. Ties break on lexicographic block ID for determinism.
func (b *Builder) cap(dayTours []tour.Tour, singles, pairs, triples []Block, activeDays int) []Block {
	if activeDays <= 0 {
		activeDays = 1
	}
	budget := b.cfg.GlobalTopN / activeDays
	if budget <= 0 {
		budget = len(dayTours)
	}

	nonSingletonBudget := budget - len(singles)
	if nonSingletonBudget < 0 {
		nonSingletonBudget = 0
	}

	pairBudget := int(float64(nonSingletonBudget) * b.cfg.CapQuota2er)
	if pairBudget > len(pairs) {
		pairBudget = len(pairs)
	}
	tripleBudget := nonSingletonBudget - pairBudget
	if tripleBudget > len(triples) {
		// Soft target: unused triple budget spills back to pairs (spec.md §9:
		// cap_quota_2er is a floor target, never a hard cap that starves pairs).
		spill := tripleBudget - len(triples)
		tripleBudget = len(triples)
		if extra := pairBudget + spill; extra <= len(pairs) {
			pairBudget = extra
		} else {
			pairBudget = len(pairs)
		}
	}

	sortByScoreDesc(pairs)
	sortByScoreDesc(triples)

	kept := append([]Block(nil), singles...)
	kept = append(kept, pairs[:pairBudget]...)
	kept = append(kept, triples[:tripleBudget]...)

	sortByScoreDesc(kept)
	return kept
}

func sortByScoreDesc(blocks []Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].Score != blocks[j].Score {
			return blocks[i].Score > blocks[j].Score
		}
		return blocks[i].ID < blocks[j].ID
	})
}
