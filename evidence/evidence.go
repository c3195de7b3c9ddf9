// Package evidence computes the determinism-proof hash and, optionally,
// persists the forward-compatible JSON audit bundle described in
// spec.md §6. The hash binds the exact input tours, the resolved
// config, and the selected roster-id set, so two runs over identical
// inputs always yield identical output (spec.md §8, invariant 3).
package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/rosterforge/shiftcore/tour"
)

// SchemaVersion is bumped whenever the persisted bundle's shape changes
// in a way old readers cannot tolerate.
const SchemaVersion = 1

// KPIs mirrors spec.md §6's kpis record.
type KPIs struct {
	DriversTotal int            `json:"drivers_total"`
	DriversFTE   int            `json:"drivers_fte"`
	DriversPT    int            `json:"drivers_pt"`
	Coverage     float64        `json:"coverage"`
	BlockCounts  map[string]int `json:"block_counts"`
	PTShare      float64        `json:"pt_share"`
	AvgHours     float64        `json:"avg_hours"`
	LBFinal      int            `json:"lb_final"`
	LBFleet      int            `json:"lb_fleet"`
	LBHours      int            `json:"lb_hours"`
	LBGraph      int            `json:"lb_graph"`
}

// Telemetry mirrors spec.md §6's telemetry record.
type Telemetry struct {
	CGIterations    int       `json:"cg_iterations"`
	PoolSizeHistory []int     `json:"pool_size_history"`
	LPObjHistory    []float64 `json:"lp_obj_history"`
	PricerTimeMS    int64     `json:"pricer_time_ms"`
	MIPTimeMS       int64     `json:"mip_time_ms"`
}

// Bundle is the persisted evidence document of spec.md §6: inputs
// echo, resolved config, status, KPIs, selected roster-ids (sorted),
// and the evidence_hash itself.
type Bundle struct {
	SchemaVersion   int               `json:"schema_version"`
	Status          string            `json:"status"`
	Inputs          []InputTour       `json:"inputs"`
	ConfigEcho      map[string]string `json:"config"`
	KPIs            KPIs              `json:"kpis"`
	Telemetry       Telemetry         `json:"telemetry"`
	SelectedRosters []string          `json:"selected_roster_ids"`
	EvidenceHash    string            `json:"evidence_hash"`
}

// InputTour is the echoed input record.
type InputTour struct {
	ID    string `json:"id"`
	Day   string `json:"day"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// EchoTours converts the solved tour set into its JSON-echo form.
func EchoTours(tours []tour.Tour) []InputTour {
	out := make([]InputTour, len(tours))
	for i, t := range tours {
		out[i] = InputTour{ID: t.ID, Day: t.Day.String(), Start: t.StartMinute, End: t.EndMinute}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Hash computes the 256-bit determinism-proof hash of spec.md §6:
// sha256 over the canonical (sorted, delimited) encoding of the input
// tours, the resolved config key/value pairs, and the selected
// roster-id set. Canonicalization is order-independent: callers may
// pass inputs/config/rosterIDs in any order and get the same hash.
func Hash(tours []InputTour, config map[string]string, rosterIDs []string) string {
	h := sha256.New()

	sortedTours := append([]InputTour(nil), tours...)
	sort.Slice(sortedTours, func(i, j int) bool { return sortedTours[i].ID < sortedTours[j].ID })
	for _, t := range sortedTours {
		h.Write([]byte(t.ID))
		h.Write([]byte{0})
		h.Write([]byte(t.Day))
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(t.Start)))
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(t.End)))
		h.Write([]byte{1})
	}

	keys := make([]string, 0, len(config))
	for k := range config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(config[k]))
		h.Write([]byte{1})
	}

	sortedIDs := append([]string(nil), rosterIDs...)
	sort.Strings(sortedIDs)
	h.Write([]byte(strings.Join(sortedIDs, "\x00")))

	return hex.EncodeToString(h.Sum(nil))
}

// Marshal encodes a Bundle as indented JSON via goccy/go-json, the
// faster drop-in encoder the rest of the pack reaches for over
// encoding/json (SPEC_FULL.md domain-stack wiring).
func Marshal(b Bundle) ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}
