// Package shiftcore solves the weekly driver-shift covering problem:
// given a week of atomic tours, build admissible work blocks, generate
// full weekly roster columns, and select a minimum-cost covering set via
// column generation over a set-partitioning LP, restricted-MIP integer
// restoration, and optional large-neighborhood-search refinement.
//
// The pipeline, in order:
//
//	tour/         — the canonical Tour record and week-anchored time axis
//	block/        — per-weekday admissible block enumeration and capping
//	blockindex/   — tour -> admissible-block lookup
//	lowerbound/   — fleet/hours/chain lower bounds on driver count
//	column/       — weekly Roster Column and the de-duplicated Pool
//	pricer/       — SPPRC shortest-path pricing for new columns
//	masterlp/     — the relaxed set-partitioning LP
//	cg/           — the column-generation loop tying pricer and masterlp together
//	restrictedmip/— integer restoration over the current pool
//	lns/          — post-MIP large-neighborhood-search refinement
//	assignment/   — FTE/PT classification and stable driver-id assignment
//	validator/    — independent re-verification of a finished solution
//	evidence/     — deterministic run hashing and the persisted evidence bundle
//	config/       — the typed solver configuration
//	solver/       — the top-level Solve entrypoint wiring every phase together
//	cmd/shiftcli/ — the CLI surface
//
// See SPEC_FULL.md for the full specification this module implements.
package shiftcore
