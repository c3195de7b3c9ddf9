// Command shiftcli exposes the shiftcore solver as a single `solve`
// subcommand, following the teacher's cmd/slurm-cli cobra wiring: a
// root command, flags bound to package-level vars, and one Run closure
// per subcommand that talks to the library and prints or exits.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rosterforge/shiftcore/config"
	"github.com/rosterforge/shiftcore/evidence"
	"github.com/rosterforge/shiftcore/solver"
	"github.com/rosterforge/shiftcore/tour"
)

var (
	inputPath  string
	configPath string
	outputPath string
	seed       uint64
	timeBudget float64
	profile    string

	rootCmd = &cobra.Command{
		Use:   "shiftcli",
		Short: "Weekly driver-shift optimization CLI",
	}

	solveCmd = &cobra.Command{
		Use:   "solve",
		Short: "Solve a weekly roster covering problem",
		RunE:  runSolve,
	}
)

func init() {
	solveCmd.Flags().StringVar(&inputPath, "input", "", "path to the tours JSON input (required)")
	solveCmd.Flags().StringVar(&configPath, "config", "", "path to a SolverConfig JSON overrides file (optional)")
	solveCmd.Flags().StringVar(&outputPath, "output", "", "path to write the evidence bundle JSON (optional)")
	solveCmd.Flags().Uint64Var(&seed, "seed", 0, "override the deterministic RNG seed (0 = use config default)")
	solveCmd.Flags().Float64Var(&timeBudget, "time-budget", 0, "override the overall time budget in seconds (0 = use config default)")
	solveCmd.Flags().StringVar(&profile, "profile", "", "override the output profile: MIN_HEADCOUNT, BEST_BALANCED, MIN_HEADCOUNT_3ER")
	_ = solveCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(solveCmd)
}

// inputDoc is the CLI's JSON ingest shape. encoding/json decodes it --
// no example in the pack offers a richer ingest codec for this exact
// shape, so the standard library is the right tool here (see DESIGN.md).
type inputDoc struct {
	Tours []inputTour `json:"tours"`
}

type inputTour struct {
	ID    string `json:"id"`
	Day   string `json:"day"`
	Start string `json:"start"` // "HH:MM", local to Day
	End   string `json:"end"`   // "HH:MM", may exceed 24:00 for a cross-midnight tour
}

// parseClock turns an "HH:MM" string into minutes since that day's own
// midnight, tolerating an hour field >= 24 to express a cross-midnight
// tour's end (e.g. "25:30" = 01:30 the following day).
func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid HH:MM clock %q: %w", s, err)
	}
	if m < 0 || m >= 60 || h < 0 {
		return 0, fmt.Errorf("invalid HH:MM clock %q", s)
	}
	return h*60 + m, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return exitErrorf(5, "reading input: %v", err)
	}

	var doc inputDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return exitErrorf(2, "parsing input: %v", err)
	}

	tours := make([]tour.Tour, 0, len(doc.Tours))
	for _, it := range doc.Tours {
		day, err := tour.ParseWeekday(it.Day)
		if err != nil {
			return exitErrorf(2, "tour %s: %v", it.ID, err)
		}
		localStart, err := parseClock(it.Start)
		if err != nil {
			return exitErrorf(2, "tour %s: %v", it.ID, err)
		}
		localEnd, err := parseClock(it.End)
		if err != nil {
			return exitErrorf(2, "tour %s: %v", it.ID, err)
		}
		tr, err := tour.New(it.ID, day, localStart, localEnd, 0)
		if err != nil {
			return exitErrorf(2, "tour %s: %v", it.ID, err)
		}
		tours = append(tours, tr)
	}

	cfg := config.Default()
	if configPath != "" {
		overrides, err := os.ReadFile(configPath)
		if err != nil {
			return exitErrorf(5, "reading config: %v", err)
		}
		if err := json.Unmarshal(overrides, &cfg); err != nil {
			return exitErrorf(2, "parsing config: %v", err)
		}
	}
	if seed != 0 {
		cfg.Seed = seed
	}
	if timeBudget > 0 {
		cfg.TimeBudget = time.Duration(timeBudget * float64(time.Second))
	}
	switch profile {
	case "MIN_HEADCOUNT":
		cfg.OutputProfile = config.MinHeadcount
	case "BEST_BALANCED":
		cfg.OutputProfile = config.BestBalanced
	case "MIN_HEADCOUNT_3ER":
		cfg.OutputProfile = config.MinHeadcount3er
	case "":
	default:
		return exitErrorf(2, "unknown --profile %q", profile)
	}

	sol, err := solver.Solve(context.Background(), tours, cfg)
	if err != nil {
		var solveErr *solver.SolveError
		if !asSolveError(err, &solveErr) {
			return exitErrorf(5, "solve: %v", err)
		}
		switch solveErr.Kind {
		case solver.KindInvalidInput:
			return exitErrorf(2, "%v", solveErr)
		case solver.KindInfeasible, solver.KindZeroSupport:
			return exitErrorf(3, "%v", solveErr)
		case solver.KindCancelled:
			return exitErrorf(4, "%v", solveErr)
		default:
			return exitErrorf(5, "%v", solveErr)
		}
	}

	fmt.Printf("status: %s, drivers: %d, evidence_hash: %s\n", sol.Status, sol.KPIs.DriversTotal, sol.EvidenceHash)

	if outputPath != "" {
		bundle := evidence.Bundle{
			SchemaVersion: evidence.SchemaVersion,
			Status:        sol.Status.String(),
			Inputs:        evidence.EchoTours(tours),
			ConfigEcho: map[string]string{
				"seed":           fmt.Sprintf("%d", cfg.Seed),
				"output_profile": cfg.OutputProfile.String(),
			},
			KPIs:            sol.KPIs,
			Telemetry:       sol.Telemetry,
			SelectedRosters: selectedRosterIDs(sol),
			EvidenceHash:    sol.EvidenceHash,
		}
		out, err := evidence.Marshal(bundle)
		if err != nil {
			return exitErrorf(5, "marshaling evidence bundle: %v", err)
		}
		if err := os.WriteFile(outputPath, out, 0o644); err != nil {
			return exitErrorf(5, "writing evidence bundle: %v", err)
		}
	}

	return nil
}

func selectedRosterIDs(sol solver.Solution) []string {
	ids := make([]string, 0, len(sol.Assignments))
	for _, a := range sol.Assignments {
		ids = append(ids, a.Column.ID)
	}
	return ids
}

// asSolveError reports whether err is itself a *solver.SolveError, by a
// direct type assertion; wrapped errors are not unwrapped.
func asSolveError(err error, target **solver.SolveError) bool {
	se, ok := err.(*solver.SolveError)
	if !ok {
		return false
	}
	*target = se
	return true
}

type cliError struct {
	code int
	msg  string
}

func (e *cliError) Error() string { return e.msg }

func exitErrorf(code int, format string, args ...interface{}) error {
	return &cliError{code: code, msg: fmt.Sprintf(format, args...)}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if cerr, ok := err.(*cliError); ok {
			os.Exit(cerr.code)
		}
		os.Exit(5)
	}
}
