package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// yamlDoc mirrors SolverConfig's exported, deployment-tunable fields for
// strict YAML decoding. Unknown keys are rejected by yaml.Decoder's
// KnownFields(true) mode rather than silently ignored, per the "unknown
// keys are rejected at ingest" rule in SPEC_FULL.md §9.
type yamlDoc struct {
	Seed                  uint64  `yaml:"seed"`
	TimeBudgetSeconds     float64 `yaml:"time_budget_seconds"`
	Phase1Fraction        float64 `yaml:"phase1_fraction"`
	Phase2Fraction        float64 `yaml:"phase2_fraction"`
	PricingTimeLimit      float64 `yaml:"pricing_time_limit"`
	MaxCGIterations       uint32  `yaml:"max_cg_iterations"`
	RestrictedMIPVarCap   uint32  `yaml:"restricted_mip_var_cap"`
	FinalSubsetCap        uint32  `yaml:"final_subset_cap"`
	CapQuota2er           float64 `yaml:"cap_quota_2er"`
	MaxGapMinutesInterDay uint32  `yaml:"max_gap_minutes_inter_day"`
	TopMStartTours        uint32  `yaml:"top_m_start_tours"`
	MaxSuccPerTour        uint32  `yaml:"max_succ_per_tour"`
	MaxTriplesPerTour     uint32  `yaml:"max_triples_per_tour"`
	WeeklyMinFTE          uint32  `yaml:"weekly_min_fte"`
	WeeklyMax             uint32  `yaml:"weekly_max"`
	FTEThreshold          uint32  `yaml:"fte_threshold"`
	PTMin                 uint32  `yaml:"pt_min"`
	OutputProfile         string  `yaml:"output_profile"`
}

// LoadYAML parses a SolverConfig document from path, starting from
// Default() for any field the document omits, and rejects unrecognized
// keys. Returns a config.Validate()-checked SolverConfig.
func LoadYAML(path string) (SolverConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return SolverConfig{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var doc yamlDoc
	// Seed scalar defaults so omitted keys still read as the deployment defaults.
	def := Default()
	doc.Seed = def.Seed
	doc.TimeBudgetSeconds = def.TimeBudget.Seconds()
	doc.Phase1Fraction = def.Phase1Fraction
	doc.Phase2Fraction = def.Phase2Fraction
	doc.PricingTimeLimit = def.PricingTimeLimit.Seconds()
	doc.MaxCGIterations = def.MaxCGIterations
	doc.RestrictedMIPVarCap = def.RestrictedMIPVarCap
	doc.FinalSubsetCap = def.FinalSubsetCap
	doc.CapQuota2er = def.CapQuota2er
	doc.MaxGapMinutesInterDay = def.MaxGapMinutesInterDay
	doc.TopMStartTours = def.TopMStartTours
	doc.MaxSuccPerTour = def.MaxSuccPerTour
	doc.MaxTriplesPerTour = def.MaxTriplesPerTour
	doc.WeeklyMinFTE = def.WeeklyMinFTE
	doc.WeeklyMax = def.WeeklyMax
	doc.FTEThreshold = def.FTEThreshold
	doc.PTMin = def.PTMin
	doc.OutputProfile = def.OutputProfile.String()

	if err := dec.Decode(&doc); err != nil {
		return SolverConfig{}, fmt.Errorf("config: decode %s: %w", path, err)
	}

	cfg := def
	cfg.Seed = doc.Seed
	cfg.TimeBudget = time.Duration(doc.TimeBudgetSeconds * float64(time.Second))
	cfg.Phase1Fraction = doc.Phase1Fraction
	cfg.Phase2Fraction = doc.Phase2Fraction
	cfg.PricingTimeLimit = time.Duration(doc.PricingTimeLimit * float64(time.Second))
	cfg.MaxCGIterations = doc.MaxCGIterations
	cfg.RestrictedMIPVarCap = doc.RestrictedMIPVarCap
	cfg.FinalSubsetCap = doc.FinalSubsetCap
	cfg.CapQuota2er = doc.CapQuota2er
	cfg.MaxGapMinutesInterDay = doc.MaxGapMinutesInterDay
	cfg.TopMStartTours = doc.TopMStartTours
	cfg.MaxSuccPerTour = doc.MaxSuccPerTour
	cfg.MaxTriplesPerTour = doc.MaxTriplesPerTour
	cfg.WeeklyMinFTE = doc.WeeklyMinFTE
	cfg.WeeklyMax = doc.WeeklyMax
	cfg.FTEThreshold = doc.FTEThreshold
	cfg.PTMin = doc.PTMin

	switch doc.OutputProfile {
	case "MIN_HEADCOUNT":
		cfg.OutputProfile = MinHeadcount
	case "BEST_BALANCED":
		cfg.OutputProfile = BestBalanced
	case "MIN_HEADCOUNT_3ER":
		cfg.OutputProfile = MinHeadcount3er
	default:
		return SolverConfig{}, fmt.Errorf("config: unknown output_profile %q", doc.OutputProfile)
	}

	if err := cfg.Validate(); err != nil {
		return SolverConfig{}, err
	}

	return cfg, nil
}
