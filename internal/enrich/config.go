package enrich

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ScoringConfig holds the weights and keyword lists behind persona-match and
// quality scoring. It is loadable from YAML so sales teams can tune scoring
// without a rebuild.
type ScoringConfig struct {
	// Persona-match component weights (sum = 1).
	IndustryWeight float64 `yaml:"industry_weight"`
	KeywordWeight  float64 `yaml:"keyword_weight"`
	LocationWeight float64 `yaml:"location_weight"`
	PainWeight     float64 `yaml:"pain_weight"`

	// HighMatchThreshold is the persona-match score at or above which a lead
	// counts as a strong fit for quality bucketing.
	HighMatchThreshold float64 `yaml:"high_match_threshold"`

	// StrongFitKeywords mark buying intent when they appear in a lead's
	// qualification summary or pain point.
	StrongFitKeywords []string `yaml:"strong_fit_keywords"`
}

// DefaultScoringConfig returns a ScoringConfig with sensible defaults.
// Weights sum to 1.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		IndustryWeight: 0.35,
		KeywordWeight:  0.30,
		LocationWeight: 0.15,
		PainWeight:     0.20,

		HighMatchThreshold: 0.7,

		StrongFitKeywords: []string{
			"switching from", "looking for alternatives", "frustrated with",
			"outgrown", "evaluating vendors", "request for proposal",
			"budget approved", "actively comparing",
		},
	}
}

// WeightSum returns the sum of the persona-match component weights.
func (sc ScoringConfig) WeightSum() float64 {
	return sc.IndustryWeight + sc.KeywordWeight + sc.LocationWeight + sc.PainWeight
}

// Validate checks that a ScoringConfig is internally consistent.
func (sc ScoringConfig) Validate() error {
	var errs []string

	weights := map[string]float64{
		"industry_weight": sc.IndustryWeight,
		"keyword_weight":  sc.KeywordWeight,
		"location_weight": sc.LocationWeight,
		"pain_weight":     sc.PainWeight,
	}
	for name, w := range weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	sum := sc.WeightSum()
	if sum <= 0 {
		errs = append(errs, "weight sum must be > 0")
	}
	if math.Abs(sum-1) > 0.01 {
		errs = append(errs, fmt.Sprintf("weights should sum to 1, got %.2f", sum))
	}

	if sc.HighMatchThreshold < 0 || sc.HighMatchThreshold > 1 {
		errs = append(errs, "high_match_threshold must be between 0 and 1")
	}

	if len(errs) > 0 {
		return eris.Errorf("enrich: scoring config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadScoringConfig reads scoring weights from a YAML file. Zero-valued
// fields fall back to the defaults.
func LoadScoringConfig(path string) (*ScoringConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: read scoring config %s", path)
	}

	// The YAML has a top-level "scoring" key.
	var wrapper struct {
		Scoring ScoringConfig `yaml:"scoring"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "enrich: parse scoring config")
	}

	cfg := wrapper.Scoring
	defaults := DefaultScoringConfig()
	if cfg.IndustryWeight == 0 {
		cfg.IndustryWeight = defaults.IndustryWeight
	}
	if cfg.KeywordWeight == 0 {
		cfg.KeywordWeight = defaults.KeywordWeight
	}
	if cfg.LocationWeight == 0 {
		cfg.LocationWeight = defaults.LocationWeight
	}
	if cfg.PainWeight == 0 {
		cfg.PainWeight = defaults.PainWeight
	}
	if cfg.HighMatchThreshold == 0 {
		cfg.HighMatchThreshold = defaults.HighMatchThreshold
	}
	if len(cfg.StrongFitKeywords) == 0 {
		cfg.StrongFitKeywords = defaults.StrongFitKeywords
	}

	return &cfg, nil
}
